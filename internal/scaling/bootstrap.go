package scaling

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	domain "qics/domain/scaling"
	"qics/internal/errors"
	"qics/ports"

	"github.com/montanaflynn/stats"
)

const bootstrapStage = "scaling-bootstrap"

// BootstrapConfig holds the resampling settings.
type BootstrapConfig struct {
	Resamples  int
	Confidence float64
	Seed       int64
	Workers    int
}

// DefaultBootstrapConfig returns the pinned defaults. The seed is
// configuration, not a hidden constant: callers override it freely.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{Resamples: 10000, Confidence: 0.95, Seed: 42, Workers: 4}
}

type resampleFit struct {
	index      int
	slope      float64
	intercept  float64
	rSquared   float64
	degenerate bool
}

// Bootstrap estimates the sampling distribution of the log-log fit by
// resampling rows with replacement. Rows are drawn by shared index, so
// a resampled point keeps its R and D_eff together.
//
// Every iteration is a pure function of its derived seed, which makes
// the collected value set independent of the worker count: results are
// written into index-addressed slices and summarized afterward, never
// in completion order.
func Bootstrap(ctx context.Context, radii, scales []float64, cfg BootstrapConfig, rngPort ports.RNGPort) (*domain.BootstrapResult, error) {
	original, err := FitLogLog(radii, scales)
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap baseline fit")
	}

	if cfg.Resamples < 1 {
		return nil, errors.ConfigInvalid("bootstrap needs at least one resample")
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		return nil, errors.ConfigInvalid("bootstrap confidence must be in (0, 1)")
	}

	slopes := make([]float64, cfg.Resamples)
	intercepts := make([]float64, cfg.Resamples)
	rSquareds := make([]float64, cfg.Resamples)
	degenerate := 0

	numWorkers := cfg.Workers
	if numWorkers < 1 {
		numWorkers = 1
	}
	if cfg.Resamples < 100 {
		numWorkers = 1
	}

	workChan := make(chan int, cfg.Resamples)
	resultChan := make(chan resampleFit, cfg.Resamples)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bootstrapWorker(ctx, radii, scales, original, cfg, rngPort, workChan, resultChan)
		}()
	}

	go func() {
		for i := 0; i < cfg.Resamples; i++ {
			workChan <- i
		}
		close(workChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	collected := 0
	for fit := range resultChan {
		slopes[fit.index] = fit.slope
		intercepts[fit.index] = fit.intercept
		rSquareds[fit.index] = fit.rSquared
		if fit.degenerate {
			degenerate++
		}
		collected++
	}
	if collected < cfg.Resamples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.InternalError(fmt.Sprintf("bootstrap collected %d of %d resamples", collected, cfg.Resamples))
	}

	result := &domain.BootstrapResult{
		Fit:        original,
		Resamples:  cfg.Resamples,
		Degenerate: degenerate,
		Confidence: cfg.Confidence,
		Seed:       cfg.Seed,
	}
	result.Slope = summarize(slopes, original.Slope, cfg.Confidence)
	result.Intercept = summarize(intercepts, original.Intercept, cfg.Confidence)
	result.RSquared = summarize(rSquareds, original.RSquared, cfg.Confidence)

	return result, nil
}

func bootstrapWorker(ctx context.Context, radii, scales []float64, original domain.FitResult,
	cfg BootstrapConfig, rngPort ports.RNGPort, workChan <-chan int, resultChan chan<- resampleFit) {

	n := len(radii)
	sampleR := make([]float64, n)
	sampleD := make([]float64, n)

	for index := range workChan {
		select {
		case <-ctx.Done():
			return
		default:
		}

		seed := rngPort.DeriveSeed(bootstrapStage, index, cfg.Seed)
		rng, err := rngPort.SeededStream(ctx, bootstrapStage, seed)
		if err != nil {
			return
		}

		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			sampleR[i] = radii[j]
			sampleD[i] = scales[j]
		}

		fit, err := FitLogLog(sampleR, sampleD)
		if err != nil {
			// A draw that collapses onto too few distinct rows
			// cannot be fitted; record the original estimate so
			// the distribution stays length N.
			resultChan <- resampleFit{
				index:      index,
				slope:      original.Slope,
				intercept:  original.Intercept,
				rSquared:   original.RSquared,
				degenerate: true,
			}
			continue
		}

		resultChan <- resampleFit{
			index:     index,
			slope:     fit.Slope,
			intercept: fit.Intercept,
			rSquared:  fit.RSquared,
		}
	}
}

// summarize reduces one resampled distribution to its bootstrap mean,
// sample standard deviation, percentile interval and bias.
func summarize(values []float64, original, confidence float64) domain.DistributionSummary {
	mean, _ := stats.Mean(values)

	stdErr := 0.0
	if len(values) > 1 {
		stdErr, _ = stats.StandardDeviationSample(values)
	}

	tail := (1 - confidence) / 2 * 100
	return domain.DistributionSummary{
		Mean:   mean,
		StdErr: stdErr,
		CI: domain.ConfidenceInterval{
			Low:  percentile(values, tail),
			High: percentile(values, 100-tail),
		},
		Bias: mean - original,
	}
}

// percentile computes the p-th percentile with linear interpolation
// between the two nearest ranks.
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := lower + 1

	if lower < 0 {
		return sorted[0]
	}
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
