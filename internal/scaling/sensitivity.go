package scaling

import (
	"math"
	"sort"

	"qics/domain/core"
	domain "qics/domain/scaling"
	"qics/internal/errors"
)

// OutlierSensitivity probes fit stability by removing the k points
// with the largest residuals from the original fit, for k = 1 up to
// maxRemove, and refitting after each removal. The residual ranking is
// computed once against the full-dataset fit; it is a leave-k-out
// stability probe, not an estimator with its own confidence interval.
func OutlierSensitivity(labels []core.GalaxyID, radii, scales []float64, maxRemove int) ([]domain.SensitivityStep, error) {
	n := len(radii)
	if len(scales) != n || len(labels) != n {
		return nil, errors.InvalidInput("sensitivity probe needs matched label, R and D_eff columns")
	}

	original, err := FitLogLog(radii, scales)
	if err != nil {
		return nil, errors.Wrap(err, "sensitivity baseline fit")
	}

	// Rank points by |log10(d) - fitted| against the original fit.
	type rankedPoint struct {
		idx      int
		residual float64
	}
	ranked := make([]rankedPoint, n)
	for i := 0; i < n; i++ {
		fitted := original.Slope*math.Log10(radii[i]) + original.Intercept
		ranked[i] = rankedPoint{idx: i, residual: math.Abs(math.Log10(scales[i]) - fitted)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].residual > ranked[j].residual
	})

	if maxRemove > n-3 {
		maxRemove = n - 3
	}

	steps := make([]domain.SensitivityStep, 0, maxRemove)
	for k := 1; k <= maxRemove; k++ {
		drop := make(map[int]bool, k)
		dropped := make([]core.GalaxyID, 0, k)
		for _, rp := range ranked[:k] {
			drop[rp.idx] = true
			dropped = append(dropped, labels[rp.idx])
		}

		keptR := make([]float64, 0, n-k)
		keptD := make([]float64, 0, n-k)
		for i := 0; i < n; i++ {
			if drop[i] {
				continue
			}
			keptR = append(keptR, radii[i])
			keptD = append(keptD, scales[i])
		}

		fit, err := FitLogLog(keptR, keptD)
		if err != nil {
			return nil, errors.Wrapf(err, "sensitivity refit after removing %d points", k)
		}

		steps = append(steps, domain.SensitivityStep{
			Removed:  k,
			Dropped:  dropped,
			Slope:    fit.Slope,
			RSquared: fit.RSquared,
		})
	}

	return steps, nil
}
