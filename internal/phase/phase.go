// Package phase computes the phase metric M: the population variance
// of the log-scaled dynamical gradient v^2/r across a rotation curve.
// Low-variance curves are "ordered", high-variance ones "chaotic".
package phase

import (
	"math"

	"qics/internal/errors"

	"github.com/montanaflynn/stats"
)

// Config holds the metric constants.
type Config struct {
	Epsilon   float64 // added inside the log to guard zero gradients
	MinPoints int     // curves with fewer usable samples are excluded
	Threshold float64 // metric boundary between ordered and chaotic
}

// DefaultConfig returns the canonical constants.
func DefaultConfig() Config {
	return Config{Epsilon: 1e-10, MinPoints: 5, Threshold: 0.5}
}

// Class is the qualitative phase of a galaxy.
type Class string

const (
	ClassOrdered Class = "ordered"
	ClassChaotic Class = "chaotic"
)

// Metric computes M = var(log(|v^2/r| + eps)) over the samples with
// strictly positive radius and velocity. The variance is the
// population variance (ddof=0); the bootstrap elsewhere uses the
// sample standard deviation, and the two choices are deliberate and
// independent.
//
// Curves with fewer than MinPoints usable samples are excluded with
// errors.CodeInsufficientSamples. That is a data-quality gate, not a
// failure: callers skip the galaxy and continue.
func Metric(radii, vObs []float64, cfg Config) (float64, error) {
	if len(radii) != len(vObs) {
		return 0, errors.InvalidInput("radius and velocity columns differ in length")
	}

	logGrad := make([]float64, 0, len(radii))
	for i := range radii {
		if radii[i] <= 0 || vObs[i] <= 0 {
			continue
		}
		grad := vObs[i] * vObs[i] / radii[i]
		logGrad = append(logGrad, math.Log(math.Abs(grad)+cfg.Epsilon))
	}

	if len(logGrad) < cfg.MinPoints {
		return 0, errors.InsufficientSamples("curve", len(logGrad), cfg.MinPoints)
	}

	m, err := stats.PopulationVariance(logGrad)
	if err != nil {
		return 0, errors.Wrap(err, "phase metric variance")
	}
	return m, nil
}

// Classify buckets a metric value against the threshold.
func Classify(m, threshold float64) Class {
	if m < threshold {
		return ClassOrdered
	}
	return ClassChaotic
}

// LegacyLandscapeMetric is the retired cumulative-Hamiltonian variant
// of the phase metric: the force difference (v_obs^2 - v_bar^2)/r is
// accumulated over radius, min-max normalized, and the variance of its
// gradient scaled by 1000. It disagrees with Metric by construction
// and exists only so historical results can be reproduced for
// comparison. The analysis pipeline never calls it.
func LegacyLandscapeMetric(radii, vObs, vBaryon []float64) (float64, error) {
	n := len(radii)
	if n < 2 || len(vObs) != n || len(vBaryon) != n {
		return 0, errors.InvalidInput("legacy metric needs matched columns of length >= 2")
	}

	force := make([]float64, n)
	for i := 0; i < n; i++ {
		r := radii[i]
		if r <= 0 {
			r = 0.01
		}
		f := (vObs[i]*vObs[i] - vBaryon[i]*vBaryon[i]) / r
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		force[i] = f
	}

	// Cumulative landscape H(r) = sum(force) * dr.
	landscape := make([]float64, n)
	cum := 0.0
	for i := 0; i < n; i++ {
		dr := 0.0
		if i > 0 {
			dr = radii[i] - radii[i-1]
		}
		cum += force[i]
		landscape[i] = cum * dr
	}

	min, max := landscape[0], landscape[0]
	for _, h := range landscape {
		if h < min {
			min = h
		}
		if h > max {
			max = h
		}
	}
	if max > min {
		for i := range landscape {
			landscape[i] = (landscape[i] - min) / (max - min)
		}
	}

	grad := make([]float64, n-1)
	for i := 1; i < n; i++ {
		grad[i-1] = landscape[i] - landscape[i-1]
	}

	v, err := stats.PopulationVariance(grad)
	if err != nil {
		return 0, errors.Wrap(err, "legacy metric variance")
	}
	return v * 1000, nil
}
