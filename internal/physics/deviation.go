package physics

import "qics/internal/errors"

// Window selects which radial bins enter the mean deviation.
type Window string

const (
	// WindowFull averages over every point of the curve.
	WindowFull Window = "full"

	// WindowOuterHalf averages over the outer half of the radii,
	// where the model's departure from the baryonic curve dominates.
	WindowOuterHalf Window = "outer-half"
)

// MeanDeviationPct computes the signed mean relative deviation of the
// prediction from the observation, in percent, over the chosen window.
// Points with non-positive observed velocity are skipped.
func MeanDeviationPct(vObs, vPred []float64, w Window) (float64, error) {
	if len(vObs) != len(vPred) {
		return 0, errors.InvalidInput("observed and predicted curves differ in length")
	}

	start := 0
	if w == WindowOuterHalf {
		start = len(vObs) / 2
	}

	sum := 0.0
	n := 0
	for i := start; i < len(vObs); i++ {
		if vObs[i] <= 0 {
			continue
		}
		sum += (vPred[i] - vObs[i]) / vObs[i] * 100
		n++
	}
	if n == 0 {
		return 0, errors.EmptyDataset("deviation window")
	}
	return sum / float64(n), nil
}

// ZoneThresholds bound the deviation zones on |deviation|.
type ZoneThresholds struct {
	StandardPct float64 // below this: STANDARD
	SignalPct   float64 // at or above this: SIGNAL
}

// DefaultZoneThresholds returns the 10/25 percent boundaries.
func DefaultZoneThresholds() ZoneThresholds {
	return ZoneThresholds{StandardPct: 10, SignalPct: 25}
}

// ClassifyZone buckets an absolute deviation percentage.
func ClassifyZone(devPct float64, t ZoneThresholds) string {
	abs := devPct
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < t.StandardPct:
		return "STANDARD"
	case abs < t.SignalPct:
		return "INTERMEDIATE"
	default:
		return "SIGNAL"
	}
}
