// Package physics implements the QIC-S acceleration model: baryonic
// velocity composition, the interpolation between baryonic and total
// acceleration, and the per-galaxy goodness-of-fit statistics.
//
// Rotation curves stay in their native units (kpc, km/s) everywhere in
// this package; accelerations cross into SI only inside the
// interpolation call path, through qics/internal/units.
package physics

import (
	"math"

	"qics/internal/errors"
	"qics/internal/units"

	"gonum.org/v1/gonum/stat/distuv"
)

// Weights are the mass-to-light ratios applied to the component
// velocities before composition.
type Weights struct {
	Gas   float64
	Disk  float64
	Bulge float64
}

// DefaultWeights returns the SPARC-calibrated mass-to-light ratios.
func DefaultWeights() Weights {
	return Weights{Gas: 1.0, Disk: 0.5, Bulge: 0.7}
}

// Params are the model constants. Zero values are invalid; use
// DefaultParams or build from configuration.
type Params struct {
	A0             float64 // characteristic acceleration, m/s^2
	Weights        Weights
	RadiusFloorKpc float64 // radii below this are clamped before division
	GBarFloor      float64 // baryonic acceleration floor, m/s^2
}

// DefaultParams returns the canonical model constants.
func DefaultParams() Params {
	return Params{
		A0:             1.23e-10,
		Weights:        DefaultWeights(),
		RadiusFloorKpc: 0.01,
		GBarFloor:      1e-15,
	}
}

// ComposeBaryonic combines gas, disk and bulge velocity contributions
// into a single baryonic velocity curve:
//
//	v_bar = sqrt(w_gas*v_gas^2 + w_disk*v_disk^2 + w_bulge*v_bulge^2)
//
// Component signs carry no physical meaning, so magnitudes are used.
// A nil component acts as a zero-filled column; components that are
// present must all have length n.
func ComposeBaryonic(gas, disk, bulge []float64, n int, w Weights) ([]float64, error) {
	for _, col := range [][]float64{gas, disk, bulge} {
		if col != nil && len(col) != n {
			return nil, errors.InvalidInput("baryonic component length mismatch")
		}
	}

	at := func(col []float64, i int) float64 {
		if col == nil {
			return 0
		}
		return math.Abs(col[i])
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		g := at(gas, i)
		d := at(disk, i)
		b := at(bulge, i)
		out[i] = math.Sqrt(w.Gas*g*g + w.Disk*d*d + w.Bulge*b*b)
	}
	return out, nil
}

// CurveAcceleration computes v^2/r element-wise in native units,
// (km/s)^2 per kpc. Radii at or below the floor are clamped to it so a
// degenerate bin floors the acceleration instead of producing Inf.
func CurveAcceleration(radii, v []float64, floorKpc float64) []float64 {
	out := make([]float64, len(radii))
	for i := range radii {
		r := radii[i]
		if r < floorKpc {
			r = floorKpc
		}
		out[i] = v[i] * v[i] / r
	}
	return out
}

// Interpolate maps a baryonic acceleration (m/s^2) to the predicted
// total acceleration:
//
//	g_tot = g_bar / (1 - exp(-sqrt(g_bar/a0)))
//
// The floor keeps the exponent away from the g_bar = 0 singularity; it
// is a numerical guard, not a physical boundary. For all positive
// inputs the result exceeds the input, and the ratio tends to 1 as
// g_bar grows past a0.
func Interpolate(gBarSI, a0, floor float64) float64 {
	g := gBarSI
	if g < floor {
		g = floor
	}
	return g / (1 - math.Exp(-math.Sqrt(g/a0)))
}

// InterpolateCurve applies Interpolate element-wise.
func InterpolateCurve(gBarSI []float64, a0, floor float64) []float64 {
	out := make([]float64, len(gBarSI))
	for i, g := range gBarSI {
		out[i] = Interpolate(g, a0, floor)
	}
	return out
}

// PredictVelocities runs the whole prediction path: baryonic velocity
// to baryonic acceleration, interpolation in SI, and back to a
// circular velocity in km/s via v = sqrt(g_tot * r).
func PredictVelocities(radii, vBaryon []float64, p Params) []float64 {
	out := make([]float64, len(radii))
	for i := range radii {
		r := radii[i]
		if r < p.RadiusFloorKpc {
			r = p.RadiusFloorKpc
		}
		gBar := units.AccelToSI(vBaryon[i] * vBaryon[i] / r)
		gTot := Interpolate(gBar, p.A0, p.GBarFloor)
		out[i] = units.MpsToKms(math.Sqrt(gTot * units.KpcToMeters(r)))
	}
	return out
}

// Residuals returns vObs - vPred element-wise.
func Residuals(vObs, vPred []float64) []float64 {
	out := make([]float64, len(vObs))
	for i := range vObs {
		out[i] = vObs[i] - vPred[i]
	}
	return out
}

// EnergyExcess returns max(0, vObs-vPred) element-wise: the part of
// the observed velocity the model fails to supply.
func EnergyExcess(vObs, vPred []float64) []float64 {
	out := make([]float64, len(vObs))
	for i := range vObs {
		if d := vObs[i] - vPred[i]; d > 0 {
			out[i] = d
		}
	}
	return out
}

// PredictionStats summarizes prediction quality for one galaxy.
type PredictionStats struct {
	Residuals []float64
	RMSKms    float64

	// Chi-squared fields are populated only when HasUncertainty is
	// true. The model has zero free parameters, so dof = N.
	HasUncertainty    bool
	ChiSquared        float64
	ReducedChiSquared float64
	DegreesOfFreedom  int
	PValue            float64
}

// FitStats computes residuals, RMS and, when per-point uncertainties
// exist, the chi-squared statistic with its survival-function p-value.
// Points whose uncertainty is zero are skipped in the chi-squared sum
// rather than dividing by zero.
func FitStats(vObs, vPred, vErr []float64) (*PredictionStats, error) {
	if len(vObs) != len(vPred) {
		return nil, errors.InvalidInput("observed and predicted curves differ in length")
	}
	if len(vObs) == 0 {
		return nil, errors.EmptyDataset("fit statistics")
	}

	stats := &PredictionStats{Residuals: Residuals(vObs, vPred)}

	sumSq := 0.0
	for _, res := range stats.Residuals {
		sumSq += res * res
	}
	stats.RMSKms = math.Sqrt(sumSq / float64(len(vObs)))

	hasErr := false
	for _, e := range vErr {
		if e > 0 {
			hasErr = true
			break
		}
	}
	if !hasErr || len(vErr) != len(vObs) {
		return stats, nil
	}

	chi2 := 0.0
	dof := 0
	for i, res := range stats.Residuals {
		if vErr[i] <= 0 {
			continue
		}
		chi2 += (res / vErr[i]) * (res / vErr[i])
		dof++
	}
	if dof == 0 {
		return stats, nil
	}

	stats.HasUncertainty = true
	stats.ChiSquared = chi2
	stats.DegreesOfFreedom = dof
	stats.ReducedChiSquared = chi2 / float64(dof)

	chiDist := distuv.ChiSquared{K: float64(dof)}
	stats.PValue = chiDist.Survival(chi2)

	return stats, nil
}
