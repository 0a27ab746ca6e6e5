// Package scaling fits the cross-galaxy power law D_eff ~ R^slope and
// quantifies its stability by bootstrap resampling and outlier removal.
// All fits happen in log10/log10 space via ordinary least squares.
package scaling

import (
	"math"

	domain "qics/domain/scaling"
	"qics/internal/errors"

	"gonum.org/v1/gonum/stat"
)

// ExtractScale returns the outermost radius of a curve, the velocity
// observed there, and their product D_eff. Ties on the maximum radius
// resolve to the first occurrence.
func ExtractScale(radii, vObs []float64) (r, vAtR, dEff float64, err error) {
	if len(radii) == 0 || len(radii) != len(vObs) {
		return 0, 0, 0, errors.InvalidInput("scale extraction needs matched non-empty columns")
	}

	maxIdx := 0
	for i, rad := range radii {
		if rad > radii[maxIdx] {
			maxIdx = i
		}
	}

	r = radii[maxIdx]
	vAtR = vObs[maxIdx]
	return r, vAtR, r * vAtR, nil
}

// BuildDataset assembles the galaxy rows into a fit-ready dataset,
// rejecting rows whose R or D_eff is not strictly positive. The
// rejected count is reported so batch logs can surface it. An empty
// surviving set is an error: downstream statistics cannot run on it.
func BuildDataset(points []domain.Point) (*domain.Dataset, int, error) {
	kept := make([]domain.Point, 0, len(points))
	rejected := 0
	for _, p := range points {
		if p.RadiusKpc <= 0 || p.DEff <= 0 {
			rejected++
			continue
		}
		kept = append(kept, p)
	}

	if len(kept) == 0 {
		return nil, rejected, errors.EmptyDataset("scaling dataset")
	}
	return &domain.Dataset{Points: kept}, rejected, nil
}

// CombinedColumns appends the reference structures to the galaxy
// columns, sharing the R*v convention for D_eff.
func CombinedColumns(ds *domain.Dataset, refs []domain.ReferencePoint) (radii, scales []float64) {
	radii = ds.Radii()
	scales = ds.Scales()
	for _, ref := range refs {
		radii = append(radii, ref.RadiusKpc)
		scales = append(scales, ref.Scale())
	}
	return radii, scales
}

// FitLogLog fits log10(d) = slope*log10(r) + intercept by ordinary
// least squares. R-squared is the squared Pearson correlation of the
// logged columns; the slope standard error follows the usual
// sqrt(SSres/(n-2) / Sxx) form.
func FitLogLog(radii, scales []float64) (domain.FitResult, error) {
	n := len(radii)
	if n != len(scales) {
		return domain.FitResult{}, errors.InvalidInput("R and D_eff columns differ in length")
	}
	if n < 3 {
		return domain.FitResult{}, errors.InsufficientSamples("scaling fit", n, 3)
	}

	logR := make([]float64, n)
	logD := make([]float64, n)
	for i := 0; i < n; i++ {
		if radii[i] <= 0 || scales[i] <= 0 {
			return domain.FitResult{}, errors.InvalidInput("log-log fit requires strictly positive R and D_eff")
		}
		logR[i] = math.Log10(radii[i])
		logD[i] = math.Log10(scales[i])
	}

	intercept, slope := stat.LinearRegression(logR, logD, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return domain.FitResult{}, errors.InvalidInput("degenerate fit: R column has no spread")
	}

	corr := stat.Correlation(logR, logD, nil)
	r2 := corr * corr
	if math.IsNaN(r2) {
		r2 = 0
	}

	meanR := stat.Mean(logR, nil)
	ssRes, sxx := 0.0, 0.0
	for i := 0; i < n; i++ {
		res := logD[i] - (slope*logR[i] + intercept)
		ssRes += res * res
		dx := logR[i] - meanR
		sxx += dx * dx
	}
	stdErr := 0.0
	if sxx > 0 {
		stdErr = math.Sqrt(ssRes / float64(n-2) / sxx)
	}

	return domain.FitResult{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  r2,
		StdErr:    stdErr,
		N:         n,
	}, nil
}
