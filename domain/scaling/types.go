package scaling

import (
	"fmt"
	"math"

	"qics/domain/core"
)

// Point is one galaxy's contribution to the scaling relation: the
// phase metric M, the outermost measured radius R, and the effective
// dynamical scale D_eff = R * v(R).
type Point struct {
	GalaxyID  core.GalaxyID `json:"galaxy_id"`
	M         float64       `json:"m"`
	RadiusKpc float64       `json:"r"`
	DEff      float64       `json:"d_eff"`
}

// Dataset is the aggregate table the scaling study runs on.
type Dataset struct {
	Points []Point `json:"points"`
}

// Len returns the number of points.
func (d *Dataset) Len() int {
	return len(d.Points)
}

// Radii returns the R column.
func (d *Dataset) Radii() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.RadiusKpc
	}
	return out
}

// Scales returns the D_eff column.
func (d *Dataset) Scales() []float64 {
	out := make([]float64, len(d.Points))
	for i, p := range d.Points {
		out[i] = p.DEff
	}
	return out
}

// Validate checks that the dataset can support a log-log fit: at
// least two points, all radii and scales strictly positive.
func (d *Dataset) Validate() error {
	if len(d.Points) < 2 {
		return fmt.Errorf("scaling dataset has %d points, need at least 2: %w",
			len(d.Points), core.ErrInsufficientSamples)
	}
	for _, p := range d.Points {
		if p.RadiusKpc <= 0 {
			return fmt.Errorf("galaxy %s: radius %g: %w", p.GalaxyID, p.RadiusKpc, core.ErrNonPositiveValue)
		}
		if p.DEff <= 0 {
			return fmt.Errorf("galaxy %s: d_eff %g: %w", p.GalaxyID, p.DEff, core.ErrNonPositiveValue)
		}
	}
	return nil
}

// ReferencePoint anchors the combined fit with a structure outside the
// galaxy sample, e.g. a filament core. D_eff follows the same R * v
// convention as galaxy points.
type ReferencePoint struct {
	Label       string  `json:"label"`
	RadiusKpc   float64 `json:"radius_kpc"`
	VelocityKms float64 `json:"velocity_kms"`
}

// Scale returns the reference point's effective dynamical scale.
func (p ReferencePoint) Scale() float64 {
	return p.RadiusKpc * p.VelocityKms
}

// DefaultReferencePoints are the filament anchors used when no
// overrides are configured.
func DefaultReferencePoints() []ReferencePoint {
	return []ReferencePoint{
		{Label: "Filament Core", RadiusKpc: 50, VelocityKms: 110},
		{Label: "HI Structure", RadiusKpc: 1700, VelocityKms: 110},
		{Label: "Full Filament", RadiusKpc: 15000, VelocityKms: 110},
	}
}

// FitResult is a power-law fit D_eff = 10^intercept * R^slope obtained
// by ordinary least squares in log10 space.
type FitResult struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	StdErr    float64 `json:"std_err"`
	N         int     `json:"n"`
}

// Predict evaluates the fitted relation at radius r (kpc).
func (f FitResult) Predict(r float64) float64 {
	if r <= 0 {
		return 0
	}
	return math.Pow(10, f.Intercept) * math.Pow(r, f.Slope)
}

// ConfidenceInterval is a two-sided percentile interval.
type ConfidenceInterval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies inside the interval.
func (ci ConfidenceInterval) Contains(v float64) bool {
	return v >= ci.Low && v <= ci.High
}

// DistributionSummary describes one resampled statistic: its bootstrap
// mean, sample standard deviation, percentile confidence interval and
// the bias relative to the original point estimate.
type DistributionSummary struct {
	Mean   float64            `json:"mean"`
	StdErr float64            `json:"std_err"`
	CI     ConfidenceInterval `json:"ci"`
	Bias   float64            `json:"bias"`
}

// BootstrapResult records the resampling distribution of the fit
// parameters.
type BootstrapResult struct {
	Fit FitResult `json:"fit"`

	Slope     DistributionSummary `json:"slope"`
	Intercept DistributionSummary `json:"intercept"`
	RSquared  DistributionSummary `json:"r_squared"`

	Resamples  int     `json:"resamples"`
	Degenerate int     `json:"degenerate"`
	Confidence float64 `json:"confidence"`
	Seed       int64   `json:"seed"`
}

// SensitivityStep is one row of the outlier-removal probe: the fit
// after dropping the k largest residuals.
type SensitivityStep struct {
	Removed  int             `json:"removed"`
	Dropped  []core.GalaxyID `json:"dropped,omitempty"`
	Slope    float64         `json:"slope"`
	RSquared float64         `json:"r_squared"`
}

// Study bundles everything a scaling analysis produces.
type Study struct {
	StudyID core.StudyID `json:"study_id"`
	Dataset Dataset      `json:"dataset"`

	// RejectedRows counts input rows dropped for non-positive R or
	// D_eff before any fitting.
	RejectedRows int `json:"rejected_rows,omitempty"`

	References  []ReferencePoint  `json:"references,omitempty"`
	GalaxyFit   FitResult         `json:"galaxy_fit"`
	CombinedFit *FitResult        `json:"combined_fit,omitempty"`
	Bootstrap   *BootstrapResult  `json:"bootstrap,omitempty"`
	Sensitivity []SensitivityStep `json:"sensitivity,omitempty"`
	CreatedAt   core.Timestamp    `json:"created_at"`
}
