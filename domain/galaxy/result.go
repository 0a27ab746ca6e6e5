package galaxy

import (
	"qics/domain/core"
)

// PhaseClass labels a galaxy by the variance of its log acceleration
// gradient. Ordered curves sit below the threshold, chaotic ones above.
type PhaseClass string

const (
	PhaseOrdered  PhaseClass = "ordered"
	PhaseChaotic  PhaseClass = "chaotic"
	PhaseExcluded PhaseClass = "excluded"
)

// Zone buckets a galaxy by its mean percent deviation from the
// predicted curve.
type Zone string

const (
	ZoneStandard     Zone = "STANDARD"
	ZoneIntermediate Zone = "INTERMEDIATE"
	ZoneSignal       Zone = "SIGNAL"
)

// FitStats summarizes prediction quality against the observed curve.
// The prediction has zero free parameters, so degrees of freedom equal
// the sample count.
type FitStats struct {
	ChiSquared        float64 `json:"chi_squared"`
	ReducedChiSquared float64 `json:"reduced_chi_squared"`
	DegreesOfFreedom  int     `json:"degrees_of_freedom"`
	PValue            float64 `json:"p_value"`
	RMSKms            float64 `json:"rms_kms"`
}

// ScalePoint is the (R, v, D_eff) triple a galaxy contributes to the
// scaling study: outermost radius, velocity at that radius, and their
// product.
type ScalePoint struct {
	RadiusKpc   float64 `json:"radius_kpc"`
	VelocityKms float64 `json:"velocity_kms"`
	DEff        float64 `json:"d_eff"`
}

// Result is the complete per-galaxy analysis output.
type Result struct {
	GalaxyID    core.GalaxyID `json:"galaxy_id"`
	Source      string        `json:"source,omitempty"`
	SampleCount int           `json:"sample_count"`
	UsableCount int           `json:"usable_count"`

	PhaseMetric float64    `json:"phase_metric"`
	Phase       PhaseClass `json:"phase"`

	Fit              *FitStats  `json:"fit,omitempty"`
	MeanDeviationPct float64    `json:"mean_deviation_pct"`
	Zone             Zone       `json:"zone,omitempty"`
	EnergyExcessKms  float64    `json:"energy_excess_kms"`
	Scale            ScalePoint `json:"scale"`

	AnalyzedAt core.Timestamp `json:"analyzed_at"`
}

// Excluded reports whether the galaxy was dropped from phase
// classification for having too few usable samples.
func (r *Result) Excluded() bool {
	return r.Phase == PhaseExcluded
}

// Census counts galaxies by phase class across a run.
type Census struct {
	Total    int `json:"total"`
	Ordered  int `json:"ordered"`
	Chaotic  int `json:"chaotic"`
	Excluded int `json:"excluded"`
}

// Add updates the census with one result.
func (c *Census) Add(r *Result) {
	c.Total++
	switch r.Phase {
	case PhaseOrdered:
		c.Ordered++
	case PhaseChaotic:
		c.Chaotic++
	default:
		c.Excluded++
	}
}

// OrderedFraction returns the share of classified galaxies that are
// ordered. Excluded galaxies do not count toward the denominator.
func (c *Census) OrderedFraction() float64 {
	classified := c.Ordered + c.Chaotic
	if classified == 0 {
		return 0
	}
	return float64(c.Ordered) / float64(classified)
}

// ChaoticFraction returns the share of classified galaxies that are
// chaotic.
func (c *Census) ChaoticFraction() float64 {
	classified := c.Ordered + c.Chaotic
	if classified == 0 {
		return 0
	}
	return float64(c.Chaotic) / float64(classified)
}
