package galaxy

import (
	"fmt"

	"qics/domain/core"
)

// Sample is one radial point of a rotation curve. Radii are in kpc,
// velocities in km/s as published in SPARC rotmod tables.
type Sample struct {
	RadiusKpc float64 `json:"radius_kpc"`
	VObsKms   float64 `json:"v_obs_kms"`
	VErrKms   float64 `json:"v_err_kms,omitempty"`
	VGasKms   float64 `json:"v_gas_kms,omitempty"`
	VDiskKms  float64 `json:"v_disk_kms,omitempty"`
	VBulgeKms float64 `json:"v_bulge_kms,omitempty"`
}

// Curve is the full rotation curve of one galaxy.
type Curve struct {
	ID      core.GalaxyID `json:"id"`
	Source  string        `json:"source,omitempty"`
	Samples []Sample      `json:"samples"`
}

// NewCurve creates a curve after basic validation.
func NewCurve(id core.GalaxyID, source string, samples []Sample) (*Curve, error) {
	if core.ID(id).IsEmpty() {
		return nil, core.NewMissingColumnError("galaxy id", source)
	}
	return &Curve{ID: id, Source: source, Samples: samples}, nil
}

// Len returns the number of samples.
func (c *Curve) Len() int {
	return len(c.Samples)
}

// Radii returns the radius column in kpc.
func (c *Curve) Radii() []float64 {
	out := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = s.RadiusKpc
	}
	return out
}

// ObservedVelocities returns the v_obs column in km/s.
func (c *Curve) ObservedVelocities() []float64 {
	out := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = s.VObsKms
	}
	return out
}

// Uncertainties returns the v_err column in km/s.
func (c *Curve) Uncertainties() []float64 {
	out := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = s.VErrKms
	}
	return out
}

// HasUncertainties reports whether any sample carries a positive
// velocity uncertainty. A column of zeros means the source table
// had no error column.
func (c *Curve) HasUncertainties() bool {
	for _, s := range c.Samples {
		if s.VErrKms > 0 {
			return true
		}
	}
	return false
}

// HasBaryonicComponents reports whether any gas, disk or bulge
// velocity is present. Curves without components cannot feed the
// baryonic composition step.
func (c *Curve) HasBaryonicComponents() bool {
	for _, s := range c.Samples {
		if s.VGasKms != 0 || s.VDiskKms != 0 || s.VBulgeKms != 0 {
			return true
		}
	}
	return false
}

// Usable returns the samples with strictly positive radius and
// observed velocity. Zero or negative entries are instrument
// artifacts and are dropped before any analysis.
func (c *Curve) Usable() []Sample {
	out := make([]Sample, 0, len(c.Samples))
	for _, s := range c.Samples {
		if s.RadiusKpc > 0 && s.VObsKms > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks structural invariants of the curve.
func (c *Curve) Validate() error {
	if core.ID(c.ID).IsEmpty() {
		return fmt.Errorf("curve has empty galaxy id")
	}
	if len(c.Samples) == 0 {
		return fmt.Errorf("curve %s: %w", c.ID, core.ErrEmptyDataset)
	}
	return nil
}
