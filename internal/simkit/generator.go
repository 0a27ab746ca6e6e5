// Package simkit generates synthetic rotation curves for demos and
// tests. It is an explicit mode: batch analysis of real data never
// falls back to synthetic curves when a file is missing.
package simkit

import (
	"fmt"
	"math"
	"math/rand"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/internal/config"
	"qics/internal/errors"
)

// Config shapes the generated curve. The default profile approximates
// a late-type spiral of the NGC 2403 kind.
type Config struct {
	Points          int
	MaxRadiusKpc    float64
	FlatVelocityKms float64 // asymptotic observed velocity
	RiseScaleKpc    float64 // radius scale of the observed rise
	DiskPeakKms     float64 // disk contribution peak amplitude
	DiskScaleKpc    float64 // exponential truncation of the disk
	GasSlopeKms     float64 // linear gas contribution at MaxRadius/10
	NoiseSigmaKms   float64 // gaussian noise on the observed velocity
	VErrKms         float64 // reported uncertainty per point
	Seed            int64
}

// DefaultConfig returns the spiral-galaxy profile.
func DefaultConfig() Config {
	return Config{
		Points:          50,
		MaxRadiusKpc:    19.0,
		FlatVelocityKms: 133.0,
		RiseScaleKpc:    3.0,
		DiskPeakKms:     90.0,
		DiskScaleKpc:    7.0,
		GasSlopeKms:     20.0,
		NoiseSigmaKms:   2.0,
		VErrKms:         5.0,
		Seed:            42,
	}
}

// Generator produces synthetic curves deterministically from its seed.
type Generator struct {
	cfg Config
}

// NewGenerator validates the configuration and builds a generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Points < 2 {
		return nil, errors.ConfigInvalid("simulation needs at least 2 points")
	}
	if cfg.MaxRadiusKpc <= 0 || cfg.FlatVelocityKms <= 0 {
		return nil, errors.ConfigInvalid("simulation radius and velocity scales must be positive")
	}
	if cfg.NoiseSigmaKms < 0 || cfg.VErrKms < 0 {
		return nil, errors.ConfigInvalid("simulation noise settings cannot be negative")
	}
	return &Generator{cfg: cfg}, nil
}

// Generate builds one synthetic curve. The galaxy index perturbs the
// seed so a batch of simulated galaxies differs while the whole batch
// stays reproducible.
func (g *Generator) Generate(index int) (*galaxy.Curve, error) {
	cfg := g.cfg
	rng := rand.New(rand.NewSource(core.DeriveSeed(cfg.Seed, "simkit", index)))

	samples := make([]galaxy.Sample, cfg.Points)
	step := cfg.MaxRadiusKpc / float64(cfg.Points)
	for i := 0; i < cfg.Points; i++ {
		r := step * float64(i+1)

		vDisk := cfg.DiskPeakKms * (r / 2.5) * math.Exp(-r/cfg.DiskScaleKpc)
		vGas := cfg.GasSlopeKms * (r / (cfg.MaxRadiusKpc / 2))
		vObs := cfg.FlatVelocityKms*(1-math.Exp(-r/cfg.RiseScaleKpc)) + cfg.NoiseSigmaKms*rng.NormFloat64()
		if vObs < 1 {
			vObs = 1
		}

		samples[i] = galaxy.Sample{
			RadiusKpc: r,
			VObsKms:   vObs,
			VErrKms:   cfg.VErrKms,
			VGasKms:   vGas,
			VDiskKms:  vDisk,
		}
	}

	id, err := core.ParseGalaxyID(fmt.Sprintf("SIM%04d", index))
	if err != nil {
		return nil, err
	}
	return galaxy.NewCurve(id, "simkit", samples)
}

// GenerateBatch builds count curves.
func (g *Generator) GenerateBatch(count int) ([]*galaxy.Curve, error) {
	curves := make([]*galaxy.Curve, 0, count)
	for i := 0; i < count; i++ {
		curve, err := g.Generate(i)
		if err != nil {
			return nil, err
		}
		curves = append(curves, curve)
	}
	return curves, nil
}

// FromAppConfig builds a generator from application settings, enforcing
// the explicit opt-in: with simulation mode off the constructor returns
// core.ErrSimulationDisabled, so no config-driven path can fabricate
// data by accident.
func FromAppConfig(sim config.SimulationConfig) (*Generator, error) {
	if !sim.Enabled {
		return nil, core.ErrSimulationDisabled
	}

	cfg := DefaultConfig()
	cfg.Seed = sim.Seed
	cfg.NoiseSigmaKms = sim.NoiseSigmaKms
	cfg.VErrKms = sim.VErrKms
	return NewGenerator(cfg)
}
