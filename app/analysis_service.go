package app

import (
	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/internal/aggregate"
	"qics/internal/config"
	"qics/internal/errors"
	"qics/internal/phase"
	"qics/internal/physics"
	"qics/internal/scaling"
)

// AnalysisService runs the full single-galaxy pipeline: baryonic
// composition, QIC-S prediction, fit statistics, phase classification
// and scale extraction. It holds no mutable state; every constant
// travels in the configuration it was built with.
type AnalysisService struct {
	params   physics.Params
	window   physics.Window
	zones    physics.ZoneThresholds
	phaseCfg phase.Config
}

// NewAnalysisService builds the service from application configuration.
func NewAnalysisService(cfg *config.Config) *AnalysisService {
	return &AnalysisService{
		params: physics.Params{
			A0: cfg.Physics.A0,
			Weights: physics.Weights{
				Gas:   cfg.Physics.MLGas,
				Disk:  cfg.Physics.MLDisk,
				Bulge: cfg.Physics.MLBulge,
			},
			RadiusFloorKpc: cfg.Physics.RadiusFloorKpc,
			GBarFloor:      cfg.Physics.GBarFloor,
		},
		window: physics.Window(cfg.Deviation.Window),
		zones: physics.ZoneThresholds{
			StandardPct: cfg.Deviation.StandardPct,
			SignalPct:   cfg.Deviation.SignalPct,
		},
		phaseCfg: phase.Config{
			Epsilon:   cfg.Phase.Epsilon,
			MinPoints: cfg.Phase.MinPoints,
			Threshold: cfg.Phase.Threshold,
		},
	}
}

// AnalyzeCurve produces the per-galaxy result. A curve with too few
// usable samples comes back excluded rather than failing: the batch
// counts it and moves on.
func (s *AnalysisService) AnalyzeCurve(curve *galaxy.Curve) (*galaxy.Result, error) {
	if err := curve.Validate(); err != nil {
		return nil, err
	}

	usable := curve.Usable()
	result := &galaxy.Result{
		GalaxyID:    curve.ID,
		Source:      curve.Source,
		SampleCount: curve.Len(),
		UsableCount: len(usable),
		AnalyzedAt:  core.Now(),
	}

	if len(usable) < s.phaseCfg.MinPoints {
		result.Phase = galaxy.PhaseExcluded
		return result, nil
	}

	n := len(usable)
	radii := make([]float64, n)
	vObs := make([]float64, n)
	vErr := make([]float64, n)
	gas := make([]float64, n)
	disk := make([]float64, n)
	bulge := make([]float64, n)
	for i, smp := range usable {
		radii[i] = smp.RadiusKpc
		vObs[i] = smp.VObsKms
		vErr[i] = smp.VErrKms
		gas[i] = smp.VGasKms
		disk[i] = smp.VDiskKms
		bulge[i] = smp.VBulgeKms
	}

	vBar, err := physics.ComposeBaryonic(gas, disk, bulge, n, s.params.Weights)
	if err != nil {
		return nil, errors.Wrapf(err, "galaxy %s baryonic composition", curve.ID)
	}
	vPred := physics.PredictVelocities(radii, vBar, s.params)

	fitStats, err := physics.FitStats(vObs, vPred, vErr)
	if err != nil {
		return nil, errors.Wrapf(err, "galaxy %s fit statistics", curve.ID)
	}
	if fitStats.HasUncertainty {
		result.Fit = &galaxy.FitStats{
			ChiSquared:        fitStats.ChiSquared,
			ReducedChiSquared: fitStats.ReducedChiSquared,
			DegreesOfFreedom:  fitStats.DegreesOfFreedom,
			PValue:            fitStats.PValue,
			RMSKms:            fitStats.RMSKms,
		}
	} else {
		result.Fit = &galaxy.FitStats{RMSKms: fitStats.RMSKms}
	}

	dev, err := physics.MeanDeviationPct(vObs, vPred, s.window)
	if err != nil {
		return nil, errors.Wrapf(err, "galaxy %s deviation", curve.ID)
	}
	result.MeanDeviationPct = dev
	result.Zone = galaxy.Zone(physics.ClassifyZone(dev, s.zones))

	excess := physics.EnergyExcess(vObs, vPred)
	sum := 0.0
	for _, e := range excess {
		sum += e
	}
	result.EnergyExcessKms = sum / float64(n)

	m, err := phase.Metric(radii, vObs, s.phaseCfg)
	if err != nil {
		// The positivity filter inside the metric can still drop
		// below the gate even when len(usable) passed it.
		if errors.GetCode(err) == errors.CodeInsufficientSamples {
			result.Phase = galaxy.PhaseExcluded
			return result, nil
		}
		return nil, errors.Wrapf(err, "galaxy %s phase metric", curve.ID)
	}
	result.PhaseMetric = m
	result.Phase = galaxy.PhaseClass(phase.Classify(m, s.phaseCfg.Threshold))

	r, vAtR, dEff, err := scaling.ExtractScale(radii, vObs)
	if err != nil {
		return nil, errors.Wrapf(err, "galaxy %s scale extraction", curve.ID)
	}
	result.Scale = galaxy.ScalePoint{RadiusKpc: r, VelocityKms: vAtR, DEff: dEff}

	return result, nil
}

// AggregateRow converts an analyzed galaxy into its row of the
// cross-galaxy table. Excluded galaxies have no row.
func AggregateRow(result *galaxy.Result) (aggregate.Row, bool) {
	if result.Excluded() {
		return aggregate.Row{}, false
	}
	return aggregate.Row{
		Galaxy: result.GalaxyID,
		M:      result.PhaseMetric,
		R:      result.Scale.RadiusKpc,
		DEff:   result.Scale.DEff,
	}, true
}
