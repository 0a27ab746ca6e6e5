package app

import (
	"context"

	"qics/domain/core"
	scalingdom "qics/domain/scaling"
	"qics/internal/config"
	"qics/internal/errors"
	"qics/internal/scaling"
	"qics/ports"
)

// ScalingService runs the cross-galaxy scaling study: the galaxy-only
// power-law fit, the combined fit with the reference structures, the
// bootstrap and the outlier-sensitivity probe.
type ScalingService struct {
	refs         []scalingdom.ReferencePoint
	bootstrapCfg scaling.BootstrapConfig
	maxRemove    int
	rngPort      ports.RNGPort
}

// NewScalingService builds the service from application configuration.
func NewScalingService(cfg *config.Config, rngPort ports.RNGPort) *ScalingService {
	return &ScalingService{
		refs: cfg.Scaling.ReferencePoints,
		bootstrapCfg: scaling.BootstrapConfig{
			Resamples:  cfg.Bootstrap.Resamples,
			Confidence: cfg.Bootstrap.Confidence,
			Seed:       cfg.Bootstrap.Seed,
			Workers:    cfg.Bootstrap.Workers,
		},
		maxRemove: cfg.Scaling.MaxRemove,
		rngPort:   rngPort,
	}
}

// RunStudy fits, bootstraps and probes the scaling relation over the
// given galaxy rows. Rows with non-positive R or D_eff are dropped
// before fitting; an empty surviving set aborts the study.
func (s *ScalingService) RunStudy(ctx context.Context, points []scalingdom.Point) (*scalingdom.Study, error) {
	ds, rejected, err := scaling.BuildDataset(points)
	if err != nil {
		return nil, errors.Wrap(err, "scaling dataset assembly")
	}

	study := &scalingdom.Study{
		StudyID:      core.StudyID(core.NewID()),
		Dataset:      *ds,
		RejectedRows: rejected,
		References:   s.refs,
		CreatedAt:    core.Now(),
	}

	galaxyFit, err := scaling.FitLogLog(ds.Radii(), ds.Scales())
	if err != nil {
		return nil, errors.Wrap(err, "galaxy-only fit")
	}
	study.GalaxyFit = galaxyFit

	radii, scales := scaling.CombinedColumns(ds, s.refs)
	labels := make([]core.GalaxyID, 0, len(radii))
	for _, p := range ds.Points {
		labels = append(labels, p.GalaxyID)
	}
	for _, ref := range s.refs {
		labels = append(labels, core.GalaxyID(ref.Label))
	}

	combinedFit, err := scaling.FitLogLog(radii, scales)
	if err != nil {
		return nil, errors.Wrap(err, "combined fit")
	}
	study.CombinedFit = &combinedFit

	boot, err := scaling.Bootstrap(ctx, radii, scales, s.bootstrapCfg, s.rngPort)
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap")
	}
	study.Bootstrap = boot

	if s.maxRemove > 0 {
		steps, err := scaling.OutlierSensitivity(labels, radii, scales, s.maxRemove)
		if err != nil {
			return nil, errors.Wrap(err, "outlier sensitivity")
		}
		study.Sensitivity = steps
	}

	return study, nil
}
