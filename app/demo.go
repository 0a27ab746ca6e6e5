package app

import (
	"context"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/internal"
	"qics/internal/aggregate"
	"qics/internal/config"
	"qics/internal/simkit"
	"qics/ports"
)

const demoGalaxies = 12

// SeedDemoRun populates a repository with one fully analyzed synthetic
// run so the read-only surfaces have content without a real dataset.
// Simulation mode must be explicitly enabled; otherwise the seeder
// returns core.ErrSimulationDisabled and the repository stays empty.
func SeedDemoRun(ctx context.Context, cfg *config.Config, repo ports.ResultRepository, rngPort ports.RNGPort) (*run.Manifest, error) {
	gen, err := simkit.FromAppConfig(cfg.Simulation)
	if err != nil {
		return nil, err
	}

	curves, err := gen.GenerateBatch(demoGalaxies)
	if err != nil {
		return nil, err
	}

	analysis := NewAnalysisService(cfg)
	results := make([]*galaxy.Result, 0, len(curves))
	sampleCounts := make(map[string]int, len(curves))
	for _, curve := range curves {
		result, err := analysis.AnalyzeCurve(curve)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
		sampleCounts[curve.ID.String()] = curve.Len()
	}

	manifest := run.NewManifest(
		core.RunID(core.NewID()),
		"simkit://demo",
		"*",
		core.ComputeDatasetHash(sampleCounts),
		core.ComputeConfigHash(cfg.Params()),
		cfg.Simulation.Seed,
		internal.Version,
	)
	manifest.FilesSeen = len(curves)

	census := galaxy.Census{}
	rows := make([]aggregate.Row, 0, len(results))
	for _, result := range results {
		census.Add(result)
		if row, ok := AggregateRow(result); ok {
			rows = append(rows, row)
		}
	}
	manifest.MarkCompleted(census)

	if err := repo.SaveRun(ctx, manifest); err != nil {
		return nil, err
	}
	if err := repo.SaveGalaxyResults(ctx, manifest.RunID, results); err != nil {
		return nil, err
	}

	study, err := NewScalingService(cfg, rngPort).RunStudy(ctx, aggregate.Points(rows))
	if err != nil {
		return nil, err
	}
	if err := repo.SaveScalingStudy(ctx, manifest.RunID, study); err != nil {
		return nil, err
	}

	return manifest, nil
}
