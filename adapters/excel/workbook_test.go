package excel

import (
	"path/filepath"
	"testing"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/domain/scaling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []*galaxy.Result {
	return []*galaxy.Result{
		{
			GalaxyID:    core.GalaxyID("NGC0001"),
			SampleCount: 20, UsableCount: 20,
			PhaseMetric: 0.12, Phase: galaxy.PhaseOrdered,
			Fit:              &galaxy.FitStats{RMSKms: 8.5, ChiSquared: 21, ReducedChiSquared: 1.05, DegreesOfFreedom: 20, PValue: 0.39},
			MeanDeviationPct: 4.2, Zone: galaxy.ZoneStandard,
			Scale:      galaxy.ScalePoint{RadiusKpc: 18, VelocityKms: 130, DEff: 2340},
			AnalyzedAt: core.Now(),
		},
		{
			GalaxyID:    core.GalaxyID("NGC0002"),
			SampleCount: 15, UsableCount: 14,
			PhaseMetric: 0.91, Phase: galaxy.PhaseChaotic,
			MeanDeviationPct: 31.0, Zone: galaxy.ZoneSignal,
			Scale:            galaxy.ScalePoint{RadiusKpc: 9, VelocityKms: 95, DEff: 855},
			AnalyzedAt:       core.Now(),
		},
	}
}

func TestWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	results := sampleResults()

	study := &scaling.Study{
		StudyID:   core.StudyID(core.NewID()),
		GalaxyFit: scaling.FitResult{Slope: 1.2, Intercept: 0.8, RSquared: 0.95, N: 2},
		Bootstrap: &scaling.BootstrapResult{
			Fit:       scaling.FitResult{Slope: 1.2},
			Slope:     scaling.DistributionSummary{Mean: 1.19, CI: scaling.ConfidenceInterval{Low: 1.0, High: 1.4}},
			Resamples: 100, Confidence: 0.95, Seed: 42,
		},
		Sensitivity: []scaling.SensitivityStep{{Removed: 1, Slope: 1.25, RSquared: 0.97}},
		CreatedAt:   core.Now(),
	}

	require.NoError(t, NewWorkbookWriter().Write(path, nil, results, study))

	rows, err := NewTableReader(path).Read()
	require.NoError(t, err)
	require.Len(t, rows, len(results))

	for i, row := range rows {
		assert.Equal(t, results[i].GalaxyID, row.Galaxy)
		assert.InDelta(t, results[i].PhaseMetric, row.M, 1e-9)
		assert.InDelta(t, results[i].Scale.RadiusKpc, row.R, 1e-9)
		assert.InDelta(t, results[i].Scale.DEff, row.DEff, 1e-9)
	}
}

func TestWorkbookWithoutStudy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.xlsx")
	require.NoError(t, NewWorkbookWriter().Write(path, nil, sampleResults(), nil))

	rows, err := NewTableReader(path).Read()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestTableReaderMissingFile(t *testing.T) {
	_, err := NewTableReader(filepath.Join(t.TempDir(), "absent.xlsx")).Read()
	assert.Error(t, err)
}
