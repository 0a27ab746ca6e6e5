package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/domain/scaling"
)

func newManifest(id core.RunID) *run.Manifest {
	return run.NewManifest(id, "./data", "*_rotmod.dat", "dh", "ch", 42, "1.0.0")
}

func TestSaveAndGetRun(t *testing.T) {
	repo := NewResultRepository()
	ctx := context.Background()

	manifest := newManifest("run-a")
	require.NoError(t, repo.SaveRun(ctx, manifest))

	got, err := repo.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, manifest.RunID, got.RunID)
	assert.Equal(t, manifest.Fingerprint.Fingerprint, got.Fingerprint.Fingerprint)

	// Upsert: completing the run overwrites the stored manifest.
	manifest.MarkCompleted(galaxy.Census{Total: 2, Ordered: 2})
	require.NoError(t, repo.SaveRun(ctx, manifest))

	got, err = repo.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Census.Ordered)
}

func TestGetRun_NotFound(t *testing.T) {
	repo := NewResultRepository()

	_, err := repo.GetRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListRuns_NewestFirst(t *testing.T) {
	repo := NewResultRepository()
	ctx := context.Background()

	first := newManifest("run-1")
	require.NoError(t, repo.SaveRun(ctx, first))
	time.Sleep(2 * time.Millisecond)
	second := newManifest("run-2")
	require.NoError(t, repo.SaveRun(ctx, second))

	runs, err := repo.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, core.RunID("run-2"), runs[0].RunID)
}

func TestGalaxyResultsRoundTrip(t *testing.T) {
	repo := NewResultRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveRun(ctx, newManifest("run-a")))

	results := []*galaxy.Result{
		{GalaxyID: "NGC2403", Phase: galaxy.PhaseOrdered, PhaseMetric: 0.2},
		{GalaxyID: "DDO154", Phase: galaxy.PhaseChaotic, PhaseMetric: 0.9},
	}
	require.NoError(t, repo.SaveGalaxyResults(ctx, "run-a", results))

	got, err := repo.ListGalaxyResults(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, results[0].GalaxyID, got[0].GalaxyID)

	// Stored copies are isolated from caller mutation.
	results[0].PhaseMetric = 99
	got, err = repo.ListGalaxyResults(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, 0.2, got[0].PhaseMetric)
}

func TestGalaxyResults_RequireRun(t *testing.T) {
	repo := NewResultRepository()

	err := repo.SaveGalaxyResults(context.Background(), "nope", nil)
	assert.Error(t, err)
}

func TestScalingStudyRoundTrip(t *testing.T) {
	repo := NewResultRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveRun(ctx, newManifest("run-a")))

	study := &scaling.Study{
		StudyID:   "study-1",
		GalaxyFit: scaling.FitResult{Slope: 1.5, RSquared: 1, N: 3},
	}
	require.NoError(t, repo.SaveScalingStudy(ctx, "run-a", study))

	got, err := repo.GetScalingStudy(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, study.GalaxyFit.Slope, got.GalaxyFit.Slope)

	_, err = repo.GetScalingStudy(ctx, "run-b")
	assert.Error(t, err)
}
