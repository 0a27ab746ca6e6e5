package ports

import (
	"context"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/domain/scaling"
)

// ResultRepository persists batch runs and everything derived from
// them. Implementations: Postgres for real deployments, in-memory for
// tests and demo serving.
type ResultRepository interface {
	// SaveRun upserts a run manifest; it is called once when the run
	// starts and again when it finishes.
	SaveRun(ctx context.Context, manifest *run.Manifest) error
	GetRun(ctx context.Context, id core.RunID) (*run.Manifest, error)
	ListRuns(ctx context.Context) ([]*run.Manifest, error)

	SaveGalaxyResults(ctx context.Context, runID core.RunID, results []*galaxy.Result) error
	ListGalaxyResults(ctx context.Context, runID core.RunID) ([]*galaxy.Result, error)

	SaveScalingStudy(ctx context.Context, runID core.RunID, study *scaling.Study) error
	GetScalingStudy(ctx context.Context, runID core.RunID) (*scaling.Study, error)
}
