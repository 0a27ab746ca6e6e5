// Package memory implements the result repository over in-process
// maps. It backs tests and the demo API/dashboard when no database is
// configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/domain/scaling"
	"qics/internal/errors"
	"qics/ports"
)

// ResultRepository is a mutex-guarded map store.
type ResultRepository struct {
	mu       sync.RWMutex
	runs     map[core.RunID]*run.Manifest
	galaxies map[core.RunID][]*galaxy.Result
	studies  map[core.RunID]*scaling.Study
}

// NewResultRepository creates an empty store.
func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		runs:     make(map[core.RunID]*run.Manifest),
		galaxies: make(map[core.RunID][]*galaxy.Result),
		studies:  make(map[core.RunID]*scaling.Study),
	}
}

// SaveRun upserts a manifest.
func (r *ResultRepository) SaveRun(ctx context.Context, manifest *run.Manifest) error {
	if err := manifest.Validate(); err != nil {
		return errors.Wrap(err, "invalid run manifest")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *manifest
	r.runs[manifest.RunID] = &copied
	return nil
}

// GetRun returns one manifest.
func (r *ResultRepository) GetRun(ctx context.Context, id core.RunID) (*run.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifest, ok := r.runs[id]
	if !ok {
		return nil, errors.NotFound("run " + id.String())
	}
	copied := *manifest
	return &copied, nil
}

// ListRuns returns all manifests, newest first.
func (r *ResultRepository) ListRuns(ctx context.Context) ([]*run.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*run.Manifest, 0, len(r.runs))
	for _, manifest := range r.runs {
		copied := *manifest
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].StartedAt.Before(out[i].StartedAt)
	})
	return out, nil
}

// SaveGalaxyResults replaces the stored results of a run.
func (r *ResultRepository) SaveGalaxyResults(ctx context.Context, runID core.RunID, results []*galaxy.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[runID]; !ok {
		return errors.NotFound("run " + runID.String())
	}
	copied := make([]*galaxy.Result, len(results))
	for i, res := range results {
		c := *res
		copied[i] = &c
	}
	r.galaxies[runID] = copied
	return nil
}

// ListGalaxyResults returns the stored results of a run.
func (r *ResultRepository) ListGalaxyResults(ctx context.Context, runID core.RunID) ([]*galaxy.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.runs[runID]; !ok {
		return nil, errors.NotFound("run " + runID.String())
	}
	stored := r.galaxies[runID]
	out := make([]*galaxy.Result, len(stored))
	for i, res := range stored {
		c := *res
		out[i] = &c
	}
	return out, nil
}

// SaveScalingStudy attaches a study to a run.
func (r *ResultRepository) SaveScalingStudy(ctx context.Context, runID core.RunID, study *scaling.Study) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[runID]; !ok {
		return errors.NotFound("run " + runID.String())
	}
	copied := *study
	r.studies[runID] = &copied
	return nil
}

// GetScalingStudy returns the study of a run.
func (r *ResultRepository) GetScalingStudy(ctx context.Context, runID core.RunID) (*scaling.Study, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	study, ok := r.studies[runID]
	if !ok {
		return nil, errors.NotFound("scaling study for run " + runID.String())
	}
	copied := *study
	return &copied, nil
}

var _ ports.ResultRepository = (*ResultRepository)(nil)
