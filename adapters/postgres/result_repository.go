// Package postgres implements the result repository over PostgreSQL.
// Array-shaped payloads (per-galaxy results, scaling studies) live in
// JSONB columns; the run manifest is flattened into queryable columns.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/domain/scaling"
	"qics/internal/errors"
	"qics/ports"

	"github.com/jmoiron/sqlx"
)

// ResultRepository is the sqlx-backed implementation.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a repository over an open connection.
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepository{db: db}
}

// SaveRun upserts the manifest row keyed by run ID.
func (r *ResultRepository) SaveRun(ctx context.Context, manifest *run.Manifest) error {
	if err := manifest.Validate(); err != nil {
		return errors.Wrap(err, "invalid run manifest")
	}

	payload, err := json.Marshal(manifest)
	if err != nil {
		return errors.StorageFailed("manifest marshal", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO runs (id, data_dir, pattern, seed, code_version, fingerprint, status,
			started_at, finished_at, manifest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			manifest = EXCLUDED.manifest
	`, manifest.RunID, manifest.DataDir, manifest.Pattern, manifest.Seed,
		manifest.CodeVersion, manifest.Fingerprint.Fingerprint, manifest.Status,
		manifest.StartedAt.Time(), nullableTime(manifest.FinishedAt), payload)
	if err != nil {
		return errors.StorageFailed("run upsert", err)
	}
	return nil
}

// GetRun loads one manifest.
func (r *ResultRepository) GetRun(ctx context.Context, id core.RunID) (*run.Manifest, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `SELECT manifest FROM runs WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("run " + id.String())
	}
	if err != nil {
		return nil, errors.StorageFailed("run load", err)
	}

	var manifest run.Manifest
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return nil, errors.StorageFailed("manifest unmarshal", err)
	}
	return &manifest, nil
}

// ListRuns loads all manifests, newest first.
func (r *ResultRepository) ListRuns(ctx context.Context) ([]*run.Manifest, error) {
	var payloads [][]byte
	err := r.db.SelectContext(ctx, &payloads, `SELECT manifest FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, errors.StorageFailed("run list", err)
	}

	out := make([]*run.Manifest, 0, len(payloads))
	for _, payload := range payloads {
		var manifest run.Manifest
		if err := json.Unmarshal(payload, &manifest); err != nil {
			return nil, errors.StorageFailed("manifest unmarshal", err)
		}
		out = append(out, &manifest)
	}
	return out, nil
}

// SaveGalaxyResults replaces the per-galaxy rows of a run.
func (r *ResultRepository) SaveGalaxyResults(ctx context.Context, runID core.RunID, results []*galaxy.Result) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.StorageFailed("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM galaxy_results WHERE run_id = $1`, runID); err != nil {
		return errors.StorageFailed("galaxy results delete", err)
	}

	for _, result := range results {
		payload, err := json.Marshal(result)
		if err != nil {
			return errors.StorageFailed("galaxy result marshal", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO galaxy_results (run_id, galaxy_id, phase, phase_metric, result)
			VALUES ($1, $2, $3, $4, $5)
		`, runID, result.GalaxyID, result.Phase, result.PhaseMetric, payload)
		if err != nil {
			return errors.StorageFailed("galaxy result insert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageFailed("commit", err)
	}
	return nil
}

// ListGalaxyResults loads the per-galaxy rows of a run.
func (r *ResultRepository) ListGalaxyResults(ctx context.Context, runID core.RunID) ([]*galaxy.Result, error) {
	var payloads [][]byte
	err := r.db.SelectContext(ctx, &payloads, `
		SELECT result FROM galaxy_results WHERE run_id = $1 ORDER BY galaxy_id
	`, runID)
	if err != nil {
		return nil, errors.StorageFailed("galaxy results load", err)
	}

	out := make([]*galaxy.Result, 0, len(payloads))
	for _, payload := range payloads {
		var result galaxy.Result
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, errors.StorageFailed("galaxy result unmarshal", err)
		}
		out = append(out, &result)
	}
	return out, nil
}

// SaveScalingStudy upserts the study attached to a run.
func (r *ResultRepository) SaveScalingStudy(ctx context.Context, runID core.RunID, study *scaling.Study) error {
	payload, err := json.Marshal(study)
	if err != nil {
		return errors.StorageFailed("study marshal", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scaling_studies (run_id, study_id, created_at, study)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id) DO UPDATE SET
			study_id = EXCLUDED.study_id,
			created_at = EXCLUDED.created_at,
			study = EXCLUDED.study
	`, runID, study.StudyID, study.CreatedAt.Time(), payload)
	if err != nil {
		return errors.StorageFailed("study upsert", err)
	}
	return nil
}

// GetScalingStudy loads the study attached to a run.
func (r *ResultRepository) GetScalingStudy(ctx context.Context, runID core.RunID) (*scaling.Study, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `SELECT study FROM scaling_studies WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("scaling study for run " + runID.String())
	}
	if err != nil {
		return nil, errors.StorageFailed("study load", err)
	}

	var study scaling.Study
	if err := json.Unmarshal(payload, &study); err != nil {
		return nil, errors.StorageFailed("study unmarshal", err)
	}
	return &study, nil
}

func nullableTime(t core.Timestamp) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Time()
}
