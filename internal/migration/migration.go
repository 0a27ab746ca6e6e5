package migration

import (
	"context"

	"qics/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create runs table")
	}

	if err := r.createGalaxyResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create galaxy_results table")
	}

	if err := r.createScalingStudiesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create scaling_studies table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			data_dir TEXT NOT NULL,
			pattern TEXT NOT NULL,
			seed BIGINT NOT NULL,
			code_version VARCHAR(50) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'running',
			started_at TIMESTAMP WITH TIME ZONE NOT NULL,
			finished_at TIMESTAMP WITH TIME ZONE,
			manifest JSONB NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createGalaxyResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS galaxy_results (
			run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			galaxy_id VARCHAR(100) NOT NULL,
			phase VARCHAR(20) NOT NULL,
			phase_metric DOUBLE PRECISION NOT NULL,
			result JSONB NOT NULL,
			PRIMARY KEY (run_id, galaxy_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createScalingStudiesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scaling_studies (
			run_id UUID PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
			study_id UUID NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			study JSONB NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);
		CREATE INDEX IF NOT EXISTS idx_galaxy_results_phase ON galaxy_results(phase)
	`)
	return err
}
