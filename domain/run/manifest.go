package run

import (
	"qics/domain/core"
	"qics/domain/galaxy"
)

// Manifest records the complete specification and outcome of a batch
// analysis run. It is the truth source for replay: the fingerprint
// must be stored before any per-galaxy results.
type Manifest struct {
	RunID       core.RunID       `json:"run_id"`
	DataDir     string           `json:"data_dir"`
	Pattern     string           `json:"pattern"`
	DatasetHash core.DatasetHash `json:"dataset_hash"`
	ConfigHash  core.ConfigHash  `json:"config_hash"`
	Seed        int64            `json:"seed"`
	CodeVersion string           `json:"code_version"`
	Fingerprint Fingerprint      `json:"fingerprint"`

	Status         Status        `json:"status"`
	FilesSeen      int           `json:"files_seen"`
	FilesSkipped   int           `json:"files_skipped"`
	GalaxiesTotal  int           `json:"galaxies_total"`
	Census         galaxy.Census `json:"census"`
	SkippedSources []string      `json:"skipped_sources,omitempty"`

	StartedAt  core.Timestamp `json:"started_at"`
	FinishedAt core.Timestamp `json:"finished_at,omitempty"`
}

// NewManifest creates a manifest for a run that is about to start.
func NewManifest(runID core.RunID, dataDir, pattern string,
	datasetHash core.DatasetHash, configHash core.ConfigHash,
	seed int64, codeVersion string) *Manifest {

	return &Manifest{
		RunID:       runID,
		DataDir:     dataDir,
		Pattern:     pattern,
		DatasetHash: datasetHash,
		ConfigHash:  configHash,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: NewFingerprint(datasetHash, configHash, seed, codeVersion),
		Status:      StatusRunning,
		StartedAt:   core.Now(),
	}
}

// MarkCompleted finalizes the manifest with run totals.
func (m *Manifest) MarkCompleted(census galaxy.Census) {
	m.Status = StatusCompleted
	m.Census = census
	m.GalaxiesTotal = census.Total
	m.FinishedAt = core.Now()
}

// MarkFailed finalizes the manifest after an unrecoverable error.
func (m *Manifest) MarkFailed() {
	m.Status = StatusFailed
	m.FinishedAt = core.Now()
}

// RecordSkip notes a source file that could not be loaded.
func (m *Manifest) RecordSkip(source string) {
	m.FilesSkipped++
	m.SkippedSources = append(m.SkippedSources, source)
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewMissingColumnError("run_id", "run manifest")
	}
	if m.DatasetHash == "" {
		return core.NewMissingColumnError("dataset_hash", "run manifest")
	}
	if m.ConfigHash == "" {
		return core.NewMissingColumnError("config_hash", "run manifest")
	}
	if m.CodeVersion == "" {
		return core.NewMissingColumnError("code_version", "run manifest")
	}
	return nil
}
