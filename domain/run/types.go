package run

import (
	"crypto/sha256"
	"fmt"

	"qics/domain/core"
)

// Fingerprint ensures deterministic replay: two runs over the same
// data with the same configuration and seed carry the same fingerprint.
type Fingerprint struct {
	DatasetHash core.DatasetHash `json:"dataset_hash"`
	ConfigHash  core.ConfigHash  `json:"config_hash"`
	Seed        int64            `json:"seed"`
	CodeVersion string           `json:"code_version"`
	Fingerprint core.Hash        `json:"fingerprint"` // Hash of all above
}

// NewFingerprint creates a fingerprint from determinism parameters
func NewFingerprint(datasetHash core.DatasetHash, configHash core.ConfigHash,
	seed int64, codeVersion string) Fingerprint {

	fingerprint := computeFingerprint(datasetHash, configHash, seed, codeVersion)

	return Fingerprint{
		DatasetHash: datasetHash,
		ConfigHash:  configHash,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: fingerprint,
	}
}

// computeFingerprint generates deterministic hash from all determinism parameters
func computeFingerprint(datasetHash core.DatasetHash, configHash core.ConfigHash,
	seed int64, codeVersion string) core.Hash {

	data := fmt.Sprintf("dataset:%s|config:%s|seed:%d|code:%s",
		datasetHash, configHash, seed, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// Status tracks a run through its lifecycle.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)
