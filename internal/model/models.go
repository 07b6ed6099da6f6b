package model

import "time"

// Run statuses.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunError   = "error"
)

// Run records one CLI operation against the vault.
type Run struct {
	ID         string     // UUID
	Operation  string     // "seal", "open", "verify"
	Source     string     // input path or bundle id
	BundleID   string     // bundle written or read, if any
	Status     string     // RunRunning, RunSuccess or RunError
	Detail     string     // error message on failure
	Length     int64      // plaintext length in bytes
	Blocks     int        // number of ciphertext blocks
	StartedAt  time.Time
	FinishedAt *time.Time // nil while running
}

// Finished reports whether the run has completed.
func (r *Run) Finished() bool {
	return r.FinishedAt != nil
}
