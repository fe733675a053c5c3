package core

import "time"

// RunStatus is the outcome of a pipeline run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the ledger entry of one pipeline run.
type RunRecord struct {
	ID                string    `json:"id"`
	Trigger           string    `json:"trigger"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	Status            RunStatus `json:"status"`
	InputRows         int       `json:"input_rows"`
	CleanRows         int       `json:"clean_rows"`
	DuplicatesRemoved int       `json:"duplicates_removed"`
	Error             string    `json:"error,omitempty"`
}

// Duration is the wall time of the run.
func (r RunRecord) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
