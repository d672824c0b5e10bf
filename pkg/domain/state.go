package domain

import (
	"errors"
	"time"
)

// Status is the lifecycle position of a simulation run.
type Status string

const (
	StatusRunning  Status = "running"  // Rules may still fire
	StatusHalted   Status = "halted"   // No rule applies; result is final
	StatusDiverged Status = "diverged" // Loop detection stopped the run
	StatusFailed   Status = "failed"   // Overflow, step limit or cancellation
)

// Result is the outcome of a completed run.
type Result struct {
	// Final is the multiset once no rule applies.
	Final Multiset `json:"final"`

	// Steps counts the steps in which at least one rule fired.
	Steps int `json:"steps"`

	// Applications counts individual rule applications over the whole run.
	Applications uint64 `json:"applications"`

	Status Status `json:"status"`

	// RunID identifies the stored RunRecord, when the run was recorded.
	RunID string `json:"run_id,omitempty"`
}

// RunRecord is the persisted summary of one simulation.
type RunRecord struct {
	ID          string    `json:"id"`
	Rules       []string  `json:"rules"`
	Initial     Multiset  `json:"initial"`
	Final       Multiset  `json:"final"`
	Steps       int       `json:"steps"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	DetectLoops bool      `json:"detect_loops"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	// Sealed holds the encrypted record when the store encrypts at rest.
	// Only ID, Status and the timestamps stay readable alongside it.
	Sealed []byte `json:"sealed,omitempty"`
}

// StatusOf classifies the error returned by a run.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusHalted
	case errors.Is(err, ErrDivergence):
		return StatusDiverged
	default:
		return StatusFailed
	}
}
