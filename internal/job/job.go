// Package job implements the conversion job state machine: the
// in-memory job store and the engine that drives jobs from submission
// to a terminal status.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/docpivot/docpivot/internal/format"
)

// Status is a conversion job's lifecycle state. Transitions are
// monotonic: queued -> running -> {completed | failed}.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank orders statuses so monotonicity can be asserted numerically.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusRunning:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

// FailureTimeout is the failure kind for jobs that exceeded the
// configured maximum duration. The remaining kinds come from the
// converter taxonomy in the convert package.
const FailureTimeout = "timeout"

// Failure describes why a job ended in StatusFailed.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Job is one conversion request tracked end to end. Values handed out
// by the store are snapshots; only the engine mutates job state, and
// only through Store.Transition.
type Job struct {
	ID        uuid.UUID     `json:"id"`
	Source    format.Format `json:"source_format"`
	Target    format.Format `json:"target_format"`
	Payload   []byte        `json:"-"`
	Status    Status        `json:"status"`
	Progress  float64       `json:"progress"`
	Result    []byte        `json:"-"`
	Failure   *Failure      `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
