// Package event implements the lifecycle event model and the fan-out
// broadcaster that delivers events to connected observers.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies a lifecycle event type.
type Kind string

const (
	KindJobQueued    Kind = "job_queued"
	KindJobRunning   Kind = "job_running"
	KindJobCompleted Kind = "job_completed"
	KindJobFailed    Kind = "job_failed"
	KindHeartbeat    Kind = "heartbeat"
)

// Event is an immutable lifecycle record. Events are fanned out by
// value and never mutated after creation.
type Event struct {
	Kind      Kind           `json:"event"`
	JobID     string         `json:"job_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewJobEvent builds an event tied to a conversion job.
func NewJobEvent(kind Kind, jobID uuid.UUID, data map[string]any) Event {
	return Event{
		Kind:      kind,
		JobID:     jobID.String(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// NewHeartbeat builds a synthetic liveness event with no job
// association.
func NewHeartbeat() Event {
	return Event{
		Kind:      KindHeartbeat,
		Timestamp: time.Now().UTC(),
	}
}
