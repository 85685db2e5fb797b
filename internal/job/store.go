package job

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docpivot/docpivot/internal/format"
	"github.com/docpivot/docpivot/internal/observability"
)

var (
	// ErrNotFound is returned for lookups of unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned when a status change would
	// violate the queued -> running -> terminal order. It indicates a
	// programming error and is never surfaced to clients.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// record pairs a job with its own mutex so transitions on one job
// never serialize against transitions on another.
type record struct {
	mu  sync.Mutex
	job Job
}

// Store is the in-memory conversion job table. State lives for the
// process lifetime only.
type Store struct {
	logger *observability.Logger

	mu   sync.RWMutex
	jobs map[uuid.UUID]*record
}

// NewStore creates an empty job store.
func NewStore(logger *observability.Logger) *Store {
	return &Store{
		logger: logger.WithComponent("jobstore"),
		jobs:   make(map[uuid.UUID]*record),
	}
}

// Create registers a new queued job and returns its snapshot.
func (s *Store) Create(source, target format.Format, payload []byte) Job {
	now := time.Now().UTC()
	j := Job{
		ID:        uuid.New(),
		Source:    source,
		Target:    target,
		Payload:   payload,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[j.ID] = &record{job: j}
	s.mu.Unlock()

	return j
}

// Get returns a snapshot of the job, or ErrNotFound.
func (s *Store) Get(id uuid.UUID) (Job, error) {
	s.mu.RLock()
	rec, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return Job{}, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job, nil
}

// Transition atomically moves a job to a new status. result is stored
// on StatusCompleted, failure on StatusFailed. Transitions that do not
// follow queued -> running -> terminal are rejected with
// ErrInvalidTransition and leave the record untouched.
func (s *Store) Transition(id uuid.UUID, to Status, result []byte, failure *Failure) (Job, error) {
	s.mu.RLock()
	rec, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return Job{}, ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	from := rec.job.Status
	if !validTransition(from, to) {
		s.logger.Error().
			Str("job_id", id.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("Rejected invalid status transition")
		return Job{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	rec.job.Status = to
	rec.job.UpdatedAt = time.Now().UTC()
	switch to {
	case StatusCompleted:
		rec.job.Result = result
		rec.job.Progress = 1
		// The input payload is no longer needed once the job is done.
		rec.job.Payload = nil
	case StatusFailed:
		rec.job.Failure = failure
		rec.job.Payload = nil
	}

	return rec.job, nil
}

// SetProgress records fractional completion for a running job. Updates
// on jobs that are not running are ignored; a hop may finish after the
// job already timed out.
func (s *Store) SetProgress(id uuid.UUID, progress float64) {
	s.mu.RLock()
	rec, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status != StatusRunning {
		return
	}
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	rec.job.Progress = progress
	rec.job.UpdatedAt = time.Now().UTC()
}

// validTransition enforces the monotonic state machine: only
// queued -> running and running -> terminal are legal.
func validTransition(from, to Status) bool {
	switch from {
	case StatusQueued:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	}
	return false
}

// EvictExpired removes jobs whose last update is older than the
// retention window and returns how many were removed. Running jobs are
// never evicted, however old.
func (s *Store) EvictExpired(now time.Time, retention time.Duration) int {
	cutoff := now.Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.jobs {
		rec.mu.Lock()
		expired := rec.job.Status != StatusRunning && rec.job.UpdatedAt.Before(cutoff)
		rec.mu.Unlock()
		if expired {
			delete(s.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Evicted expired jobs")
	}
	return removed
}

// Len returns the number of jobs currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
