package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/docpivot/docpivot/internal/convert"
	"github.com/docpivot/docpivot/internal/event"
	"github.com/docpivot/docpivot/internal/format"
	"github.com/docpivot/docpivot/internal/observability"
)

// Rejection reasons. A rejected request never becomes a job and never
// produces an event.
var (
	ErrInvalidFormat         = errors.New("invalid_format")
	ErrPayloadTooLarge       = errors.New("payload_too_large")
	ErrUnsupportedConversion = errors.New("unsupported_conversion")
)

// RejectionReason maps a Submit error to its wire-level reason string,
// or "" if the error is not a rejection.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return ErrInvalidFormat.Error()
	case errors.Is(err, ErrPayloadTooLarge):
		return ErrPayloadTooLarge.Error()
	case errors.Is(err, ErrUnsupportedConversion):
		return ErrUnsupportedConversion.Error()
	}
	return ""
}

// EngineConfig holds job engine settings.
type EngineConfig struct {
	MaxPayloadBytes   int64
	Timeout           time.Duration
	MaxConcurrentJobs int
	RetentionWindow   time.Duration
	EvictInterval     time.Duration
}

// DefaultEngineConfig returns default engine settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxPayloadBytes:   50 * 1024 * 1024,
		Timeout:           5 * time.Minute,
		MaxConcurrentJobs: 10,
		RetentionWindow:   time.Hour,
		EvictInterval:     time.Minute,
	}
}

// Engine orchestrates conversions: it validates requests, resolves
// conversion paths, drives jobs through the converter registry, and
// emits lifecycle events. Conversion execution and event delivery run
// on independent scheduling paths.
type Engine struct {
	logger      *observability.Logger
	store       *Store
	graph       *format.Graph
	registry    *convert.Registry
	broadcaster *event.Broadcaster
	sem         *semaphore.Weighted
	cfg         EngineConfig
}

// NewEngine creates a job engine. Zero config fields fall back to
// defaults.
func NewEngine(
	logger *observability.Logger,
	store *Store,
	graph *format.Graph,
	registry *convert.Registry,
	broadcaster *event.Broadcaster,
	cfg EngineConfig,
) *Engine {
	def := DefaultEngineConfig()
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = def.MaxPayloadBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = def.MaxConcurrentJobs
	}
	if cfg.RetentionWindow <= 0 {
		cfg.RetentionWindow = def.RetentionWindow
	}
	if cfg.EvictInterval <= 0 {
		cfg.EvictInterval = def.EvictInterval
	}

	return &Engine{
		logger:      logger.WithComponent("engine"),
		store:       store,
		graph:       graph,
		registry:    registry,
		broadcaster: broadcaster,
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrentJobs)),
		cfg:         cfg,
	}
}

// Submit validates a conversion request and, if accepted, creates a
// queued job and starts executing it asynchronously. The returned
// snapshot reflects the job at creation time. Rejections are reported
// through the Err* sentinels; no job or event is produced for them.
func (e *Engine) Submit(ctx context.Context, source, target string, payload []byte) (Job, error) {
	src, err := format.Parse(source)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	tgt, err := format.Parse(target)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if int64(len(payload)) > e.cfg.MaxPayloadBytes {
		return Job{}, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			ErrPayloadTooLarge, len(payload), e.cfg.MaxPayloadBytes)
	}

	path, ok := e.graph.Path(src, tgt)
	if !ok {
		return Job{}, fmt.Errorf("%w: no conversion path from %s to %s",
			ErrUnsupportedConversion, src, tgt)
	}

	j := e.store.Create(src, tgt, payload)
	e.logger.Info().
		Str("job_id", j.ID.String()).
		Str("source", string(src)).
		Str("target", string(tgt)).
		Int("hops", len(path)).
		Int("payload_bytes", len(payload)).
		Msg("Accepted conversion job")

	e.broadcaster.Publish(event.NewJobEvent(event.KindJobQueued, j.ID, map[string]any{
		"source_format": string(src),
		"target_format": string(tgt),
	}))

	go e.run(j.ID, path, payload)

	return j, nil
}

// Status returns a snapshot of the job, or ErrNotFound.
func (e *Engine) Status(id uuid.UUID) (Job, error) {
	return e.store.Get(id)
}

// Wait polls until the job reaches a terminal status or the context is
// cancelled, returning the final snapshot.
func (e *Engine) Wait(ctx context.Context, id uuid.UUID) (Job, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		j, err := e.store.Get(id)
		if err != nil {
			return Job{}, err
		}
		if j.Status.Terminal() {
			return j, nil
		}
		select {
		case <-ctx.Done():
			return j, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Formats returns the supported formats in listing order.
func (e *Engine) Formats() []format.Format {
	return format.All()
}

// run executes one job: it waits for a concurrency slot, walks the
// conversion path threading the intermediate result forward, and
// records the terminal state. Events are published only after the
// corresponding store transition has been applied, so a racing status
// query always observes a state at least as advanced as the event.
func (e *Engine) run(id uuid.UUID, path []format.Hop, payload []byte) {
	// Excess submissions queue here rather than spawning unbounded
	// concurrent work.
	if err := e.sem.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer e.sem.Release(1)

	logger := e.logger.WithJob(id.String())

	if _, err := e.store.Transition(id, StatusRunning, nil, nil); err != nil {
		logger.Error().Err(err).Msg("Job vanished before execution")
		return
	}
	e.broadcaster.Publish(event.NewJobEvent(event.KindJobRunning, id, map[string]any{
		"progress": 0.0,
	}))

	type outcome struct {
		result []byte
		err    error
	}
	done := make(chan outcome, 1)
	started := time.Now()

	go func() {
		defer func() {
			// A panicking converter fails the job, never the engine.
			if r := recover(); r != nil {
				done <- outcome{err: &convert.Error{
					Kind:    convert.KindInternalError,
					Message: fmt.Sprintf("converter panic: %v", r),
				}}
			}
		}()

		out := payload
		for i, hop := range path {
			var err error
			out, err = e.registry.Convert(hop.From, hop.To, out)
			if err != nil {
				done <- outcome{err: err}
				return
			}
			// Fractional progress stays below 1 until the terminal
			// transition records completion.
			e.store.SetProgress(id, float64(i+1)/float64(len(path)+1))
		}
		done <- outcome{result: out}
	}()

	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()

	select {
	case oc := <-done:
		if oc.err != nil {
			e.fail(logger, id, convert.AsError(oc.err))
			return
		}
		if _, err := e.store.Transition(id, StatusCompleted, oc.result, nil); err != nil {
			logger.Error().Err(err).Msg("Failed to record completion")
			return
		}
		e.broadcaster.Publish(event.NewJobEvent(event.KindJobCompleted, id, map[string]any{
			"progress": 1.0,
		}))
		logger.Info().
			Dur("duration", time.Since(started)).
			Int("result_bytes", len(oc.result)).
			Msg("Conversion completed")

	case <-timer.C:
		// The converter goroutine is abandoned, not killed; the job is
		// terminal regardless so queries return promptly.
		e.fail(logger, id, &convert.Error{
			Kind:    convert.ErrorKind(FailureTimeout),
			Message: fmt.Sprintf("conversion exceeded %s", e.cfg.Timeout),
		})
	}
}

// fail records a failed terminal state and emits the matching event.
func (e *Engine) fail(logger *observability.Logger, id uuid.UUID, ce *convert.Error) {
	failure := &Failure{Kind: string(ce.Kind), Message: ce.Message}
	if _, err := e.store.Transition(id, StatusFailed, nil, failure); err != nil {
		logger.Error().Err(err).Msg("Failed to record failure")
		return
	}
	e.broadcaster.Publish(event.NewJobEvent(event.KindJobFailed, id, map[string]any{
		"kind":    failure.Kind,
		"message": failure.Message,
	}))
	logger.Warn().
		Str("kind", failure.Kind).
		Str("reason", failure.Message).
		Msg("Conversion failed")
}

// RunJanitor evicts expired jobs on a fixed interval until the context
// is cancelled. Only terminal and still-queued jobs past the retention
// window are removed; running jobs are left alone.
func (e *Engine) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.EvictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.store.EvictExpired(time.Now(), e.cfg.RetentionWindow)
		}
	}
}
