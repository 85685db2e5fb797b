package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpivot/docpivot/internal/convert"
	"github.com/docpivot/docpivot/internal/event"
	"github.com/docpivot/docpivot/internal/format"
	"github.com/docpivot/docpivot/internal/observability"
)

type engineFixture struct {
	engine      *Engine
	store       *Store
	broadcaster *event.Broadcaster
}

func newEngineFixture(t *testing.T, cfg EngineConfig) *engineFixture {
	t.Helper()
	logger := observability.Nop()
	store := NewStore(logger)
	broadcaster := event.NewBroadcaster(logger, event.DefaultConfig())
	engine := NewEngine(logger, store, format.NewGraph(), convert.NewRegistry(), broadcaster, cfg)
	return &engineFixture{engine: engine, store: store, broadcaster: broadcaster}
}

// collectUntilTerminal drains the subscriber until a terminal event for
// the given job arrives, filtering out events for other jobs.
func collectUntilTerminal(t *testing.T, sub *event.Subscriber, jobID string) []event.Event {
	t.Helper()
	var events []event.Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-sub.Events():
			if ev.JobID != jobID {
				continue
			}
			events = append(events, ev)
			if ev.Kind == event.KindJobCompleted || ev.Kind == event.KindJobFailed {
				return events
			}
		case <-deadline:
			t.Fatalf("no terminal event for job %s, got %d events so far", jobID, len(events))
		}
	}
}

func TestEngineMarkdownToHTMLCompletes(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{})
	sub, err := fix.broadcaster.Subscribe()
	require.NoError(t, err)
	defer fix.broadcaster.Unsubscribe(sub.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	j, err := fix.engine.Submit(ctx, "markdown", "html", []byte("# Hello\n\nWorld"))
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, j.Status)

	final, err := fix.engine.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Contains(t, string(final.Result), "<h1>Hello</h1>")
	assert.Contains(t, string(final.Result), "<p>World</p>")
	assert.Nil(t, final.Failure)

	events := collectUntilTerminal(t, sub, j.ID.String())
	require.Len(t, events, 3)
	assert.Equal(t, event.KindJobQueued, events[0].Kind)
	assert.Equal(t, "markdown", events[0].Data["source_format"])
	assert.Equal(t, "html", events[0].Data["target_format"])
	assert.Equal(t, event.KindJobRunning, events[1].Kind)
	assert.Equal(t, event.KindJobCompleted, events[2].Kind)
}

func TestEngineAcceptsAliases(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{})
	ctx := context.Background()

	j, err := fix.engine.Submit(ctx, "md", "htm", []byte("*hi*"))
	require.NoError(t, err)

	final, err := fix.engine.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, format.Markdown, final.Source)
	assert.Equal(t, format.HTML, final.Target)
}

func TestEngineIdentityConversionPassesThrough(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{})
	ctx := context.Background()

	payload := []byte("unchanged content")
	j, err := fix.engine.Submit(ctx, "text", "text", payload)
	require.NoError(t, err)

	final, err := fix.engine.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, payload, final.Result)
}

func TestEngineRejectsInvalidFormat(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{})
	sub, err := fix.broadcaster.Subscribe()
	require.NoError(t, err)
	defer fix.broadcaster.Unsubscribe(sub.ID)

	_, err = fix.engine.Submit(context.Background(), "xml", "html", []byte("<a/>"))
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, "invalid_format", RejectionReason(err))

	_, err = fix.engine.Submit(context.Background(), "text", "rtf", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.Equal(t, 0, fix.store.Len(), "rejected requests must not create jobs")
	select {
	case ev := <-sub.Events():
		t.Fatalf("rejected request published event %q", ev.Kind)
	default:
	}
}

func TestEngineRejectsOversizedPayload(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{MaxPayloadBytes: 16})

	_, err := fix.engine.Submit(context.Background(), "text", "html", make([]byte, 17))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Equal(t, "payload_too_large", RejectionReason(err))
	assert.Equal(t, 0, fix.store.Len())
}

func TestEngineRejectsUnsupportedConversion(t *testing.T) {
	logger := observability.Nop()
	store := NewStore(logger)
	broadcaster := event.NewBroadcaster(logger, event.DefaultConfig())

	// A graph with a single edge leaves every other pair unreachable.
	var graph format.Graph
	graph.AddEdge(format.Text, format.HTML)

	engine := NewEngine(logger, store, &graph, convert.NewRegistry(), broadcaster, EngineConfig{})

	_, err := engine.Submit(context.Background(), "pdf", "docx", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedConversion)
	assert.Equal(t, "unsupported_conversion", RejectionReason(err))
	assert.Equal(t, 0, store.Len())
}

func TestEngineMalformedInputFailsJob(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{})
	sub, err := fix.broadcaster.Subscribe()
	require.NoError(t, err)
	defer fix.broadcaster.Unsubscribe(sub.ID)

	ctx := context.Background()
	j, err := fix.engine.Submit(ctx, "pdf", "text", []byte("this is not a pdf"))
	require.NoError(t, err, "malformed payloads are accepted and fail during execution")

	final, err := fix.engine.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, final.Status)
	require.NotNil(t, final.Failure)
	assert.Equal(t, string(convert.KindMalformedInput), final.Failure.Kind)
	assert.NotEmpty(t, final.Failure.Message)

	events := collectUntilTerminal(t, sub, j.ID.String())
	last := events[len(events)-1]
	assert.Equal(t, event.KindJobFailed, last.Kind)
	assert.Equal(t, string(convert.KindMalformedInput), last.Data["kind"])
}

func TestEngineTimeoutFailsJob(t *testing.T) {
	logger := observability.Nop()
	store := NewStore(logger)
	broadcaster := event.NewBroadcaster(logger, event.DefaultConfig())

	registry := convert.NewRegistry()
	registry.Register(format.Text, format.HTML, func(payload []byte) ([]byte, error) {
		time.Sleep(500 * time.Millisecond)
		return payload, nil
	})

	engine := NewEngine(logger, store, format.NewGraph(), registry, broadcaster,
		EngineConfig{Timeout: 30 * time.Millisecond})

	ctx := context.Background()
	j, err := engine.Submit(ctx, "text", "html", []byte("slow"))
	require.NoError(t, err)

	final, err := engine.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, final.Status)
	require.NotNil(t, final.Failure)
	assert.Equal(t, FailureTimeout, final.Failure.Kind)
}

func TestEngineConverterPanicFailsJob(t *testing.T) {
	logger := observability.Nop()
	store := NewStore(logger)
	broadcaster := event.NewBroadcaster(logger, event.DefaultConfig())

	registry := convert.NewRegistry()
	registry.Register(format.Text, format.HTML, func(payload []byte) ([]byte, error) {
		panic("converter bug")
	})

	engine := NewEngine(logger, store, format.NewGraph(), registry, broadcaster, EngineConfig{})

	ctx := context.Background()
	j, err := engine.Submit(ctx, "text", "html", []byte("boom"))
	require.NoError(t, err)

	final, err := engine.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, final.Status)
	require.NotNil(t, final.Failure)
	assert.Equal(t, string(convert.KindInternalError), final.Failure.Kind)
	assert.Contains(t, final.Failure.Message, "converter bug")
}

func TestEngineMultiHopConversion(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{})
	ctx := context.Background()

	// markdown -> pdf has no direct converter; it pivots through html.
	j, err := fix.engine.Submit(ctx, "markdown", "pdf", []byte("# Title\n\nBody text."))
	require.NoError(t, err)

	final, err := fix.engine.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.True(t, len(final.Result) > 4 && string(final.Result[:4]) == "%PDF")
}

func TestEngineProgressAdvancesPerHop(t *testing.T) {
	logger := observability.Nop()
	store := NewStore(logger)
	broadcaster := event.NewBroadcaster(logger, event.DefaultConfig())

	var graph format.Graph
	graph.AddEdge(format.Text, format.HTML)
	graph.AddEdge(format.HTML, format.PDF)

	// The second hop blocks until released so the mid-flight snapshot
	// is deterministic.
	secondHopStarted := make(chan struct{})
	release := make(chan struct{})
	registry := convert.NewRegistry()
	registry.Register(format.Text, format.HTML, func(payload []byte) ([]byte, error) {
		return payload, nil
	})
	registry.Register(format.HTML, format.PDF, func(payload []byte) ([]byte, error) {
		close(secondHopStarted)
		<-release
		return payload, nil
	})

	engine := NewEngine(logger, store, &graph, registry, broadcaster, EngineConfig{})

	ctx := context.Background()
	j, err := engine.Submit(ctx, "text", "pdf", []byte("x"))
	require.NoError(t, err)

	select {
	case <-secondHopStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("second hop never started")
	}

	mid, err := engine.Status(j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, mid.Status)
	assert.InDelta(t, 1.0/3, mid.Progress, 0.001, "one of two hops done")

	close(release)
	final, err := engine.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, 1.0, final.Progress)
}

func TestEngineConcurrentJobsEmitOrderedEvents(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{})
	sub, err := fix.broadcaster.Subscribe()
	require.NoError(t, err)
	defer fix.broadcaster.Unsubscribe(sub.ID)

	ctx := context.Background()
	a, err := fix.engine.Submit(ctx, "text", "html", []byte("first"))
	require.NoError(t, err)
	b, err := fix.engine.Submit(ctx, "markdown", "html", []byte("second"))
	require.NoError(t, err)

	finalA, err := fix.engine.Wait(ctx, a.ID)
	require.NoError(t, err)
	finalB, err := fix.engine.Wait(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, finalA.Status)
	assert.Equal(t, StatusCompleted, finalB.Status)

	perJob := map[string][]event.Kind{}
	deadline := time.After(5 * time.Second)
	for len(perJob[a.ID.String()]) < 3 || len(perJob[b.ID.String()]) < 3 {
		select {
		case ev := <-sub.Events():
			if ev.JobID != "" {
				perJob[ev.JobID] = append(perJob[ev.JobID], ev.Kind)
			}
		case <-deadline:
			t.Fatal("did not receive full event sequences for both jobs")
		}
	}

	expected := []event.Kind{event.KindJobQueued, event.KindJobRunning, event.KindJobCompleted}
	assert.Equal(t, expected, perJob[a.ID.String()])
	assert.Equal(t, expected, perJob[b.ID.String()])
}

func TestEngineWaitUnknownJob(t *testing.T) {
	fix := newEngineFixture(t, EngineConfig{})

	_, err := fix.engine.Wait(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngineWaitHonorsContext(t *testing.T) {
	logger := observability.Nop()
	store := NewStore(logger)
	broadcaster := event.NewBroadcaster(logger, event.DefaultConfig())

	registry := convert.NewRegistry()
	registry.Register(format.Text, format.HTML, func(payload []byte) ([]byte, error) {
		time.Sleep(2 * time.Second)
		return payload, nil
	})

	engine := NewEngine(logger, store, format.NewGraph(), registry, broadcaster, EngineConfig{})

	j, err := engine.Submit(context.Background(), "text", "html", []byte("x"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	snap, err := engine.Wait(ctx, j.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, snap.Status.Terminal())
}

func TestRejectionReasonUnknownError(t *testing.T) {
	assert.Equal(t, "", RejectionReason(context.Canceled))
	assert.Equal(t, "", RejectionReason(nil))
}
