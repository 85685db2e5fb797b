package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/docpivot/docpivot/internal/event"
	"github.com/docpivot/docpivot/internal/observability"
)

// EventsHandler streams job lifecycle events over server-sent events.
type EventsHandler struct {
	logger      *observability.Logger
	broadcaster *event.Broadcaster
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(logger *observability.Logger, broadcaster *event.Broadcaster) *EventsHandler {
	return &EventsHandler{
		logger:      logger,
		broadcaster: broadcaster,
	}
}

// Stream handles GET /events. The connection stays open until the
// client disconnects or the broadcaster shuts the subscriber down.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	sub, err := h.broadcaster.Subscribe()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "too many subscribers", err.Error())
		return
	}
	defer h.broadcaster.Unsubscribe(sub.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug().Str("subscriber_id", sub.ID.String()).Msg("Event stream opened")

	ctx := r.Context()
	var seq uint64
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().Str("subscriber_id", sub.ID.String()).Msg("Event stream closed")
			return

		case ev, open := <-sub.Events():
			if !open {
				// Forced unsubscribe or broadcaster shutdown.
				return
			}

			// A slow reader may have dropped events; tell the client
			// about the gap before the next event.
			if missed := sub.TakeMissed(); missed > 0 {
				fmt.Fprintf(w, ": missed %d events\n\n", missed)
			}

			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to encode event")
				continue
			}
			seq++
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Kind, data)
			flusher.Flush()
			sub.Touch()
		}
	}
}
