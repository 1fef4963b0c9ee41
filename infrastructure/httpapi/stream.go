package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"messenger-lab/sink"
)

const heartbeatInterval = 25 * time.Second

// Events is the realtime channel: a Server-Sent Events stream carrying
// message, reaction, deletion, typing, and presence events. Connecting
// registers the session (last-connection-wins) and broadcasts
// presence-online; the deferred disconnect broadcasts presence-offline
// unless a newer connection already took over.
//
// Delivery is best-effort. A client that missed events resynchronizes by
// fetching history, never by replay.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream := sink.NewStream(h.bufferSize)
	if superseded := h.chat.Connect(user, stream); superseded != nil {
		if old, ok := superseded.(*sink.Stream); ok {
			old.Close()
		}
	}
	defer h.chat.Disconnect(user, stream)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug("Client disconnected from event stream", "user", user)
			return
		case <-stream.Done():
			h.log.Debug("Session superseded by a newer connection", "user", user)
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt := <-stream.Events:
			payload, err := json.Marshal(evt)
			if err != nil {
				h.log.Error("Failed to marshal event", "kind", evt.Kind(), "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind(), payload)
			flusher.Flush()
		}
	}
}
