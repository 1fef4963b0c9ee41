// Package httpapi exposes the messenger over HTTP: a JSON API for actions
// and queries, and a Server-Sent Events stream for realtime delivery.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"messenger-lab/runtime"
	"messenger-lab/services"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	log        *slog.Logger
	chat       services.IChatService
	auth       services.IAuthService
	sessions   *runtime.Registry
	bufferSize int
	startedAt  time.Time
}

func NewHandler(log *slog.Logger, chat services.IChatService, auth services.IAuthService,
	sessions *runtime.Registry, bufferSize int) *Handler {
	return &Handler{
		log:        log,
		chat:       chat,
		auth:       auth,
		sessions:   sessions,
		bufferSize: bufferSize,
		startedAt:  time.Now().UTC(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Debug("Failed to encode response", "error", err)
	}
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
