package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"messenger-lab/auth"
	"messenger-lab/domain"
	"messenger-lab/runtime"
)

// messageResponse is the wire shape of one message. Ts doubles as the
// message id in paths; it is serialized as a string because unix
// nanoseconds overflow the float64 mantissa of JSON numbers.
type messageResponse struct {
	From      string              `json:"from"`
	To        string              `json:"to"`
	Body      string              `json:"body"`
	Ts        int64               `json:"ts,string"`
	CreatedAt time.Time           `json:"created_at"`
	ReadBy    []string            `json:"read_by"`
	Reactions map[string][]string `json:"reactions,omitempty"`
}

// outcomeResponse makes the silent-no-op policy visible to clients without
// turning stale references into errors.
type outcomeResponse struct {
	Applied bool `json:"applied"`
}

func toMessageResponse(messages []domain.Message) []messageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return messageResponse{
			From:      m.From,
			To:        m.To,
			Body:      m.Body,
			Ts:        m.CreatedAt.UnixNano(),
			CreatedAt: m.CreatedAt,
			ReadBy:    m.ReadBy,
			Reactions: m.Reactions,
		}
	})
}

// identity pulls the verified identity or rejects. The middleware already
// guarantees it; this is the boundary check before any core call.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return user, ok
}

// parseTimestamp reads the {ts} path parameter, a unix-nanosecond message id.
func parseTimestamp(r *http.Request) (time.Time, bool) {
	nanos, err := strconv.ParseInt(chi.URLParam(r, "ts"), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos).UTC(), true
}

// Inbox returns the requesting user's conversation summaries, most recent
// activity first.
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}
	entries := h.chat.Inbox(user)
	if entries == nil {
		entries = []domain.InboxEntry{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"inbox": entries})
}

// History returns the live messages with the counterpart and marks them
// read for the requester.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}
	other := chi.URLParam(r, "user")
	messages := h.chat.History(user, other)
	h.JSON(w, http.StatusOK, map[string]any{"messages": toMessageResponse(messages)})
}

type sendRequest struct {
	Body string `json:"body"`
}

// Send appends a message to the conversation with the counterpart.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}
	other := chi.URLParam(r, "user")

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	message, outcome := h.chat.Send(user, other, req.Body)
	if outcome != runtime.Applied {
		h.Error(w, http.StatusUnprocessableEntity, "recipient and body are required")
		return
	}
	h.JSON(w, http.StatusCreated, toMessageResponse([]domain.Message{message})[0])
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

// AddReaction records the requester's emoji on a message.
func (h *Handler) AddReaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}
	other := chi.URLParam(r, "user")
	timestamp, ok := parseTimestamp(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}

	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emoji == "" {
		h.Error(w, http.StatusBadRequest, "emoji is required")
		return
	}

	outcome := h.chat.AddReaction(user, other, timestamp, req.Emoji)
	h.JSON(w, http.StatusOK, outcomeResponse{Applied: outcome == runtime.Applied})
}

// RemoveReaction withdraws the requester's emoji from a message.
func (h *Handler) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}
	other := chi.URLParam(r, "user")
	timestamp, ok := parseTimestamp(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}

	emoji := chi.URLParam(r, "emoji")
	if unescaped, err := url.PathUnescape(emoji); err == nil {
		emoji = unescaped
	}

	outcome := h.chat.RemoveReaction(user, other, timestamp, emoji)
	h.JSON(w, http.StatusOK, outcomeResponse{Applied: outcome == runtime.Applied})
}

// DeleteMessage tombstones the requester's own message. A foreign or stale
// reference is reported as not applied, never as an error.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}
	other := chi.URLParam(r, "user")
	timestamp, ok := parseTimestamp(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}

	outcome := h.chat.Delete(user, other, timestamp)
	h.JSON(w, http.StatusOK, outcomeResponse{Applied: outcome == runtime.Applied})
}

type typingRequest struct {
	To      string `json:"to"`
	Started bool   `json:"started"`
}

// Typing relays a typing indicator to the counterpart.
func (h *Handler) Typing(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req typingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		h.Error(w, http.StatusBadRequest, "recipient is required")
		return
	}

	h.chat.Typing(user, req.To, req.Started)
	w.WriteHeader(http.StatusNoContent)
}
