package httpapi

import (
	"encoding/json"
	"net/http"

	"messenger-lab/errors"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Register creates an account and returns an initial session token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, err := h.auth.Register(req.Username, req.Password)
	if err != nil {
		h.Error(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}
	h.JSON(w, http.StatusCreated, authResponse{Token: string(token), Username: req.Username})
}

// Login verifies credentials and returns a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		h.Error(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}
	h.JSON(w, http.StatusOK, authResponse{Token: string(token), Username: req.Username})
}

// SearchUsers returns usernames matching ?q= as a substring.
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.JSON(w, http.StatusOK, map[string][]string{"users": {}})
		return
	}

	usernames, err := h.auth.SearchUsers(r.Context(), query, 20)
	if err != nil {
		h.log.Error("User search failed", "query", query, "error", err)
		h.Error(w, http.StatusInternalServerError, "search unavailable")
		return
	}
	if usernames == nil {
		usernames = []string{}
	}
	h.JSON(w, http.StatusOK, map[string][]string{"users": usernames})
}
