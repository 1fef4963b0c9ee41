// Package runtime coordinates sessions, event relay, and the message
// lifecycle engine. It sequences state mutations without containing
// transport or UI logic.
package runtime

import (
	"log/slog"
	"sync"

	"messenger-lab/contract"
)

// Registry is the single source of truth for reachability: identity to the
// sink of its live connection. At most one sink per identity; a newer
// connection silently supersedes the older one.
type Registry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	sessions map[string]contract.EventSink
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log, sessions: make(map[string]contract.EventSink)}
}

// Register binds user to sink, returning the superseded sink if a previous
// connection was still registered so its handler can wind down.
func (r *Registry) Register(user string, sink contract.EventSink) contract.EventSink {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.sessions[user]
	r.sessions[user] = sink
	if previous != nil {
		r.log.Debug("Session superseded", "user", user)
	}
	return previous
}

// Unregister removes the mapping, but only while sink is still the current
// one: a superseded connection's cleanup must not evict its successor.
// It reports whether the user actually went offline.
func (r *Registry) Unregister(user string, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[user]
	if !ok || current != sink {
		return false
	}
	delete(r.sessions, user)
	return true
}

// Lookup returns the sink of the user's live connection, if any.
func (r *Registry) Lookup(user string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[user]
	return sink, ok
}

// Sinks returns every live sink, for presence broadcasts.
func (r *Registry) Sinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Count reports how many identities are currently online.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
