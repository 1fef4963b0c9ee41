package domain

import "time"

// InboxEntry is the derived per-conversation summary shown in a user's
// inbox. It is recomputed on demand and never persisted.
type InboxEntry struct {
	User          string    `json:"user"`
	LastMessage   string    `json:"last_message"`
	LastTimestamp time.Time `json:"last_timestamp"`
	UnreadCount   int       `json:"unread_count"`
}
