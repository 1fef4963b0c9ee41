// Package projection derives read models from conversation state.
// It never mutates conversations and holds no state of its own.
package projection

import (
	"sort"

	"messenger-lab/domain"
)

// Inbox computes the per-conversation summaries for one user: unread count
// of live messages addressed to them, plus the last live message. Recomputed
// on every call; per-user conversation counts are small enough that caching
// would only add staleness.
func Inbox(user string, conversations map[domain.ConversationKey]*domain.Conversation) []domain.InboxEntry {
	var entries []domain.InboxEntry

	for key, conversation := range conversations {
		if !key.Contains(user) {
			continue
		}
		other := key.Other(user)
		if other == "" || other == user {
			continue
		}

		entry := domain.InboxEntry{User: other, UnreadCount: unreadCount(user, conversation)}
		if last, ok := conversation.LastLive(); ok {
			entry.LastMessage = last.Body
			entry.LastTimestamp = last.CreatedAt
		}
		entries = append(entries, entry)
	}

	// Most recent activity first; conversations with no live message last.
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].LastTimestamp, entries[j].LastTimestamp
		switch {
		case tj.IsZero():
			return !ti.IsZero()
		case ti.IsZero():
			return false
		default:
			return ti.After(tj)
		}
	})
	return entries
}

func unreadCount(user string, conversation *domain.Conversation) int {
	count := 0
	for _, message := range conversation.Snapshot() {
		if !message.Deleted && message.To == user && !message.IsReadBy(user) {
			count++
		}
	}
	return count
}
