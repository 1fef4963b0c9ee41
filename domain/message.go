// Package domain contains core concepts of the messenger.
// This file defines conversation keys and Message entries with their
// lifecycle rules. No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/samber/lo"
)

// ConversationKey identifies the single message log shared by two users.
// The pair is unordered: NewConversationKey canonicalizes it so that
// (alice, bob) and (bob, alice) resolve to the same key. Keeping the two
// identities as separate fields avoids the collisions a delimiter-joined
// string would allow.
type ConversationKey struct {
	A string `json:"a"`
	B string `json:"b"`
}

func NewConversationKey(user1, user2 string) ConversationKey {
	if user2 < user1 {
		user1, user2 = user2, user1
	}
	return ConversationKey{A: user1, B: user2}
}

// Contains reports whether user is one of the two parties.
func (k ConversationKey) Contains(user string) bool {
	return k.A == user || k.B == user
}

// Other returns the counterpart of user, or "" if user is not a party.
func (k ConversationKey) Other(user string) string {
	switch user {
	case k.A:
		return k.B
	case k.B:
		return k.A
	default:
		return ""
	}
}

// Parties returns both identities in canonical order.
func (k ConversationKey) Parties() []string {
	return []string{k.A, k.B}
}

// Message is one entry of a conversation log. CreatedAt is unique within
// its conversation and serves as the message id on the wire.
//
// A deleted message is a tombstone: it keeps its position and id so clients
// holding stale references stay consistent, but its content is frozen and
// excluded from read paths. Deleted is absorbing.
type Message struct {
	From      string              `json:"from"`
	To        string              `json:"to"`
	Body      string              `json:"body"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
	ReadBy    []string            `json:"read_by"`
	Reactions map[string][]string `json:"reactions"`
	Deleted   bool                `json:"deleted"`
}

// IsReadBy reports whether reader already acknowledged the message.
func (m Message) IsReadBy(reader string) bool {
	return lo.Contains(m.ReadBy, reader)
}

func (m *Message) markRead(reader string) bool {
	if m.IsReadBy(reader) {
		return false
	}
	m.ReadBy = append(m.ReadBy, reader)
	return true
}

// addReaction records actor under emoji. Idempotent per (actor, emoji).
func (m *Message) addReaction(actor, emoji string) bool {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	if lo.Contains(m.Reactions[emoji], actor) {
		return false
	}
	m.Reactions[emoji] = append(m.Reactions[emoji], actor)
	return true
}

// removeReaction removes actor from the emoji set. The emoji key is dropped
// once its set is empty rather than left behind.
func (m *Message) removeReaction(actor, emoji string) bool {
	actors, ok := m.Reactions[emoji]
	if !ok || !lo.Contains(actors, actor) {
		return false
	}
	remaining := lo.Without(actors, actor)
	if len(remaining) == 0 {
		delete(m.Reactions, emoji)
	} else {
		m.Reactions[emoji] = remaining
	}
	return true
}
