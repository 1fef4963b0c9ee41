package domain

import (
	"time"

	"github.com/samber/lo"
)

// Conversation owns the ordered message log of one two-party pair.
// Mutations are only performed through its methods so the invariants hold:
// strictly increasing CreatedAt, tombstones never resurrected, reaction sets
// free of duplicate actors.
//
// Conversation is not safe for concurrent use; the engine serializes access.
type Conversation struct {
	Key ConversationKey
	Log []Message
}

func NewConversation(key ConversationKey) *Conversation {
	return &Conversation{Key: key}
}

// NextTimestamp returns a CreatedAt strictly after the current tail.
// If the clock has not advanced past the last entry, it bumps by one
// nanosecond so the timestamp stays usable as a unique id.
func (c *Conversation) NextTimestamp(now time.Time) time.Time {
	if len(c.Log) == 0 {
		return now
	}
	if last := c.Log[len(c.Log)-1].CreatedAt; !now.After(last) {
		return last.Add(time.Nanosecond)
	}
	return now
}

// Append adds a message at the tail. Order of the log is send order.
func (c *Conversation) Append(message Message) {
	c.Log = append(c.Log, message)
}

// Find returns the live (non-deleted) message with the given timestamp,
// or nil. A linear scan is fine: per-pair logs stay small.
func (c *Conversation) Find(timestamp time.Time) *Message {
	for i := range c.Log {
		if c.Log[i].CreatedAt.Equal(timestamp) && !c.Log[i].Deleted {
			return &c.Log[i]
		}
	}
	return nil
}

// MarkRead records reader on every non-deleted message addressed to them
// and reports whether anything changed.
func (c *Conversation) MarkRead(reader string) bool {
	changed := false
	for i := range c.Log {
		m := &c.Log[i]
		if m.Deleted || m.To != reader {
			continue
		}
		if m.markRead(reader) {
			changed = true
		}
	}
	return changed
}

// React adds actor's emoji on the message with the given timestamp.
// Missing or deleted messages degrade to a no-op.
func (c *Conversation) React(actor string, timestamp time.Time, emoji string) (Message, bool) {
	m := c.Find(timestamp)
	if m == nil {
		return Message{}, false
	}
	if !m.addReaction(actor, emoji) {
		return Message{}, false
	}
	return m.snapshot(), true
}

// Unreact removes actor's emoji from the message with the given timestamp.
func (c *Conversation) Unreact(actor string, timestamp time.Time, emoji string) (Message, bool) {
	m := c.Find(timestamp)
	if m == nil {
		return Message{}, false
	}
	if !m.removeReaction(actor, emoji) {
		return Message{}, false
	}
	return m.snapshot(), true
}

// Delete turns the author's message into a tombstone. Only the author may
// delete; anyone else degrades to a no-op indistinguishable from a stale
// reference. Already-deleted messages are skipped, so a manual delete and a
// later expiry never produce two transitions.
func (c *Conversation) Delete(actor string, timestamp time.Time) (Message, bool) {
	m := c.Find(timestamp)
	if m == nil || m.From != actor {
		return Message{}, false
	}
	m.Deleted = true
	return m.snapshot(), true
}

// Expire tombstones the message regardless of author. Used by the retention
// sweeper; a no-op when the message was already deleted.
func (c *Conversation) Expire(timestamp time.Time) (Message, bool) {
	m := c.Find(timestamp)
	if m == nil {
		return Message{}, false
	}
	m.Deleted = true
	return m.snapshot(), true
}

// DueForExpiry lists timestamps of live messages whose retention window has
// elapsed at now.
func (c *Conversation) DueForExpiry(now time.Time) []time.Time {
	var due []time.Time
	for i := range c.Log {
		m := &c.Log[i]
		if !m.Deleted && !m.ExpiresAt.After(now) {
			due = append(due, m.CreatedAt)
		}
	}
	return due
}

// History returns a copy of the log without tombstones.
func (c *Conversation) History() []Message {
	live := lo.Filter(c.Log, func(m Message, _ int) bool { return !m.Deleted })
	return lo.Map(live, func(m Message, _ int) Message { return m.snapshot() })
}

// Snapshot returns a copy of the whole log, tombstones included.
func (c *Conversation) Snapshot() []Message {
	return lo.Map(c.Log, func(m Message, _ int) Message { return m.snapshot() })
}

// LastLive returns the most recent non-deleted message, scanning from the
// tail, for inbox summaries.
func (c *Conversation) LastLive() (Message, bool) {
	for i := len(c.Log) - 1; i >= 0; i-- {
		if !c.Log[i].Deleted {
			return c.Log[i].snapshot(), true
		}
	}
	return Message{}, false
}

// snapshot copies the message with its own ReadBy and Reactions so callers
// can never mutate the log through a returned value.
func (m Message) snapshot() Message {
	out := m
	out.ReadBy = append([]string(nil), m.ReadBy...)
	if m.Reactions != nil {
		out.Reactions = make(map[string][]string, len(m.Reactions))
		for emoji, actors := range m.Reactions {
			out.Reactions[emoji] = append([]string(nil), actors...)
		}
	}
	return out
}
