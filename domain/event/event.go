// Package event defines the realtime events produced by the lifecycle
// engine and the session registry. Events carry their own routing: Parties
// lists the identities entitled to receive them, an empty list meaning
// every connected session (presence).
package event

import (
	"time"

	"messenger-lab/domain"
)

type DomainEvent interface {
	Kind() string
	Parties() []string
}

// MessageSent is raised after a message is appended to a conversation log.
type MessageSent struct {
	From      string    `json:"from"`
	To        string    `json:"-"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (e MessageSent) Kind() string      { return "message-sent" }
func (e MessageSent) Parties() []string { return []string{e.From, e.To} }

// ReactionChanged is raised when a reaction is added or removed. It carries
// the full reaction state of the message so clients never have to merge.
type ReactionChanged struct {
	From      string              `json:"from"`
	To        string              `json:"to"`
	Timestamp time.Time           `json:"timestamp"`
	Reactions map[string][]string `json:"reactions"`
}

func (e ReactionChanged) Kind() string      { return "reaction-changed" }
func (e ReactionChanged) Parties() []string { return []string{e.From, e.To} }

// MessageDeleted is raised exactly once per tombstone, whether the delete
// was manual or the retention window elapsed.
type MessageDeleted struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

func (e MessageDeleted) Kind() string      { return "message-deleted" }
func (e MessageDeleted) Parties() []string { return []string{e.From, e.To} }

type TypingStarted struct {
	From string `json:"from"`
	To   string `json:"-"`
}

func (e TypingStarted) Kind() string      { return "typing-started" }
func (e TypingStarted) Parties() []string { return []string{e.To} }

type TypingStopped struct {
	From string `json:"from"`
	To   string `json:"-"`
}

func (e TypingStopped) Kind() string      { return "typing-stopped" }
func (e TypingStopped) Parties() []string { return []string{e.To} }

// PresenceOnline broadcasts to every connected session.
type PresenceOnline struct {
	User string `json:"user"`
}

func (e PresenceOnline) Kind() string      { return "presence-online" }
func (e PresenceOnline) Parties() []string { return nil }

type PresenceOffline struct {
	User string `json:"user"`
}

func (e PresenceOffline) Kind() string      { return "presence-offline" }
func (e PresenceOffline) Parties() []string { return nil }

// FromMessage builds the MessageSent event for an appended message.
func FromMessage(m domain.Message) MessageSent {
	return MessageSent{From: m.From, To: m.To, Message: m.Body, Timestamp: m.CreatedAt}
}
