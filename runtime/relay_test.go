package runtime

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"messenger-lab/domain/event"
)

type RecordingSink struct {
	events []event.DomainEvent
}

func (s *RecordingSink) Consume(e event.DomainEvent) {
	s.events = append(s.events, e)
}

func TestRelay_Presence_Broadcasts_To_All_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	relay := NewRelay(registry, slog.Default())

	alice := &RecordingSink{}
	bob := &RecordingSink{}
	clara := &RecordingSink{}
	registry.Register("alice", alice)
	registry.Register("bob", bob)
	registry.Register("clara", clara)

	relay.Publish(event.PresenceOnline{User: "dave"})

	req.Len(alice.events, 1)
	req.Len(bob.events, 1)
	req.Len(clara.events, 1)
}

func TestRelay_Targeted_Events_Reach_Only_The_Parties(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	relay := NewRelay(registry, slog.Default())

	alice := &RecordingSink{}
	bob := &RecordingSink{}
	clara := &RecordingSink{}
	registry.Register("alice", alice)
	registry.Register("bob", bob)
	registry.Register("clara", clara)

	relay.Publish(event.MessageDeleted{From: "alice", To: "bob"})

	req.Len(alice.events, 1)
	req.Len(bob.events, 1)
	req.Empty(clara.events)
}

func TestRelay_Offline_Target_Is_Dropped(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	relay := NewRelay(registry, slog.Default())

	alice := &RecordingSink{}
	registry.Register("alice", alice)

	// bob is offline: the event is delivered to alice only, no queueing
	relay.Publish(event.MessageDeleted{From: "alice", To: "bob"})

	req.Len(alice.events, 1)
}

func TestRelay_Duplicate_Parties_Receive_Once(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	relay := NewRelay(registry, slog.Default())

	alice := &RecordingSink{}
	registry.Register("alice", alice)

	relay.Publish(event.MessageDeleted{From: "alice", To: "alice"})

	req.Len(alice.events, 1)
}
