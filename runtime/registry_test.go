package runtime

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"messenger-lab/contract"
	"messenger-lab/domain/event"
)

type Sink struct {
	name string
}

func (s *Sink) Consume(e event.DomainEvent) {}

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	sink := &Sink{name: "alice-1"}

	// Given no session is registered
	req.Zero(registry.Count())

	// When alice connects
	superseded := registry.Register("alice", sink)

	// Then she is reachable and nothing was superseded
	req.Nil(superseded)
	found, online := registry.Lookup("alice")
	req.True(online)
	req.Same(sink, found)
	req.Equal(1, registry.Count())
}

func TestRegistry_Last_Connection_Wins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	first := &Sink{name: "alice-1"}
	second := &Sink{name: "alice-2"}

	registry.Register("alice", first)

	// When a newer connection registers for the same identity
	superseded := registry.Register("alice", second)

	// Then the old sink is handed back and the new one is current
	req.Same(first, superseded)
	found, _ := registry.Lookup("alice")
	req.Same(second, found)
	req.Equal(1, registry.Count())
}

func TestRegistry_Unregister_Of_Superseded_Sink_Keeps_Successor(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	first := &Sink{name: "alice-1"}
	second := &Sink{name: "alice-2"}

	registry.Register("alice", first)
	registry.Register("alice", second)

	// When the superseded connection cleans up after itself
	wentOffline := registry.Unregister("alice", first)

	// Then the successor session stays registered
	req.False(wentOffline)
	_, online := registry.Lookup("alice")
	req.True(online)

	// And the current connection's cleanup takes the user offline
	req.True(registry.Unregister("alice", second))
	_, online = registry.Lookup("alice")
	req.False(online)
}

func TestRegistry_Sinks_Lists_All_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	alice := &Sink{name: "alice"}
	bob := &Sink{name: "bob"}

	registry.Register("alice", alice)
	registry.Register("bob", bob)

	sinks := registry.Sinks()
	req.Len(sinks, 2)
	req.Contains(sinks, contract.EventSink(alice))
	req.Contains(sinks, contract.EventSink(bob))
}
