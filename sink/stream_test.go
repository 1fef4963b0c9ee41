package sink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"messenger-lab/domain/event"
)

func TestStream_Buffers_Then_Drops_When_Full(t *testing.T) {
	req := require.New(t)
	stream := NewStream(2)

	stream.Consume(event.PresenceOnline{User: "alice"})
	stream.Consume(event.PresenceOnline{User: "bob"})
	// Third event exceeds the buffer and is silently dropped
	stream.Consume(event.PresenceOnline{User: "clara"})

	req.Len(stream.Events, 2)
	first := <-stream.Events
	req.Equal("alice", first.(event.PresenceOnline).User)
	second := <-stream.Events
	req.Equal("bob", second.(event.PresenceOnline).User)
	req.Empty(stream.Events)
}

func TestStream_Close_Signals_Done_And_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	stream := NewStream(1)

	select {
	case <-stream.Done():
		t.Fatal("stream reported done before Close")
	default:
	}

	stream.Close()
	stream.Close()

	select {
	case <-stream.Done():
	default:
		t.Fatal("Done not closed after Close")
	}

	// A closed stream still absorbs events without blocking the relay
	stream.Consume(event.PresenceOnline{User: "alice"})
	stream.Consume(event.PresenceOnline{User: "bob"})
	req.Len(stream.Events, 1)
}
