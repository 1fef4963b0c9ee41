// Package sink bridges the relay to long-lived client connections.
package sink

import (
	"sync"

	"messenger-lab/domain/event"
)

// Stream is the per-connection sink. The relay pushes into its buffered
// channel; the HTTP stream handler drains it until the client disconnects
// or a newer connection supersedes this one.
type Stream struct {
	Events chan event.DomainEvent

	once sync.Once
	done chan struct{}
}

func NewStream(bufferSize int) *Stream {
	return &Stream{
		Events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Close signals the draining handler to stop. Called when a newer
// connection for the same identity takes over.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.done) })
}

// Done is closed once the stream has been superseded.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Consume is called by the relay. A full buffer drops the event: delivery
// is at-most-once and a slow consumer must never stall the engine.
func (s *Stream) Consume(e event.DomainEvent) {
	select {
	case s.Events <- e:
	default:
	}
}
