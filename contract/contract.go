package contract

import (
	"context"
	"reflect"

	"messenger-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives realtime events for one connected session.
// Implementations must never block the caller.
type EventSink interface {
	Consume(e event.DomainEvent)
}

// IRegistry tracks which identity is reachable through which sink.
type IRegistry interface {
	Register(user string, sink EventSink) EventSink
	Unregister(user string, sink EventSink) bool
	Lookup(user string) (EventSink, bool)
	Sinks() []EventSink
}

// IRelay pushes one logical event to the sessions entitled to it.
type IRelay interface {
	Publish(e event.DomainEvent)
}
