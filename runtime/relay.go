package runtime

import (
	"log/slog"

	"messenger-lab/contract"
	"messenger-lab/domain/event"
)

// Relay delivers one logical event to zero, one, or two recipients
// depending on who is online. Delivery is at-most-once and never blocks:
// offline targets are skipped and full sinks drop. Catch-up for missed
// events is the history fetch, never replay.
type Relay struct {
	registry contract.IRegistry
	log      *slog.Logger
}

func NewRelay(registry contract.IRegistry, log *slog.Logger) *Relay {
	return &Relay{registry: registry, log: log}
}

func (r *Relay) Publish(e event.DomainEvent) {
	parties := e.Parties()
	if len(parties) == 0 {
		for _, sink := range r.registry.Sinks() {
			sink.Consume(e)
		}
		return
	}

	delivered := make(map[string]struct{}, len(parties))
	for _, user := range parties {
		if _, done := delivered[user]; done {
			continue
		}
		delivered[user] = struct{}{}

		sink, online := r.registry.Lookup(user)
		if !online {
			continue
		}
		sink.Consume(e)
	}
}
