package services

import (
	"time"

	"messenger-lab/contract"
	"messenger-lab/domain"
	"messenger-lab/domain/event"
	"messenger-lab/runtime"
)

type IChatService interface {
	Send(from, to, body string) (domain.Message, runtime.Outcome)
	History(reader, other string) []domain.Message
	AddReaction(actor, other string, timestamp time.Time, emoji string) runtime.Outcome
	RemoveReaction(actor, other string, timestamp time.Time, emoji string) runtime.Outcome
	Delete(actor, other string, timestamp time.Time) runtime.Outcome
	Typing(from, to string, started bool)
	Inbox(user string) []domain.InboxEntry
	Connect(user string, s contract.EventSink) contract.EventSink
	Disconnect(user string, s contract.EventSink)
}

// ChatService front-ends the engine and the session registry for the
// transport layer. Presence transitions live here so the HTTP handlers stay
// free of domain sequencing.
type ChatService struct {
	engine   *runtime.Engine
	registry contract.IRegistry
	relay    contract.IRelay
}

func NewChatService(engine *runtime.Engine, registry contract.IRegistry,
	relay contract.IRelay) *ChatService {
	return &ChatService{engine: engine, registry: registry, relay: relay}
}

func (s *ChatService) Send(from, to, body string) (domain.Message, runtime.Outcome) {
	return s.engine.Send(from, to, body)
}

func (s *ChatService) History(reader, other string) []domain.Message {
	return s.engine.History(reader, other)
}

func (s *ChatService) AddReaction(actor, other string, timestamp time.Time, emoji string) runtime.Outcome {
	return s.engine.AddReaction(actor, other, timestamp, emoji)
}

func (s *ChatService) RemoveReaction(actor, other string, timestamp time.Time, emoji string) runtime.Outcome {
	return s.engine.RemoveReaction(actor, other, timestamp, emoji)
}

func (s *ChatService) Delete(actor, other string, timestamp time.Time) runtime.Outcome {
	return s.engine.Delete(actor, other, timestamp)
}

// Typing relays the indicator to the counterpart when online. Nothing is
// stored; a missed typing event has no catch-up path.
func (s *ChatService) Typing(from, to string, started bool) {
	if from == "" || to == "" {
		return
	}
	if started {
		s.relay.Publish(event.TypingStarted{From: from, To: to})
		return
	}
	s.relay.Publish(event.TypingStopped{From: from, To: to})
}

func (s *ChatService) Inbox(user string) []domain.InboxEntry {
	return s.engine.Inbox(user)
}

// Connect registers the session (last-connection-wins) and broadcasts
// presence-online. The superseded sink, if any, is returned so its stream
// handler can terminate.
func (s *ChatService) Connect(user string, sink contract.EventSink) contract.EventSink {
	superseded := s.registry.Register(user, sink)
	s.relay.Publish(event.PresenceOnline{User: user})
	return superseded
}

// Disconnect drops the session and broadcasts presence-offline, unless the
// sink was already superseded by a newer connection.
func (s *ChatService) Disconnect(user string, sink contract.EventSink) {
	if s.registry.Unregister(user, sink) {
		s.relay.Publish(event.PresenceOffline{User: user})
	}
}
