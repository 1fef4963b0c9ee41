package runtime

import (
	"log/slog"
	"sync"
	"time"

	"messenger-lab/contract"
	"messenger-lab/domain"
	"messenger-lab/domain/event"
	"messenger-lab/moderation"
	"messenger-lab/projection"
	"messenger-lab/repositories"
)

// Outcome reports whether a lifecycle operation changed state. Stale
// references, unknown timestamps, and unauthorized deletes all resolve to
// NoEffect instead of an error: clients hold in-flight state and racing a
// tombstone is expected, not exceptional. PermissionDenied is deliberately
// indistinguishable from NotFound so existence never leaks.
type Outcome int

const (
	Applied Outcome = iota
	NoEffect
)

// Engine owns every conversation log and applies the message lifecycle:
// send, read, react, delete, and autonomous expiry. A single mutex
// sequences mutate -> persist -> relay, so no operation ever interleaves
// with another one's mutation step and per-conversation locks are
// unnecessary.
//
// Persistence is write-through and best-effort: a failed save is logged and
// the in-memory mutation stands, because the loaded map is the running
// source of truth and recipients must be notified immediately.
type Engine struct {
	mu            sync.Mutex
	log           *slog.Logger
	conversations map[domain.ConversationKey]*domain.Conversation
	repository    repositories.IConversationRepository
	relay         contract.IRelay
	moderator     *moderation.Moderator
	retention     time.Duration
	clock         func() time.Time
}

func NewEngine(log *slog.Logger, repository repositories.IConversationRepository,
	relay contract.IRelay, moderator *moderation.Moderator,
	retention time.Duration) (*Engine, error) {

	loaded, err := repository.Load()
	if err != nil {
		return nil, err
	}

	conversations := make(map[domain.ConversationKey]*domain.Conversation, len(loaded))
	for key, messages := range loaded {
		conversations[key] = &domain.Conversation{Key: key, Log: messages}
	}

	engine := &Engine{
		log:           log,
		conversations: conversations,
		repository:    repository,
		relay:         relay,
		moderator:     moderator,
		retention:     retention,
		clock:         time.Now,
	}
	return engine, nil
}

// Send appends a message to the pair's log, schedules its expiry through
// the durable ExpiresAt field, persists, and relays message-sent to both
// parties. Empty recipient or body degrades to NoEffect.
func (e *Engine) Send(from, to, body string) (domain.Message, Outcome) {
	if from == "" || to == "" || body == "" || from == to {
		return domain.Message{}, NoEffect
	}
	if e.moderator != nil {
		body = e.moderator.Censor(body)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	conversation := e.conversation(domain.NewConversationKey(from, to))
	createdAt := conversation.NextTimestamp(e.clock().UTC())

	message := domain.Message{
		From:      from,
		To:        to,
		Body:      body,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(e.retention),
		ReadBy:    []string{from},
	}
	conversation.Append(message)
	e.persist(conversation)
	e.relay.Publish(event.FromMessage(message))

	return message, Applied
}

// History returns the ordered live messages of the pair and, as a side
// effect, marks everything addressed to reader as read (eager-read: there
// is no separate acknowledgment protocol).
func (e *Engine) History(reader, other string) []domain.Message {
	if reader == "" || other == "" || reader == other {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	conversation, ok := e.conversations[domain.NewConversationKey(reader, other)]
	if !ok {
		return nil
	}
	if conversation.MarkRead(reader) {
		e.persist(conversation)
	}
	return conversation.History()
}

// AddReaction records actor's emoji on the referenced message and relays
// the message's full reaction state. Idempotent per (actor, emoji).
func (e *Engine) AddReaction(actor, other string, timestamp time.Time, emoji string) Outcome {
	if emoji == "" {
		return NoEffect
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	conversation, ok := e.conversations[domain.NewConversationKey(actor, other)]
	if !ok {
		return NoEffect
	}
	message, changed := conversation.React(actor, timestamp, emoji)
	if !changed {
		return NoEffect
	}
	e.persist(conversation)
	e.relay.Publish(event.ReactionChanged{
		From:      message.From,
		To:        message.To,
		Timestamp: message.CreatedAt,
		Reactions: message.Reactions,
	})
	return Applied
}

// RemoveReaction removes actor's emoji; removing an absent reactor is a
// no-op and relays nothing.
func (e *Engine) RemoveReaction(actor, other string, timestamp time.Time, emoji string) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	conversation, ok := e.conversations[domain.NewConversationKey(actor, other)]
	if !ok {
		return NoEffect
	}
	message, changed := conversation.Unreact(actor, timestamp, emoji)
	if !changed {
		return NoEffect
	}
	e.persist(conversation)
	e.relay.Publish(event.ReactionChanged{
		From:      message.From,
		To:        message.To,
		Timestamp: message.CreatedAt,
		Reactions: message.Reactions,
	})
	return Applied
}

// Delete tombstones the author's message and relays message-deleted. Any
// pending expiry for it becomes a no-op when the sweeper reaches it.
func (e *Engine) Delete(actor, other string, timestamp time.Time) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	conversation, ok := e.conversations[domain.NewConversationKey(actor, other)]
	if !ok {
		return NoEffect
	}
	message, changed := conversation.Delete(actor, timestamp)
	if !changed {
		return NoEffect
	}
	e.persist(conversation)
	e.relay.Publish(event.MessageDeleted{
		From:      message.From,
		To:        message.To,
		Timestamp: message.CreatedAt,
	})
	return Applied
}

// ExpireDue tombstones every live message whose retention window elapsed,
// raising the same message-deleted event as a manual delete, exactly once
// per message. Returns the number of expired messages.
func (e *Engine) ExpireDue(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	expired := 0
	for _, conversation := range e.conversations {
		due := conversation.DueForExpiry(now)
		if len(due) == 0 {
			continue
		}
		for _, timestamp := range due {
			message, changed := conversation.Expire(timestamp)
			if !changed {
				continue
			}
			expired++
			e.relay.Publish(event.MessageDeleted{
				From:      message.From,
				To:        message.To,
				Timestamp: message.CreatedAt,
			})
		}
		e.persist(conversation)
	}
	return expired
}

// Inbox derives the requesting user's conversation summaries.
func (e *Engine) Inbox(user string) []domain.InboxEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return projection.Inbox(user, e.conversations)
}

// conversation returns the pair's log, creating it lazily on first message.
func (e *Engine) conversation(key domain.ConversationKey) *domain.Conversation {
	if existing, ok := e.conversations[key]; ok {
		return existing
	}
	created := domain.NewConversation(key)
	e.conversations[key] = created
	return created
}

// persist writes the conversation through to disk. Failures are recorded
// for operational visibility but never roll back the in-memory mutation.
func (e *Engine) persist(conversation *domain.Conversation) {
	if err := e.repository.Save(conversation.Key, conversation.Log); err != nil {
		e.log.Error("Durable write failed, in-memory state kept",
			"conversation", conversation.Key, "error", err)
	}
}
