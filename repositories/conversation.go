package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"messenger-lab/domain"
)

type IConversationRepository interface {
	Load() (map[domain.ConversationKey][]domain.Message, error)
	Save(key domain.ConversationKey, log []domain.Message) error
}

// ConversationRepository persists whole conversation logs in BadgerDB,
// one value per pair. Traffic per pair is low, so writing the full log on
// every mutation keeps the durable copy trivially consistent with memory.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log}
}

// storedConversation embeds the key in the value so Load never has to parse
// identities back out of the badger key.
type storedConversation struct {
	Key domain.ConversationKey `json:"key"`
	Log []domain.Message       `json:"log"`
}

// storageKey quotes both identities, so a username containing any separator
// still yields a unique badger key.
func storageKey(key domain.ConversationKey) []byte {
	return []byte(fmt.Sprintf("conv:%q:%q", key.A, key.B))
}

// Load reads every conversation into memory. Called once at startup; the
// in-memory map is the running source of truth afterwards.
func (r ConversationRepository) Load() (map[domain.ConversationKey][]domain.Message, error) {
	conversations := make(map[domain.ConversationKey][]domain.Message)
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("conv:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var stored storedConversation
				if err := json.Unmarshal(value, &stored); err != nil {
					return fmt.Errorf("corrupt conversation %s: %w", it.Item().Key(), err)
				}
				conversations[stored.Key] = stored.Log
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info(fmt.Sprintf("%d conversations loaded from disk", len(conversations)))
	return conversations, nil
}

// DecodeConversation parses a stored conversation value. Exposed for the
// inspect tooling, which scans badger directly.
func DecodeConversation(value []byte) (domain.ConversationKey, []domain.Message, error) {
	var stored storedConversation
	if err := json.Unmarshal(value, &stored); err != nil {
		return domain.ConversationKey{}, nil, err
	}
	return stored.Key, stored.Log, nil
}

// Save writes one conversation log back to disk. Callers treat a failure as
// best-effort durability: it is logged upstream, never rolled back.
func (r ConversationRepository) Save(key domain.ConversationKey, log []domain.Message) error {
	bytes, err := json.Marshal(storedConversation{Key: key, Log: log})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storageKey(key), bytes)
	})
}
