package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"messenger-lab/errors"
)

type IUserRepository interface {
	CreateUser(username, hashedPassword string) (string, error)
	GetUserByName(username string) (User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]string, error)
}

// UserRepository stores accounts in BadgerDB keyed by username and mirrors
// usernames into a Bluge index so search supports substring matches.
type UserRepository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewUserRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, index: index, log: log}
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser persists the account and indexes the username.
// It returns the newly generated user ID.
func (u *UserRepository) CreateUser(username, hashedPassword string) (string, error) {
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", err
	}

	// Index after the durable write; a missing index entry only degrades
	// search, not authentication.
	doc := bluge.NewDocument(username).
		AddField(bluge.NewKeywordField("username", strings.ToLower(username)).StoreValue())
	if err := u.index.Update(doc.ID(), doc); err != nil {
		u.log.Error("failed to index username", "username", username, "error", err)
	}

	return user.ID, nil
}

// GetUserByName retrieves one account, or an error usable as a generic
// credentials failure upstream.
func (u *UserRepository) GetUserByName(username string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// SearchUsers returns usernames containing the query, case-insensitive.
func (u *UserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]string, error) {
	reader, err := u.index.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	q := bluge.NewWildcardQuery("*" + strings.ToLower(query) + "*").SetField("username")
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var usernames []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				usernames = append(usernames, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return usernames, nil
}
