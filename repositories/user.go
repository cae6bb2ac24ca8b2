package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-graph/domain"
	"chat-graph/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRecord struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"password_hash"`
	Roles        []string `json:"roles"`
	CreatedAt    int64    `json:"created_at"`
}

func userKey(id string) []byte { return []byte("user:id:" + id) }
func emailKey(email string) []byte { return []byte("user:email:" + email) }
func friendKey(a, b string) []byte { return []byte(fmt.Sprintf("friend:%s:%s", a, b)) }
func friendPrefix(id string) []byte { return []byte("friend:" + id + ":") }

// CreateUser persists a new account. Email uniqueness is enforced inside the
// write transaction via the email index key.
func (u *UserRepository) CreateUser(email, username, hashedPassword string) (domain.User, error) {
	record := userRecord{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().Unix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey(email), []byte(record.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(record.ID), data)
	})
	if err != nil {
		return domain.User{}, err
	}
	return toUser(record), nil
}

func (u *UserRepository) GetUserByID(id string) (domain.User, error) {
	var record userRecord
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", id, errors.ErrNotFound)
	}
	return toUser(record), nil
}

func (u *UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", email, errors.ErrNotFound)
	}
	return u.GetUserByID(id)
}

// AddFriend records the symmetric friend relation: both directions are
// written in one transaction.
func (u *UserRepository) AddFriend(userID, friendID string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(friendKey(userID, friendID), nil); err != nil {
			return err
		}
		return txn.Set(friendKey(friendID, userID), nil)
	})
}

func (u *UserRepository) GetFriends(userID string) ([]string, error) {
	prefix := friendPrefix(userID)
	var friends []string
	err := u.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			friends = append(friends, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return friends, err
}

func toUser(record userRecord) domain.User {
	return domain.User{
		ID:           record.ID,
		Email:        record.Email,
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		Roles:        record.Roles,
		CreatedAt:    time.Unix(record.CreatedAt, 0).UTC(),
	}
}
