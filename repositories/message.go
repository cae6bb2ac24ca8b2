package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-graph/domain"

	"github.com/dgraph-io/badger/v4"
)

// messageSeqKey names the badger sequence assigning monotonic message ids.
const messageSeqKey = "seq:message"

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSeqKey), 64)
	if err != nil {
		return nil, fmt.Errorf("message id sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, seq: seq}, nil
}

// Close releases the id sequence lease back to the store.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

type messageRecord struct {
	ID      int64  `json:"id"`
	GroupID string `json:"group_id"`
	From    string `json:"from"`
	Text    string `json:"text"`
	At      int64  `json:"at"`
}

// messageKey formats "msg:{group_id}:{timestamp_padded}:{id_padded}":
//  1. The 19-digit zero padding makes lexicographic order equal to
//     (CreatedAt, ID) order, so a reverse prefix scan walks the group's
//     messages newest first.
//  2. The padded id breaks ties between messages created in the same
//     nanosecond; no two messages ever share a key.
//
// The suffix after the group prefix is exactly the decoded form of a
// domain.Cursor, which lets a cursor seek directly to its position.
func messageKey(groupID string, at int64, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%019d", groupID, at, id))
}

func messagePrefix(groupID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", groupID))
}

// AppendMessage persists a message under a storage-assigned monotonic id.
func (m *MessageRepository) AppendMessage(groupID, from, text string, at time.Time) (domain.Message, error) {
	next, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message id: %w", err)
	}
	msg := domain.Message{
		ID:        int64(next) + 1,
		GroupID:   groupID,
		From:      from,
		Text:      text,
		CreatedAt: at.UTC(),
	}
	bytes, err := json.Marshal(fromMessage(msg))
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(groupID, msg.CreatedAt.UnixNano(), msg.ID), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ListBefore returns up to limit messages strictly older than after, newest
// first. A nil cursor starts at the newest message of the group.
func (m *MessageRepository) ListBefore(groupID string, after *domain.Cursor, limit int) ([]domain.Message, error) {
	prefix := messagePrefix(groupID)
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append([]byte{}, prefix...)
		var exact []byte
		if after != nil {
			at, id, err := after.Decode()
			if err != nil {
				return err
			}
			exact = messageKey(groupID, at, id)
			seekKey = exact
		} else {
			// Highest possible suffix: reverse iteration starts at the
			// newest message of the group.
			seekKey = append(seekKey, []byte("9999999999999999999:9999999999999999999")...)
		}

		it.Seek(seekKey)
		// The cursor addresses a delivered message; windows are strict.
		if exact != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(exact) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix) && len(raw) < limit; it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
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
	return decodeMessages(raw)
}

// ListAfter returns up to limit messages strictly newer than before, oldest
// first. A nil cursor starts at the oldest message of the group.
func (m *MessageRepository) ListAfter(groupID string, before *domain.Cursor, limit int) ([]domain.Message, error) {
	prefix := messagePrefix(groupID)
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		var exact []byte
		if before != nil {
			at, id, err := before.Decode()
			if err != nil {
				return err
			}
			exact = messageKey(groupID, at, id)
			seekKey = exact
		}

		it.Seek(seekKey)
		if exact != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(exact) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix) && len(raw) < limit; it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
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
	return decodeMessages(raw)
}

// PurgeGroup removes every message of the group. Called while the group
// record still exists, so readers never see messages of a missing group.
func (m *MessageRepository) PurgeGroup(groupID string) error {
	prefix := messagePrefix(groupID)
	var keys [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeMessages(raw [][]byte) ([]domain.Message, error) {
	var messages []domain.Message
	for _, b := range raw {
		var record messageRecord
		if err := json.Unmarshal(b, &record); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(record))
	}
	return messages, nil
}

func fromMessage(msg domain.Message) messageRecord {
	return messageRecord{
		ID:      msg.ID,
		GroupID: msg.GroupID,
		From:    msg.From,
		Text:    msg.Text,
		At:      msg.CreatedAt.UnixNano(),
	}
}

func toMessage(record messageRecord) domain.Message {
	return domain.Message{
		ID:        record.ID,
		GroupID:   record.GroupID,
		From:      record.From,
		Text:      record.Text,
		CreatedAt: time.Unix(0, record.At).UTC(),
	}
}
