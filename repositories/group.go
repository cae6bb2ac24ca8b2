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

type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

type groupRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

func groupKey(id string) []byte { return []byte("group:" + id) }

// member:{group}:{user} lists a group's members; membership:{user}:{group}
// is the reverse index for a user's groups. Both are written together.
func memberKey(groupID, userID string) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", groupID, userID))
}
func memberPrefix(groupID string) []byte { return []byte("member:" + groupID + ":") }
func membershipKey(userID, groupID string) []byte {
	return []byte(fmt.Sprintf("membership:%s:%s", userID, groupID))
}

func (g *GroupRepository) CreateGroup(name string, memberIDs []string) (domain.Group, error) {
	record := groupRecord{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().Unix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return domain.Group{}, err
	}
	err = g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(groupKey(record.ID), data); err != nil {
			return err
		}
		for _, userID := range memberIDs {
			if err := txn.Set(memberKey(record.ID, userID), nil); err != nil {
				return err
			}
			if err := txn.Set(membershipKey(userID, record.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Group{}, err
	}
	return toGroup(record), nil
}

func (g *GroupRepository) GetGroup(id string) (domain.Group, error) {
	var record groupRecord
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(groupKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.Group{}, fmt.Errorf("group %s: %w", id, errors.ErrNotFound)
	}
	return toGroup(record), nil
}

func (g *GroupRepository) RenameGroup(id, name string) (domain.Group, error) {
	var record groupRecord
	err := g.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(groupKey(id))
		if err != nil {
			return fmt.Errorf("group %s: %w", id, errors.ErrNotFound)
		}
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}
		record.Name = name
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(groupKey(id), data)
	})
	if err != nil {
		return domain.Group{}, err
	}
	return toGroup(record), nil
}

func (g *GroupRepository) GetMembers(groupID string) ([]string, error) {
	prefix := memberPrefix(groupID)
	var members []string
	err := g.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			members = append(members, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return members, err
}

func (g *GroupRepository) IsMember(groupID, userID string) (bool, error) {
	err := g.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(groupID, userID))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return err == nil, err
}

func (g *GroupRepository) AddMembers(groupID string, userIDs []string) error {
	return g.db.Update(func(txn *badger.Txn) error {
		for _, userID := range userIDs {
			if err := txn.Set(memberKey(groupID, userID), nil); err != nil {
				return err
			}
			if err := txn.Set(membershipKey(userID, groupID), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveMember deletes one membership edge and reports how many members
// remain, so the caller can decide whether the group must cascade away.
func (g *GroupRepository) RemoveMember(groupID, userID string) (int, error) {
	err := g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(memberKey(groupID, userID)); err != nil {
			return err
		}
		return txn.Delete(membershipKey(userID, groupID))
	})
	if err != nil {
		return 0, err
	}
	members, err := g.GetMembers(groupID)
	return len(members), err
}

func (g *GroupRepository) RemoveAllMembers(groupID string) error {
	members, err := g.GetMembers(groupID)
	if err != nil {
		return err
	}
	return g.db.Update(func(txn *badger.Txn) error {
		for _, userID := range members {
			if err := txn.Delete(memberKey(groupID, userID)); err != nil {
				return err
			}
			if err := txn.Delete(membershipKey(userID, groupID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteGroup removes the group record only. Callers remove memberships and
// purge messages first; a deleted group id is terminal and later lookups
// fail with not found.
func (g *GroupRepository) DeleteGroup(id string) error {
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(groupKey(id))
	})
}

func toGroup(record groupRecord) domain.Group {
	return domain.Group{
		ID:        record.ID,
		Name:      record.Name,
		CreatedAt: time.Unix(record.CreatedAt, 0).UTC(),
	}
}
