package contract

import (
	"context"
	"time"

	"chat-graph/domain"
	"chat-graph/domain/event"
)

// UserStore is the persistence adapter surface for accounts and the
// symmetric friend relation.
type UserStore interface {
	CreateUser(email, username, hashedPassword string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
	GetUserByEmail(email string) (domain.User, error)
	AddFriend(userID, friendID string) error
	GetFriends(userID string) ([]string, error)
}

// GroupStore is the persistence adapter surface for groups and memberships.
// DeleteGroup removes only the group record; callers sequence membership
// removal and message purge first so no message ever references a missing
// group, even transiently.
type GroupStore interface {
	CreateGroup(name string, memberIDs []string) (domain.Group, error)
	GetGroup(id string) (domain.Group, error)
	RenameGroup(id, name string) (domain.Group, error)
	GetMembers(groupID string) ([]string, error)
	IsMember(groupID, userID string) (bool, error)
	AddMembers(groupID string, userIDs []string) error
	RemoveMember(groupID, userID string) (remaining int, err error)
	RemoveAllMembers(groupID string) error
	DeleteGroup(id string) error
}

// MessageStore is the persistence adapter surface for the append-mostly
// message log. Both list calls read the ordering key (CreatedAt, ID) from
// storage; positions are strict, so an issued cursor never reappears in a
// subsequent window.
type MessageStore interface {
	// AppendMessage persists a message with a storage-assigned monotonic id.
	AppendMessage(groupID, from, text string, at time.Time) (domain.Message, error)
	// ListBefore returns up to limit messages strictly older than after
	// (or the newest messages when after is nil), newest first.
	ListBefore(groupID string, after *domain.Cursor, limit int) ([]domain.Message, error)
	// ListAfter returns up to limit messages strictly newer than before
	// (or the oldest messages when before is nil), oldest first.
	ListAfter(groupID string, before *domain.Cursor, limit int) ([]domain.Message, error)
	PurgeGroup(groupID string) error
}

// EventSink receives dispatched domain events. A sink is typically one
// connected client's push channel.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Dispatcher fans published events out to topic subscribers, at-least-once,
// ordered within a single topic by publish order.
type Dispatcher interface {
	Subscribe(subscriberID, topic string, sink EventSink)
	Unsubscribe(subscriberID, topic string)
	Publish(e event.DomainEvent)
}
