package domain

import "time"

// Message is an immutable chat entry. IDs are assigned monotonically by
// storage; together with CreatedAt they form the total ordering
// (CreatedAt DESC, ID DESC) that every cursor comparison relies on.
type Message struct {
	ID        int64
	GroupID   string
	From      string
	Text      string
	CreatedAt time.Time
}

// Key returns the ordering key of the message.
func (m Message) Key() (at int64, id int64) {
	return m.CreatedAt.UnixNano(), m.ID
}

// Before reports whether m ranks after other in the display ordering,
// i.e. m is strictly older under (CreatedAt DESC, ID DESC).
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}
