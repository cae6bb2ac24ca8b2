package domain

import "time"

// Group is a chat room shared by its members. A group with zero members does
// not exist: the last leave cascades into deletion of the group and all of
// its messages.
type Group struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
