// Package domain contains core concepts of the group-chat system.
// Entities here carry no storage, network, or UI logic.
package domain

import "time"

// User is an authenticated account. Friend and group relations live in the
// persistence adapter, not on the struct.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}
