package model

import "time"

// User is a registered account. Accounts are created elsewhere; the room
// server only resolves names and ids.
type User struct {
	ID        UserID
	Username  string
	CreatedAt time.Time
}
