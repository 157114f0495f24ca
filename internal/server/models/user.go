package models

import (
	"database/sql"
	"time"
)

// User is the server-side account row. PasswordHash holds a bcrypt digest;
// the plaintext never touches storage.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	AvatarKey    string
	CreatedAt    time.Time
	LastLoginAt  sql.NullTime
}
