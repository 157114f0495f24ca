// Package models defines the client-side data model: the locally cached user
// profile rows and the persisted session state.
package models

import "time"

// UserRecord is a locally cached profile row for a user.
//
// ID is stable for the lifetime of the account and CreatedAt is set once on
// first insert; LastLoginAt moves forward on each successful authentication.
// CredentialHash is a salted one-way digest of the password; plaintext is
// never stored. AvatarRef is an opaque object-storage key, empty when the
// user has no avatar.
type UserRecord struct {
	ID             string
	Name           string
	Email          string
	CredentialHash string
	CreatedAt      time.Time
	LastLoginAt    *time.Time
	AvatarRef      string
}

// SessionState is the authenticated identity and token currently believed
// valid by this device. The zero value means "no session".
//
// UserID, Email and DisplayName are denormalized copies of the authenticated
// user's identity and are only meaningful while Authenticated is true.
// RememberMe controls how much state a logout wipes.
type SessionState struct {
	Authenticated bool
	UserID        string
	Email         string
	DisplayName   string
	Token         string
	RememberMe    bool
}
