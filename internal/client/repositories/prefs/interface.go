// Package prefs implements the durable key-value store backing the
// credential store: session fields and unrelated user preferences share one
// table so a full wipe can clear everything in a single statement.
package prefs

import "context"

type Repository interface {
	// Get returns the value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all stored pairs.
	List(ctx context.Context) (map[string][]byte, error)

	// Clear removes every key, including ones unrelated to the session.
	Clear(ctx context.Context) error
}
