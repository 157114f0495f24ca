// Package api implements the remote authentication client: stateless
// request/response calls against a fixed HTTP base endpoint, with an access
// token attached to every outgoing request by a transport-level injector.
package api

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable marks transport-level failures (no response received).
// Such failures are retryable by the caller and never carry server text.
var ErrUnavailable = errors.New("server unavailable")

// RemoteError is a non-2xx response from the server. Message carries the
// server-provided error text when the body had any, otherwise a generic
// message derived from the status code. Match with errors.As.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string { return e.Message }

// AuthResult is the successful outcome of register or authenticate.
// The token is opaque to the client.
type AuthResult struct {
	Token string `json:"token"`
}

// UserProfile is the authoritative identity returned by the server. It wins
// over any locally supplied registration input, because the server may
// normalize or reject fields.
type UserProfile struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	AvatarRef   string     `json:"avatar_ref,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// PresignedURL is a short-lived object-storage URL issued by the server.
type PresignedURL struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url"`
}

// Client is the remote operation surface the session coordinator depends on.
//
// FetchCurrentUser, SetAvatar and the avatar URL calls require a valid token
// to already be attached by the transport; the client itself holds no
// credential state.
type Client interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)
	FetchCurrentUser(ctx context.Context) (*UserProfile, error)

	AvatarUploadURL(ctx context.Context) (*PresignedURL, error)
	AvatarDownloadURL(ctx context.Context, key string) (*PresignedURL, error)
	SetAvatar(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

// genericMessage builds the fallback error text for an empty or unparseable
// non-2xx body.
func genericMessage(status int) string {
	return fmt.Sprintf("request rejected with status %d", status)
}
