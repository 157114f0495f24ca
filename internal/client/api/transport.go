package api

import (
	"net/http"

	"profilekeeper/internal/common"
)

// TokenSource yields the current access token, or "" when there is none.
//
// Implementations must be cheap and non-blocking: the session store keeps the
// token in an in-memory cell kept in sync with durable storage, so the
// per-request read never touches disk.
type TokenSource interface {
	Token() string
}

// bearerTransport attaches the current token as a bearer Authorization
// header to every outgoing request. Requests are cloned before modification;
// when no token is present the request passes through unmodified.
//
// It is read-only with respect to session state.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

// NewBearerTransport wraps base with token injection. A nil base falls back
// to http.DefaultTransport.
func NewBearerTransport(base http.RoundTripper, tokens TokenSource) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &bearerTransport{base: base, tokens: tokens}
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.tokens.Token()
	if token == "" {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return t.base.RoundTrip(clone)
}
