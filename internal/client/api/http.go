package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks to the authentication service over HTTP with JSON bodies.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client for the given base URL. The token source is
// installed as a transport-level injector so every call made through this
// client carries the current token when one exists.
func NewHTTPClient(baseURL string, tokens TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: NewBearerTransport(nil, tokens),
			Timeout:   15 * time.Second,
		},
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type setAvatarRequest struct {
	Key string `json:"key"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", registerRequest{Name: name, Email: email, Password: password}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) FetchCurrentUser(ctx context.Context) (*UserProfile, error) {
	var res UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) AvatarUploadURL(ctx context.Context) (*PresignedURL, error) {
	var res PresignedURL
	if err := c.do(ctx, http.MethodPost, "/api/avatars/upload-url", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) AvatarDownloadURL(ctx context.Context, key string) (*PresignedURL, error) {
	var res PresignedURL
	path := "/api/avatars/download-url?key=" + url.QueryEscape(key)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) SetAvatar(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodPut, "/api/users/avatar", setAvatarRequest{Key: key}, nil)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// SetTimeout overrides the per-request deadline. Zero and negative values
// are ignored.
func (c *HTTPClient) SetTimeout(d time.Duration) {
	if d > 0 {
		c.http.Timeout = d
	}
}

// Close exists for interface symmetry; the underlying http.Client needs no
// explicit teardown.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do performs one JSON request/response cycle. Transport failures come back
// wrapped in ErrUnavailable; non-2xx statuses come back as *RemoteError with
// the server's own error text when the body carries any.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteErrorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// remoteErrorFromResponse extracts a caller-facing message from a non-2xx
// response: the JSON "error" field if present, the raw body otherwise, and a
// generic status-derived text when the body is empty.
func remoteErrorFromResponse(resp *http.Response) *RemoteError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	msg := strings.TrimSpace(string(raw))
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != "" {
		msg = er.Error
	}
	if msg == "" {
		msg = genericMessage(resp.StatusCode)
	}

	return &RemoteError{StatusCode: resp.StatusCode, Message: msg}
}
