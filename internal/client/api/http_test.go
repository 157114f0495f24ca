package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func TestRegister_Success(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(AuthResult{Token: "tok1"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, staticTokens(""))
	res, err := c.Register(context.Background(), "Ana", "ana@x.com", "Secret123")
	require.NoError(t, err)
	require.Equal(t, "tok1", res.Token)
	require.Equal(t, "/api/auth/register", gotPath)
	require.Equal(t, map[string]string{"name": "Ana", "email": "ana@x.com", "password": "Secret123"}, gotBody)
}

func TestAuthenticate_RemoteRejectionKeepsServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Credenciales incorrectas"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, staticTokens(""))
	_, err := c.Authenticate(context.Background(), "ana@x.com", "wrong")

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	require.Equal(t, http.StatusUnauthorized, re.StatusCode)
	require.Equal(t, "Credenciales incorrectas", re.Message)
	require.Equal(t, "Credenciales incorrectas", err.Error())
}

func TestAuthenticate_JSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "email already registered"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, staticTokens(""))
	_, err := c.Register(context.Background(), "a", "a@x.com", "p")

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "email already registered", re.Message)
}

func TestAuthenticate_EmptyBodyFallsBackToGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, staticTokens(""))
	_, err := c.Authenticate(context.Background(), "a@x.com", "p")

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	require.Equal(t, genericMessage(http.StatusInternalServerError), re.Message)
}

func TestTransportFailure_MapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	c := NewHTTPClient(srv.URL, staticTokens(""))
	_, err := c.FetchCurrentUser(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchCurrentUser_ParsesProfile(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/me", r.URL.Path)
		_ = json.NewEncoder(w).Encode(UserProfile{ID: "u1", Name: "Ana", Email: "ana@x.com", CreatedAt: created})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, staticTokens("tok"))
	p, err := c.FetchCurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u1", p.ID)
	require.Equal(t, "Ana", p.Name)
	require.True(t, created.Equal(p.CreatedAt))
	require.Nil(t, p.LastLoginAt)
}

func TestAvatarDownloadURL_EncodesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "avatars/u1/pic 1.png", r.URL.Query().Get("key"))
		_ = json.NewEncoder(w).Encode(PresignedURL{URL: "http://signed"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, staticTokens("tok"))
	res, err := c.AvatarDownloadURL(context.Background(), "avatars/u1/pic 1.png")
	require.NoError(t, err)
	require.Equal(t, "http://signed", res.URL)
}

func TestClose_NoError(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:0", staticTokens(""))
	require.NoError(t, c.Close())
}

func TestDo_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewHTTPClient(srv.URL, staticTokens(""))
	_, err := c.FetchCurrentUser(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded))
}
