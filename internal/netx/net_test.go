package netx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadToPresignedURL_Success(t *testing.T) {
	var gotBody []byte
	var gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := UploadToPresignedURL(context.Background(), srv.URL, []byte("img-bytes"))
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, []byte("img-bytes"), gotBody)
}

func TestUploadToPresignedURL_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	}))
	defer srv.Close()

	err := UploadToPresignedURL(context.Background(), srv.URL, []byte("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "access denied")
}
