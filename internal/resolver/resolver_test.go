package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pablitocbr/commenter-edge/internal/comment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSuccess(t *testing.T) {
	want := comment.Comment{ID: "x", GroupID: "room-1", Text: "old", State: comment.Created}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/comments/x", r.URL.Path)
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL, Timeout: time.Second})
	got, err := r.Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL, Timeout: time.Second})
	_, err := r.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotResolved)
}

func TestResolveDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	r := New(Config{BaseURL: srv.URL, Timeout: time.Second})
	_, err := r.Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotResolved)
}

func TestResolveNetworkError(t *testing.T) {
	r := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond})
	_, err := r.Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotResolved)
}
