package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablitocbr/commenter-edge/internal/comment"
	"github.com/pablitocbr/commenter-edge/internal/store"
)

type fakeLookup struct {
	comments map[string]comment.Comment
}

func (f *fakeLookup) Get(ctx context.Context, id string) (comment.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return comment.Comment{}, store.ErrNotFound
	}
	return c, nil
}

func newTestRouter(f *fakeLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(f).RegisterRoutes(r)
	return r
}

func TestGetCommentFound(t *testing.T) {
	f := &fakeLookup{comments: map[string]comment.Comment{
		"c1": {ID: "c1", GroupID: "g1", Text: "hi", State: comment.Created},
	}}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/api/comments/c1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got comment.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, f.comments["c1"], got)
}

func TestGetCommentNotFound(t *testing.T) {
	r := newTestRouter(&fakeLookup{comments: map[string]comment.Comment{}})

	req := httptest.NewRequest(http.MethodGet, "/api/comments/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
