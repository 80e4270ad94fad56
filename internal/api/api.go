// Package api serves the prior-state lookup HTTP contract the edge's
// resolver calls: GET /api/comments/:id, backed by internal/store.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pablitocbr/commenter-edge/internal/comment"
	"github.com/pablitocbr/commenter-edge/internal/store"
)

// lookup is the subset of store.Store this handler depends on, broken out
// so it can be tested against a fake without a live Postgres instance.
type lookup interface {
	Get(ctx context.Context, id string) (comment.Comment, error)
}

// Handler serves the comments lookup endpoint.
type Handler struct {
	store lookup
}

// NewHandler builds a Handler backed by st.
func NewHandler(st lookup) *Handler {
	return &Handler{store: st}
}

// RegisterRoutes attaches the lookup endpoint to r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/comments/:id", h.getComment)
}

// getComment returns the stored row for :id, or 404 if none exists, matching
// the contract the resolver package expects.
func (h *Handler) getComment(c *gin.Context) {
	id := c.Param("id")

	cm, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, cm)
}

// NewRouter builds a standalone gin.Engine serving only this handler's
// routes, used by cmd/api's main.
func NewRouter(st *store.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	NewHandler(st).RegisterRoutes(r)
	return r
}
