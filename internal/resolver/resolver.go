// Package resolver fetches the prior stored state of a comment by id from
// the lookup HTTP service, so the edge can fill in group_id and (for DELETE)
// text on an UPDATE/DELETE SEND that only supplies an id.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pablitocbr/commenter-edge/internal/comment"
)

// ErrNotResolved is returned, wrapped with additional context, for every
// failure mode: network error, non-200 status, or decode error. Callers see
// a single resolver error rather than a taxonomy of failure types.
var ErrNotResolved = errors.New("resolver: unable to resolve prior comment state")

// Resolver performs the single idempotent GET against the lookup service's
// base URL.
type Resolver struct {
	baseURL string
	client  *http.Client
}

// Config configures a Resolver.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New builds a Resolver. Every lookup is bounded by cfg.Timeout via the
// underlying http.Client, in addition to whatever deadline the caller's ctx
// carries.
func New(cfg Config) *Resolver {
	return &Resolver{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Resolve fetches the last known Comment for id via
// GET {base}/api/comments/{id}. HTTP 404 means not found; that, any
// non-200, any network error, and any decode error all collapse into
// ErrNotResolved.
func (r *Resolver) Resolve(ctx context.Context, id string) (comment.Comment, error) {
	url := fmt.Sprintf("%s/api/comments/%s", r.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return comment.Comment{}, fmt.Errorf("%w: building request: %v", ErrNotResolved, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return comment.Comment{}, fmt.Errorf("%w: %v", ErrNotResolved, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return comment.Comment{}, fmt.Errorf("%w: status %d", ErrNotResolved, resp.StatusCode)
	}

	var c comment.Comment
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return comment.Comment{}, fmt.Errorf("%w: decoding response: %v", ErrNotResolved, err)
	}

	return c, nil
}
