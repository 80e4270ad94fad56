// Package store is the relational persistence layer backing the hotstorage
// projector's writes and the lookup API's reads.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pablitocbr/commenter-edge/internal/comment"
)

// ErrNotFound is returned by Get when no row exists for the given id.
var ErrNotFound = errors.New("store: comment not found")

// Store wraps a pgx connection pool over the single "comments" table.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the comments table if it doesn't already exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS comments (
			id       TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			text     TEXT NOT NULL,
			state    INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Upsert inserts c, or — on a primary-key conflict on id — updates state and
// text only, leaving group_id fixed at whatever value was seen on first
// insert.
func (s *Store) Upsert(ctx context.Context, c comment.Comment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO comments (id, group_id, text, state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, text = EXCLUDED.text
	`, c.ID, c.GroupID, c.Text, int32(c.State))
	if err != nil {
		return fmt.Errorf("store: upsert: %w", err)
	}
	return nil
}

// Get fetches the row for id. ErrNotFound is returned if no row exists,
// which the lookup API maps to a 404.
func (s *Store) Get(ctx context.Context, id string) (comment.Comment, error) {
	var c comment.Comment
	var state int32

	err := s.pool.QueryRow(ctx, `
		SELECT id, group_id, text, state FROM comments WHERE id = $1
	`, id).Scan(&c.ID, &c.GroupID, &c.Text, &state)

	if errors.Is(err, pgx.ErrNoRows) {
		return comment.Comment{}, ErrNotFound
	}
	if err != nil {
		return comment.Comment{}, fmt.Errorf("store: get: %w", err)
	}

	c.State = comment.State(state)
	return c, nil
}
