package graph

import (
	"context"
)

// Repository defines the interface for social-graph storage backends.
// SQLite, Postgres, Neo4j and the in-memory store implement it.
type Repository interface {
	// Lifecycle
	Close(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error

	// SaveCast inserts a cast. Casts are immutable once stored; saving an
	// existing hash only updates its soft-delete marker.
	SaveCast(ctx context.Context, cast *Cast) error

	// ThreadWindow returns one row per scanned root cast, newest root first.
	ThreadWindow(ctx context.Context, q WindowQuery) ([]ThreadRow, error)
}
