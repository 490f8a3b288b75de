package graph

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewPostgres creates a repository backed by Postgres through the pgx
// database/sql driver.
func NewPostgres(ctx context.Context, dsn string, pool PoolConfig) (*SQLRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	repo, err := openSQL(ctx, db, PostgresDialect, pool)
	if err != nil {
		return nil, err
	}

	if err := repo.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}
