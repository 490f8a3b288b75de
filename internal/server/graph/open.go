package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/systemshift/unreplied/internal/server/config"
)

// Open connects the backend named by cfg.DBDriver, ensures its indexes and
// seeds it from cfg.Fixtures when set.
func Open(ctx context.Context, cfg *config.Config) (Repository, error) {
	pool := PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxIdleTime: cfg.DBIdleTimeout,
		ConnectTimeout:  cfg.DBConnectTimeout,
	}

	var (
		repo Repository
		err  error
	)
	switch cfg.DBDriver {
	case "sqlite":
		repo, err = NewSQLite(ctx, cfg.DBDSN, pool)
	case "postgres":
		repo, err = NewPostgres(ctx, cfg.DBDSN, pool)
	case "neo4j":
		repo, err = NewNeo4j(ctx, Neo4jConfig{
			URI:      cfg.Neo4jURI,
			Username: cfg.Neo4jUser,
			Password: cfg.Neo4jPassword,
			Database: cfg.Neo4jDatabase,
		})
	case "memory":
		repo = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.EnsureIndexes(ctx); err != nil {
		repo.Close(ctx)
		return nil, fmt.Errorf("ensuring indexes: %w", err)
	}

	if cfg.Fixtures != "" {
		casts, err := LoadFixtures(cfg.Fixtures)
		if err != nil {
			repo.Close(ctx)
			return nil, err
		}
		n, err := Seed(ctx, repo, casts)
		if err != nil {
			repo.Close(ctx)
			return nil, err
		}
		slog.Info("seeded fixtures", "driver", cfg.DBDriver, "casts", n, "path", cfg.Fixtures)
	}

	return repo, nil
}
