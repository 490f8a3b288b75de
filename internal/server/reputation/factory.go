package reputation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/systemshift/unreplied/internal/server/config"
)

// NewProviders selects the provider implementations. In mock mode both
// providers are served from deterministic fixtures.
func NewProviders(ctx context.Context, cfg *config.Config) (rank Provider, score Provider, err error) {
	if cfg.MockMode {
		return NewMockRankProvider(cfg.MockLatency), NewMockScoreProvider(cfg.MockLatency), nil
	}

	if cfg.RankContract == "" {
		return nil, nil, fmt.Errorf("RANK_CONTRACT is required unless MOCK_MODE is set")
	}
	rankClient, err := DialRankClient(ctx, cfg.RankRPCURL, cfg.RankContract, cfg.RankRate)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ScoreAPIKey == "" {
		slog.Warn("SCORE_API_KEY is empty; score provider requests are unauthenticated")
	}
	scoreClient := NewScoreClient(cfg.ScoreAPIURL, cfg.ScoreAPIKey, cfg.ScoreRate)

	return rankClient, scoreClient, nil
}

// NewFromConfig builds an orchestrator with providers chosen by cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Orchestrator, error) {
	rank, score, err := NewProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	expiry, ok := ParseExpiry(cfg.CacheExpiry)
	if !ok {
		return nil, fmt.Errorf("unknown cache expiry %q", cfg.CacheExpiry)
	}

	return NewOrchestrator(rank, score, Options{
		Timeout: cfg.ProviderTimeout,
		TTL:     cfg.CacheTTL,
		Expiry:  expiry,
		Logger:  logger,
	}), nil
}
