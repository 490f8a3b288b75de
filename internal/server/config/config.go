package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration
type Config struct {
	Port string

	// Storage
	DBDriver         string // sqlite, postgres, neo4j, memory
	DBDSN            string
	DBMaxOpenConns   int
	DBIdleTimeout    time.Duration
	DBConnectTimeout time.Duration
	Neo4jURI         string
	Neo4jUser        string
	Neo4jPassword    string
	Neo4jDatabase    string
	Fixtures         string

	// Conversations
	ResolveTimeout  time.Duration
	WindowDays      int
	ExcludeAnswered bool
	TrueReplyCount  bool

	// Reputation
	CacheTTL        time.Duration
	CacheExpiry     string // epoch or entry
	ProviderTimeout time.Duration
	RankRPCURL      string
	RankContract    string
	RankRate        time.Duration
	ScoreAPIURL     string
	ScoreAPIKey     string
	ScoreRate       time.Duration
	MockMode        bool
	MockLatency     time.Duration
}

// Load reads an optional .env file and then the environment. A missing
// env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:            getEnv("DB_DSN", "unreplied.db"),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:    getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:    getEnv("NEO4J_DATABASE", "neo4j"),
		Fixtures:         getEnv("FIXTURES", ""),
		CacheExpiry:      strings.ToLower(getEnv("CACHE_EXPIRY", "epoch")),
		RankRPCURL:       getEnv("RANK_RPC_URL", "https://mainnet.optimism.io"),
		RankContract:     getEnv("RANK_CONTRACT", ""),
		ScoreAPIURL:      getEnv("SCORE_API_URL", "https://api.quotient.social/v1/user-reputation"),
		ScoreAPIKey:      getEnv("SCORE_API_KEY", ""),
		DBMaxOpenConns:   10,
		DBIdleTimeout:    30 * time.Second,
		DBConnectTimeout: 2 * time.Second,
		ResolveTimeout:   15 * time.Second,
		WindowDays:       90,
		ExcludeAnswered:  true,
		CacheTTL:         300 * time.Second,
		ProviderTimeout:  10 * time.Second,
		RankRate:         200 * time.Millisecond,
		ScoreRate:        500 * time.Millisecond,
	}

	var err error
	if cfg.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns); err != nil {
		return nil, err
	}
	if cfg.DBIdleTimeout, err = getDuration("DB_IDLE_TIMEOUT", cfg.DBIdleTimeout); err != nil {
		return nil, err
	}
	if cfg.DBConnectTimeout, err = getDuration("DB_CONNECT_TIMEOUT", cfg.DBConnectTimeout); err != nil {
		return nil, err
	}
	if cfg.ResolveTimeout, err = getDuration("RESOLVE_TIMEOUT", cfg.ResolveTimeout); err != nil {
		return nil, err
	}
	if cfg.WindowDays, err = getInt("WINDOW_DAYS", cfg.WindowDays); err != nil {
		return nil, err
	}
	if cfg.ExcludeAnswered, err = getBool("EXCLUDE_ANSWERED", cfg.ExcludeAnswered); err != nil {
		return nil, err
	}
	if cfg.TrueReplyCount, err = getBool("TRUE_REPLY_COUNT", cfg.TrueReplyCount); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = getDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return nil, err
	}
	if cfg.RankRate, err = getDuration("RANK_RATE", cfg.RankRate); err != nil {
		return nil, err
	}
	if cfg.ScoreRate, err = getDuration("SCORE_RATE", cfg.ScoreRate); err != nil {
		return nil, err
	}
	if cfg.MockMode, err = getBool("MOCK_MODE", cfg.MockMode); err != nil {
		return nil, err
	}
	if cfg.MockLatency, err = getDuration("MOCK_LATENCY", cfg.MockLatency); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that Load cannot enforce by parsing alone.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "neo4j", "memory":
	default:
		return fmt.Errorf("unknown DB_DRIVER: %s (use 'sqlite', 'postgres', 'neo4j', or 'memory')", c.DBDriver)
	}
	switch c.CacheExpiry {
	case "epoch", "entry":
	default:
		return fmt.Errorf("unknown CACHE_EXPIRY: %s (use 'epoch' or 'entry')", c.CacheExpiry)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.WindowDays < 1 || c.WindowDays > 90 {
		return fmt.Errorf("WINDOW_DAYS must be between 1 and 90, got %d", c.WindowDays)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// getDuration accepts Go durations ("10s") or bare seconds ("300").
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
