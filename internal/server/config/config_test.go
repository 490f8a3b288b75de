package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	if cfg.CacheTTL != 300*time.Second {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.ProviderTimeout != 10*time.Second {
		t.Errorf("ProviderTimeout = %v", cfg.ProviderTimeout)
	}
	if cfg.DBConnectTimeout != 2*time.Second || cfg.ResolveTimeout != 15*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.DBConnectTimeout, cfg.ResolveTimeout)
	}
	if cfg.DBMaxOpenConns != 10 {
		t.Errorf("DBMaxOpenConns = %d", cfg.DBMaxOpenConns)
	}
	if cfg.CacheExpiry != "epoch" || cfg.MockMode {
		t.Errorf("unexpected cache defaults: %+v", cfg)
	}
}

func TestLoadEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CACHE_TTL", "60")
	t.Setenv("PROVIDER_TIMEOUT", "1500ms")
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("CACHE_EXPIRY", "entry")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.ProviderTimeout != 1500*time.Millisecond {
		t.Errorf("ProviderTimeout = %v", cfg.ProviderTimeout)
	}
	if !cfg.MockMode || cfg.DBDriver != "memory" || cfg.CacheExpiry != "entry" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("PORT=9999\nSCORE_API_KEY=secret\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("SCORE_API_KEY")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" || cfg.ScoreAPIKey != "secret" {
		t.Errorf("env file not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"bad driver", "DB_DRIVER", "mysql", "unknown DB_DRIVER"},
		{"bad expiry", "CACHE_EXPIRY", "lru", "unknown CACHE_EXPIRY"},
		{"bad duration", "CACHE_TTL", "soon", "invalid CACHE_TTL"},
		{"zero ttl", "CACHE_TTL", "0", "CACHE_TTL must be positive"},
		{"bad bool", "MOCK_MODE", "perhaps", "invalid MOCK_MODE"},
		{"window too wide", "WINDOW_DAYS", "120", "WINDOW_DAYS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}
