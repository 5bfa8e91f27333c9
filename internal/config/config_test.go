package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("TMDB_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TMDBBaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("Unexpected base URL %q", cfg.TMDBBaseURL)
	}
	if cfg.TMDBTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.TMDBTimeout)
	}
	if cfg.TMDBMaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", cfg.TMDBMaxRetries)
	}
	if cfg.TMDBRateLimit != 40 || cfg.TMDBBreakAfter != 5 {
		t.Errorf("Unexpected rate limit %v or breaker threshold %d", cfg.TMDBRateLimit, cfg.TMDBBreakAfter)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.ServerPort)
	}
	if cfg.DatabaseFile != filepath.Join(dir, "moviebrowser.db") {
		t.Errorf("Unexpected database path %s", cfg.DatabaseFile)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("TMDB_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("Expected an error without TMDB_API_KEY")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("TMDB_API_KEY", "secret")
	t.Setenv("TMDB_MAX_RETRIES", "0")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TMDBMaxRetries != 0 {
		t.Errorf("Expected 0 retries, got %d", cfg.TMDBMaxRetries)
	}
	if cfg.ServerPort != "9999" {
		t.Errorf("Expected port 9999, got %s", cfg.ServerPort)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected redis addr, got %q", cfg.RedisAddr)
	}
}
