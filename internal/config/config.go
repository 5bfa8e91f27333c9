package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// TMDB
	TMDBAPIKey     string
	TMDBBaseURL    string
	TMDBTimeout    time.Duration // Per-request HTTP timeout (default: 5s)
	TMDBMaxRetries int           // Retries on transient failures (default: 3)
	TMDBCacheTTL   time.Duration // Response cache lifetime (default: 10m)
	TMDBRateLimit  float64       // Requests per second, 0 disables (default: 40)
	TMDBBreakAfter int           // Consecutive failures that open the circuit (default: 5)

	// Redis (optional shared response cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Scheduler
	RefreshCron       string // Now playing refresh (default: every 6 hours)
	ConfigRefreshCron string // TMDB image configuration refresh (default: daily)

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/moviebrowser.db

	// Logging
	LogLevel  string
	LogFormat string // text or json
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	v.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("TMDB_TIMEOUT_SECONDS", 5)
	v.SetDefault("TMDB_MAX_RETRIES", 3)
	v.SetDefault("TMDB_CACHE_TTL_MINUTES", 10)
	v.SetDefault("TMDB_RATE_LIMIT", 40)
	v.SetDefault("TMDB_BREAK_AFTER", 5)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REFRESH_CRON", "0 */6 * * *")
	v.SetDefault("CONFIG_REFRESH_CRON", "0 3 * * *")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	configDir, err := resolveConfigDir(v.GetString("CONFIG_DIR"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		// TMDB
		TMDBAPIKey:     v.GetString("TMDB_API_KEY"),
		TMDBBaseURL:    v.GetString("TMDB_BASE_URL"),
		TMDBTimeout:    time.Duration(v.GetInt("TMDB_TIMEOUT_SECONDS")) * time.Second,
		TMDBMaxRetries: v.GetInt("TMDB_MAX_RETRIES"),
		TMDBCacheTTL:   time.Duration(v.GetInt("TMDB_CACHE_TTL_MINUTES")) * time.Minute,
		TMDBRateLimit:  v.GetFloat64("TMDB_RATE_LIMIT"),
		TMDBBreakAfter: v.GetInt("TMDB_BREAK_AFTER"),

		// Redis
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		// Scheduler
		RefreshCron:       v.GetString("REFRESH_CRON"),
		ConfigRefreshCron: v.GetString("CONFIG_REFRESH_CRON"),

		// Server
		ServerPort: v.GetString("SERVER_PORT"),

		// Paths
		DatabaseFile: filepath.Join(configDir, "moviebrowser.db"),

		// Logging
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.TMDBAPIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	if c.TMDBBaseURL == "" {
		return fmt.Errorf("TMDB_BASE_URL must not be empty")
	}
	if c.TMDBTimeout <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT_SECONDS must be positive")
	}
	if c.TMDBMaxRetries < 0 {
		return fmt.Errorf("TMDB_MAX_RETRIES must not be negative")
	}
	if c.TMDBRateLimit < 0 {
		return fmt.Errorf("TMDB_RATE_LIMIT must not be negative")
	}
	return nil
}

// resolveConfigDir returns the absolute config directory, creating it if needed
func resolveConfigDir(configDir string) (string, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "moviebrowser")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}
