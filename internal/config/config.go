// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names; must match db.Schema and store.SQLiteSchema
// --------------------------------------------------------------------------

const (
	TicksTable       = "ticks"
	PyramidTable     = "performance_pyramid"
	TagsTable        = "tags"
	TickTagsTable    = "tick_tags"
	UserSourcesTable = "user_sources"
)

// --------------------------------------------------------------------------
// Config is populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Database. An empty DatabaseURL selects the embedded SQLite store.
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	SQLitePath     string

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool
	LogLevel    string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Sources
	MountainProjectURL string
	MountainProjectRPM int
	HTTPTimeout        time.Duration
	EightAURL          string
	EightAControlURL   string
	EightAHeadless     bool
	EightATimeout      time.Duration
	EightAPageSize     int

	// Cache
	CacheEnabled bool
	CacheTTL     time.Duration

	// Heuristic constants, overridable from YAML or CRUXLOG_ env vars.
	Heuristics Heuristics
}

// Load reads configuration from environment variables with sensible defaults,
// then layers the heuristics overlay on top.
func Load() (*Config, error) {
	h, err := LoadHeuristics()
	if err != nil {
		return nil, fmt.Errorf("load heuristics: %w", err)
	}

	return &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		SQLitePath:     envOr("SQLITE_PATH", "cruxlog.db"),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		MountainProjectURL: envOr("MOUNTAIN_PROJECT_URL", ""),
		MountainProjectRPM: envInt("MOUNTAIN_PROJECT_RPM", 30),
		HTTPTimeout:        time.Duration(envInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		EightAURL:          envOr("EIGHTA_URL", ""),
		EightAControlURL:   envOr("EIGHTA_CHROME_URL", ""),
		EightAHeadless:     envBool("EIGHTA_HEADLESS", true),
		EightATimeout:      time.Duration(envInt("EIGHTA_TIMEOUT_SECONDS", 90)) * time.Second,
		EightAPageSize:     envInt("EIGHTA_PAGE_SIZE", 2000),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     time.Duration(envInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		Heuristics: *h,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsePostgres reports whether a Postgres URL was configured.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// SlogLevel maps LogLevel onto a slog level. Debug forces debug output.
func (c *Config) SlogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
