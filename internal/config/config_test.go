package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CRUXLOG_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.UsePostgres())
	assert.Equal(t, "cruxlog.db", cfg.SQLitePath)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, DefaultHeuristics(), cfg.Heuristics)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/cruxlog")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("API_PORT", "not-a-number")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestHeuristicsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cruxlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("short_max: 50\ntop_grades: 6\n"), 0o600))
	t.Setenv("CRUXLOG_CONFIG", path)
	t.Setenv("CRUXLOG_TOP_GRADES", "3")

	h, err := LoadHeuristics()
	require.NoError(t, err)
	assert.Equal(t, 50, h.ShortMax)
	assert.Equal(t, 85, h.MediumMax)
	assert.Equal(t, 3, h.TopGrades, "env overrides file")
}

func TestHeuristicsValidate(t *testing.T) {
	h := DefaultHeuristics()
	require.NoError(t, h.Validate())

	h.MediumMax = h.ShortMax
	assert.Error(t, h.Validate())

	h = DefaultHeuristics()
	h.FetchWorkers = 0
	assert.Error(t, h.Validate())
}

func TestHeuristicsMissingFile(t *testing.T) {
	t.Setenv("CRUXLOG_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := LoadHeuristics()
	assert.Error(t, err)
}
