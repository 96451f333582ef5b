// Package handler provides HTTP handlers for all API endpoints.
// Handlers read through the store and grade engine directly; syncs run the
// pipeline inline on the request context.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/albapepper/cruxlog/internal/api/respond"
	"github.com/albapepper/cruxlog/internal/cache"
	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
	"github.com/albapepper/cruxlog/internal/store"
)

// Syncer runs one sync for a user. *pipeline.Orchestrator satisfies it.
type Syncer interface {
	Supports(source provider.SourceType) bool
	Process(ctx context.Context, userID string, source provider.SourceType, creds pipeline.Credentials) (*pipeline.Result, error)
}

// Deps are the shared dependencies of all handlers.
type Deps struct {
	Store  store.Store
	Grades *grade.Engine
	Syncer Syncer
	Cache  *cache.Cache
	Logger *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  store.Store
	grades *grade.Engine
	syncer Syncer
	cache  *cache.Cache
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a Handler with shared dependencies.
func New(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := deps.Cache
	if c == nil {
		c = cache.New(false, 0)
	}
	return &Handler{
		store:    deps.Store,
		grades:   deps.Grades,
		syncer:   deps.Syncer,
		cache:    c,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "cruxlog API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"sources": []provider.SourceType{provider.SourceMountainProject, provider.SourceEightA},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies the store is reachable.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics and the grade memo size.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"cache":      h.cache.Stats(),
		"grade_memo": h.grades.CacheLen(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// tryAcquire marks a user as syncing. It reports false when a sync for the
// user is already running.
func (h *Handler) tryAcquire(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inflight[userID] {
		return false
	}
	h.inflight[userID] = true
	return true
}

func (h *Handler) release(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inflight, userID)
}
