package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/cruxlog/internal/api/respond"
	"github.com/albapepper/cruxlog/internal/cache"
	"github.com/albapepper/cruxlog/internal/provider"
)

// PyramidResponse is a user's stored pyramid.
type PyramidResponse struct {
	UserID   string                  `json:"user_id"`
	LastSync *time.Time              `json:"last_sync,omitempty"`
	Ticks    int                     `json:"ticks"`
	Entries  []provider.PyramidEntry `json:"entries"`
}

func pyramidKey(userID string) string {
	return "pyramid|" + userID + "|"
}

// GetPyramid returns the performance pyramid of a user.
// @Summary Get performance pyramid
// @Description Returns the top sends per discipline with effort counts. Served from cache with ETag support.
// @Tags pyramid
// @Produce json
// @Param userID path string true "User identifier"
// @Param source query string false "Source for last_sync" Enums(mountain_project, eight_a)
// @Success 200 {object} PyramidResponse
// @Success 304
// @Failure 500 {object} respond.ErrorResponse
// @Router /users/{userID}/pyramid [get]
func (h *Handler) GetPyramid(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	source := provider.SourceType(r.URL.Query().Get("source"))
	if source == "" {
		source = provider.SourceMountainProject
	}

	cacheKey := pyramidKey(userID) + string(source)
	ttl := cache.TTLPyramid

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	ctx := r.Context()
	entries, err := h.store.Pyramid(ctx, userID)
	if err != nil {
		h.logger.Error("Pyramid query failed", "user_id", userID, "error", err)
		respond.WriteError(w, respond.CodeQueryFailed, "could not load pyramid")
		return
	}
	count, err := h.store.TickCount(ctx, userID)
	if err != nil {
		h.logger.Error("Tick count failed", "user_id", userID, "error", err)
		respond.WriteError(w, respond.CodeQueryFailed, "could not load pyramid")
		return
	}

	resp := PyramidResponse{UserID: userID, Ticks: count, Entries: entries}
	if at, ok, err := h.store.LastSync(ctx, userID, source); err == nil && ok {
		resp.LastSync = &at
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		respond.WriteError(w, respond.CodeEncodeFailed, "could not encode pyramid")
		return
	}
	etag := h.cache.Set(cacheKey, raw, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, raw, etag, ttl, false)
}
