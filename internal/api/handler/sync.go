package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/cruxlog/internal/api/respond"
	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

// SyncRequest is the body of a sync call.
type SyncRequest struct {
	SourceType string `json:"source_type"`
	ProfileURL string `json:"profile_url,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
}

// SyncResponse reports a finished sync.
type SyncResponse struct {
	SyncID         string              `json:"sync_id"`
	UserID         string              `json:"user_id"`
	SourceType     provider.SourceType `json:"source_type"`
	State          string              `json:"state"`
	Saved          int                 `json:"saved"`
	Skipped        int                 `json:"skipped"`
	PyramidEntries int                 `json:"pyramid_entries"`
	Tags           int                 `json:"tags"`
	DurationMS     int64               `json:"duration_ms"`
	Summary        string              `json:"summary"`
}

// Sync fetches, classifies and persists a user's logbook.
// @Summary Sync a logbook
// @Description Runs the full pipeline for one source. Only one sync per user may run at a time.
// @Tags sync
// @Accept json
// @Produce json
// @Param userID path string true "User identifier"
// @Param body body SyncRequest true "Source and credentials"
// @Success 200 {object} SyncResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /users/{userID}/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		respond.WriteError(w, respond.CodeMissingUser, "user id is required")
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteErrorDetail(w, respond.CodeInvalidBody, "request body must be JSON", err.Error())
		return
	}
	source := provider.SourceType(strings.TrimSpace(req.SourceType))
	if !h.syncer.Supports(source) {
		respond.WriteError(w, respond.CodeUnsupportedSource, "unsupported source_type "+string(source))
		return
	}

	if !h.tryAcquire(userID) {
		respond.WriteError(w, respond.CodeSyncInProgress, "a sync is already running for this user")
		return
	}
	defer h.release(userID)

	creds := pipeline.Credentials{ProfileURL: req.ProfileURL, Username: req.Username, Password: req.Password}
	res, err := h.syncer.Process(r.Context(), userID, source, creds)
	if err != nil {
		code := syncErrorCode(err)
		if code.Status() >= http.StatusInternalServerError {
			h.logger.Error("Sync request failed", "user_id", userID, "source", source, "error", err)
		}
		respond.WriteErrorDetail(w, code, "sync failed", err.Error())
		return
	}

	h.cache.Invalidate(pyramidKey(userID))
	respond.WriteJSONObject(w, http.StatusOK, SyncResponse{
		SyncID:         res.SyncID,
		UserID:         res.UserID,
		SourceType:     res.Source,
		State:          res.State.String(),
		Saved:          res.Saved,
		Skipped:        res.Skipped,
		PyramidEntries: len(res.Pyramid),
		Tags:           len(res.Tags),
		DurationMS:     res.Duration.Milliseconds(),
		Summary:        res.Summary(),
	})
}

// syncErrorCode maps a pipeline failure onto an API error code. Deadlines
// are checked first: a gateway that times out surfaces as a fetch error
// wrapping the context error.
func syncErrorCode(err error) respond.Code {
	var fetchErr *pipeline.SourceFetchError
	var missing *provider.MissingFieldError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return respond.CodeSyncTimeout
	case errors.Is(err, pipeline.ErrUnsupportedSourceType):
		return respond.CodeUnsupportedSource
	case errors.Is(err, pipeline.ErrEmptySourceData):
		return respond.CodeEmptySource
	case errors.As(err, &missing):
		return respond.CodeMissingField
	case errors.As(err, &fetchErr):
		return respond.CodeFetchFailed
	}
	return respond.CodeSyncFailed
}
