package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorUsesCodeStatus(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeInvalidBody, http.StatusBadRequest},
		{CodeUnknownCode, http.StatusNotFound},
		{CodeSyncInProgress, http.StatusConflict},
		{CodeMissingField, http.StatusUnprocessableEntity},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeFetchFailed, http.StatusBadGateway},
		{CodeSyncTimeout, http.StatusGatewayTimeout},
		{CodeSyncFailed, http.StatusInternalServerError},
		{Code("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, tc.code, "boom")
		assert.Equal(t, tc.status, rec.Code, string(tc.code))
	}
}

func TestWriteErrorDetailEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorDetail(rec, CodeMissingField, "sync failed", "missing field date")

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeMissingField, body.Error.Code)
	assert.Equal(t, "sync failed", body.Error.Message)
	assert.Equal(t, "missing field date", body.Error.Detail)
}

func TestWriteJSONCacheHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, []byte(`[]`), `W/"abc"`, 5*time.Minute, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=300, stale-while-revalidate=150", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "[]", rec.Body.String())
}
