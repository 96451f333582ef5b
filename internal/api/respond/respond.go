// Package respond writes the API's JSON bodies, cache headers and error
// envelopes.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Code identifies an API error to clients. Each code has a fixed status.
type Code string

// Request errors.
const (
	CodeMissingUser       Code = "MISSING_USER"
	CodeInvalidBody       Code = "INVALID_BODY"
	CodeInvalidQuery      Code = "INVALID_QUERY"
	CodeMissingGrade      Code = "MISSING_GRADE"
	CodeInvalidCode       Code = "INVALID_CODE"
	CodeInvalidDiscipline Code = "INVALID_DISCIPLINE"
	CodeUnknownCode       Code = "UNKNOWN_CODE"
	CodeNoEquivalent      Code = "NO_EQUIVALENT"
	CodeRateLimited       Code = "RATE_LIMITED"
)

// Sync errors.
const (
	CodeUnsupportedSource Code = "UNSUPPORTED_SOURCE"
	CodeSyncInProgress    Code = "SYNC_IN_PROGRESS"
	CodeEmptySource       Code = "EMPTY_SOURCE"
	CodeMissingField      Code = "MISSING_FIELD"
	CodeFetchFailed       Code = "FETCH_FAILED"
	CodeSyncTimeout       Code = "SYNC_TIMEOUT"
	CodeSyncFailed        Code = "SYNC_FAILED"
)

// Server errors.
const (
	CodeQueryFailed  Code = "QUERY_FAILED"
	CodeEncodeFailed Code = "ENCODE_FAILED"
)

var statuses = map[Code]int{
	CodeMissingUser:       http.StatusBadRequest,
	CodeInvalidBody:       http.StatusBadRequest,
	CodeInvalidQuery:      http.StatusBadRequest,
	CodeMissingGrade:      http.StatusBadRequest,
	CodeInvalidCode:       http.StatusBadRequest,
	CodeInvalidDiscipline: http.StatusBadRequest,
	CodeUnknownCode:       http.StatusNotFound,
	CodeNoEquivalent:      http.StatusNotFound,
	CodeRateLimited:       http.StatusTooManyRequests,
	CodeUnsupportedSource: http.StatusBadRequest,
	CodeSyncInProgress:    http.StatusConflict,
	CodeEmptySource:       http.StatusUnprocessableEntity,
	CodeMissingField:      http.StatusUnprocessableEntity,
	CodeFetchFailed:       http.StatusBadGateway,
	CodeSyncTimeout:       http.StatusGatewayTimeout,
	CodeSyncFailed:        http.StatusInternalServerError,
	CodeQueryFailed:       http.StatusInternalServerError,
	CodeEncodeFailed:      http.StatusInternalServerError,
}

// Status returns the HTTP status for c; unknown codes are server errors.
func (c Code) Status() int {
	if s, ok := statuses[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the envelope of every API error.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the code, a human message and optional detail such as
// the underlying sync error.
type ErrorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteJSON writes pre-encoded JSON bytes with cache and ETag headers.
func WriteJSON(w http.ResponseWriter, data []byte, etag string, ttl time.Duration, cacheHit bool) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.Header().Set("Vary", "Accept-Encoding")
	setCacheHeaders(w, ttl, cacheHit)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified sends a 304 with the matching ETag.
func WriteNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// WriteError sends the error envelope with the status bound to code.
func WriteError(w http.ResponseWriter, code Code, message string) {
	WriteErrorDetail(w, code, message, "")
}

// WriteErrorDetail is WriteError with a detail string.
func WriteErrorDetail(w http.ResponseWriter, code Code, message, detail string) {
	resp := ErrorResponse{Error: ErrorBody{Code: code, Message: message, Detail: detail}}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code.Status())
	json.NewEncoder(w).Encode(resp)
}

// WriteJSONObject marshals v and writes it with status.
func WriteJSONObject(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func setCacheHeaders(w http.ResponseWriter, ttl time.Duration, cacheHit bool) {
	maxAge := int(ttl.Seconds())
	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Cache-Control",
		fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, maxAge/2))
}
