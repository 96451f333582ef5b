package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/cruxlog/internal/api/respond"
	"github.com/albapepper/cruxlog/internal/cache"
	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/provider"
)

// ConvertGrade translates a grade between two systems of the same family.
// @Summary Convert a grade
// @Description Literal conversion YDS<->French or V-scale<->Font.
// @Tags grades
// @Produce json
// @Param grade query string true "Grade, e.g. 5.10a"
// @Param from query string true "Source system" Enums(yds, french, v_scale, font)
// @Param to query string true "Target system" Enums(yds, french, v_scale, font)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /grades/convert [get]
func (h *Handler) ConvertGrade(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("grade")
	from, okFrom := grade.ParseSystem(q.Get("from"))
	to, okTo := grade.ParseSystem(q.Get("to"))
	if raw == "" || !okFrom || !okTo {
		respond.WriteError(w, respond.CodeInvalidQuery, "grade, from and to are required; systems: yds, french, v_scale, font")
		return
	}

	out, ok := h.grades.Convert(raw, from, to)
	if !ok {
		respond.WriteError(w, respond.CodeNoEquivalent, "no equivalent for "+raw+" in "+string(to))
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"grade":  raw,
		"from":   from,
		"to":     to,
		"result": out,
	})
}

// GradeCode resolves a raw grade to its ordinal code.
// @Summary Resolve a grade code
// @Description Returns the ordinal code and canonical display grade. Unrecognized grades yield code 0.
// @Tags grades
// @Produce json
// @Param grade query string true "Raw grade string"
// @Param discipline query string false "Discipline, disambiguates Font from French"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /grades/code [get]
func (h *Handler) GradeCode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("grade")
	if raw == "" {
		respond.WriteError(w, respond.CodeMissingGrade, "grade query parameter is required")
		return
	}
	d := provider.DisciplineUnset
	if s := q.Get("discipline"); s != "" {
		var ok bool
		if d, ok = provider.ParseDiscipline(s); !ok {
			respond.WriteError(w, respond.CodeInvalidDiscipline, "unknown discipline "+s)
			return
		}
	}

	code := h.grades.Code(raw, d)
	display, _ := h.grades.Grade(code)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"grade":        raw,
		"discipline":   d,
		"code":         code,
		"binned_grade": display,
	})
}

// GetGrade returns the display grade for a code.
// @Summary Display grade for a code
// @Tags grades
// @Produce json
// @Param code path int true "Grade code"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /grades/{code} [get]
func (h *Handler) GetGrade(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil {
		respond.WriteError(w, respond.CodeInvalidCode, "code must be an integer")
		return
	}
	display, err := h.grades.Grade(code)
	if errors.Is(err, grade.ErrInvalidGradeCode) {
		respond.WriteError(w, respond.CodeUnknownCode, err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"code":  code,
		"grade": display,
	})
}

// ListGrades returns the ascending grade order of a discipline's family.
// @Summary List grades
// @Description Canonical ascending grade order with codes. Cached with ETag support.
// @Tags grades
// @Produce json
// @Param discipline path string true "Discipline" Enums(sport, trad, boulder, tr, mixed, winter_ice, aid)
// @Success 200 {object} map[string]interface{}
// @Success 304
// @Failure 400 {object} respond.ErrorResponse
// @Router /grades/list/{discipline} [get]
func (h *Handler) ListGrades(w http.ResponseWriter, r *http.Request) {
	d, ok := provider.ParseDiscipline(chi.URLParam(r, "discipline"))
	if !ok {
		respond.WriteError(w, respond.CodeInvalidDiscipline, "unknown discipline")
		return
	}

	cacheKey := "grades|" + string(d)
	ttl := cache.TTLGradeList

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	raw, err := json.Marshal(map[string]interface{}{
		"discipline": d,
		"grades":     h.grades.SortedGrades(d),
		"codes":      h.grades.SortedCodes(d),
	})
	if err != nil {
		respond.WriteError(w, respond.CodeEncodeFailed, "could not encode grades")
		return
	}
	etag := h.cache.Set(cacheKey, raw, ttl)
	respond.WriteJSON(w, raw, etag, ttl, false)
}
