package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"jobmatch-engine/internal/geocode"
	"jobmatch-engine/internal/jobimport"
	"jobmatch-engine/internal/moderation"
	"jobmatch-engine/internal/store"
)

type APIError struct {
	Error struct {
		Code      string   `json:"code"`
		Message   string   `json:"message"`
		Details   []string `json:"details,omitempty"`
		RequestID string   `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details ...string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Details = details
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeServiceError maps package sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var he *jobimport.HeaderError
	switch {
	case errors.As(err, &he):
		WriteError(w, r, http.StatusUnprocessableEntity, "missing_columns", err.Error(), he.Missing...)
	case errors.Is(err, jobimport.ErrTooFewRows):
		WriteError(w, r, http.StatusUnprocessableEntity, "empty_file", err.Error())
	case errors.Is(err, jobimport.ErrNoValidRows):
		WriteError(w, r, http.StatusUnprocessableEntity, "no_valid_rows", err.Error())
	case errors.Is(err, jobimport.ErrSessionNotFound):
		WriteError(w, r, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, jobimport.ErrSessionBusy):
		WriteError(w, r, http.StatusConflict, "session_busy", err.Error())
	case errors.Is(err, jobimport.ErrNothingParsed):
		WriteError(w, r, http.StatusConflict, "nothing_parsed", err.Error())
	case errors.Is(err, store.ErrImportInProgress):
		WriteError(w, r, http.StatusConflict, "import_in_progress", err.Error())
	case errors.Is(err, geocode.ErrNotConfigured):
		WriteError(w, r, http.StatusConflict, "geocoder_not_configured", err.Error())
	case errors.Is(err, moderation.ErrInvalidDuration):
		WriteError(w, r, http.StatusBadRequest, "invalid_duration", err.Error())
	case errors.Is(err, moderation.ErrNotBanned):
		WriteError(w, r, http.StatusNotFound, "not_banned", err.Error())
	case errors.Is(err, sql.ErrNoRows):
		WriteError(w, r, http.StatusNotFound, "not_found", "not found")
	default:
		zap.L().Error("request failed",
			zap.String("request_id", RequestIDFrom(r.Context())), zap.String("path", r.URL.Path), zap.Error(err))
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
