package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matthewbaird/djinn/internal/filter"
	"github.com/matthewbaird/djinn/internal/poll"
	"github.com/matthewbaird/djinn/internal/sample"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON encode error", "error", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseUUID extracts and validates a UUID path parameter.
func parseUUID(w http.ResponseWriter, r *http.Request, paramName string) (string, bool) {
	raw := chi.URLParam(r, paramName)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid UUID: "+raw)
		return "", false
	}
	return id.String(), true
}

// serviceErrorToHTTP maps pipeline and poll errors to HTTP responses.
func serviceErrorToHTTP(w http.ResponseWriter, logger *slog.Logger, err error) {
	if code := filter.Classify(err); code != "" {
		writeError(w, http.StatusBadRequest, strings.ToUpper(code), err.Error())
		return
	}
	switch {
	case errors.Is(err, sample.ErrInvalidCount):
		writeError(w, http.StatusBadRequest, "INVALID_COUNT", err.Error())
	case errors.Is(err, poll.ErrInvalidCandidate):
		writeError(w, http.StatusBadRequest, "INVALID_CANDIDATE", err.Error())
	case errors.Is(err, poll.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, poll.ErrClosed):
		writeError(w, http.StatusConflict, "POLL_CLOSED", err.Error())
	case errors.Is(err, poll.ErrNoCandidates):
		writeError(w, http.StatusUnprocessableEntity, "NO_MATCHES", "no movie matches the statement")
	default:
		logger.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
