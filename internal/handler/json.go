package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AadeshhhGavhane/c3/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

// envelope is the body shape of every response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

func errorResponse(msg string) envelope {
	return envelope{Success: false, Error: msg}
}

func messageResponse(msg string) envelope {
	return envelope{Success: true, Message: msg}
}

func dataResponse(msg string, data any) envelope {
	return envelope{Success: true, Message: msg, Data: data}
}

// decodeRequest reads a size-limited JSON body into dst, normalizes any email
// field and validates it. It writes the error response itself and reports
// whether the handler should continue.
func decodeRequest[T any](w http.ResponseWriter, r *http.Request, dst *T, normalize func(*T)) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("Request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("Invalid request body"))
		return false
	}

	if normalize != nil {
		normalize(dst)
	}

	if err := validateRequest(dst); err != nil {
		writeServiceError(w, r, err)
		return false
	}
	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindInvalidOTP:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(service.KindOf(err))
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse(service.MessageOf(err)))
}
