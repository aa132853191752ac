package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/stowry"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: errCode, Message: message}); err != nil {
		slog.Error("failed to encode error response", "err", err)
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// HandleError maps a service error onto a response. Authorization failures
// all collapse into one generic 403: the specific kind stays in the log,
// never in the body, so a caller cannot probe which verification step
// failed.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "err", err)

	switch {
	case errors.Is(err, stowry.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Object not found")
	case errors.Is(err, stowry.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "unauthorized", "Request not authorized")
	case errors.Is(err, stowry.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
