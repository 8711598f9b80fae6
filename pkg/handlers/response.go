package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
)

// ApiResponse is the standard success envelope.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(ApiResponse{
		Success: false,
		Error:   errorCode,
		Message: message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteData wraps data in the success envelope.
func WriteData(w http.ResponseWriter, statusCode int, data any) error {
	return WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data})
}

// serviceError maps well-known service errors to HTTP responses and falls
// back to a generic 500 for anything unexpected.
func serviceError(w http.ResponseWriter, err error, fallbackCode string) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrFreeLimitReached):
		return ErrorResponse(w, http.StatusPaymentRequired, "free_limit_reached",
			"Free-tier post limit reached. Subscribe to continue generating posts.")
	case errors.Is(err, apperrors.ErrPlatformLimit):
		return ErrorResponse(w, http.StatusBadRequest, "platform_limit",
			"The edited X post exceeds 280 characters. Shorten the replacement and try again.")
	case errors.Is(err, apperrors.ErrInvalidRange):
		return ErrorResponse(w, http.StatusBadRequest, "invalid_range",
			"Selection range is out of bounds for the stored text")
	case errors.Is(err, apperrors.ErrNotConnected):
		return ErrorResponse(w, http.StatusBadRequest, "not_connected",
			"No connected account for this platform")
	case errors.Is(err, apperrors.ErrEmptyTranscript):
		return ErrorResponse(w, http.StatusUnprocessableEntity, "empty_transcript",
			"The call has no transcript yet")
	default:
		return ErrorResponse(w, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
