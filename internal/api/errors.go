package api

import (
	"errors"
	"net/http"

	"github.com/pixelforge/imagegen-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrEntryNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrEntryNotFound):
		return "History entry not found"

	default:
		return "An unexpected error occurred"
	}
}
