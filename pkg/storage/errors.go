package storage

import (
	"errors"
	"net/http"
)

// Key and lookup failures shared by every backend.
var (
	ErrNotFound   = errors.New("object not found")
	ErrEmptyKey   = errors.New("storage key must not be empty")
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

// MapHTTPStatus returns 404 for missing objects, 400 for rejected keys
// and 500 otherwise.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
