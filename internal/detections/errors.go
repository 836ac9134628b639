package detections

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/sightline/internal/imaging"
)

// Domain errors for detection operations.
var (
	ErrNoFile       = errors.New("No file uploaded.")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrNotFound     = errors.New("detection not found")
	ErrDuplicate    = errors.New("detection already exists")
	ErrStore        = errors.New("detection store failure")
)

// MapHTTPStatus maps detection domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoFile), errors.Is(err, imaging.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err. Validation failures keep
// their sentinel text; anything else is reported generically.
func Message(err error) string {
	for _, known := range []error{ErrNoFile, imaging.ErrInvalidImage, ErrFileTooLarge, ErrNotFound} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return http.StatusText(MapHTTPStatus(err))
}
