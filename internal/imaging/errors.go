package imaging

import (
	"errors"
	"net/http"
)

// ErrInvalidImage is returned when uploaded bytes do not decode as a supported image.
var ErrInvalidImage = errors.New("Uploaded file is not a valid image")

// MapHTTPStatus maps imaging errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidImage) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
