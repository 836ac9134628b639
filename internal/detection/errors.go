package detection

import "errors"

var (
	// ErrModelUnavailable is returned when no classifier could be loaded.
	ErrModelUnavailable = errors.New("detection model unavailable")
	// ErrInference wraps failures raised by the classifier during prediction.
	ErrInference = errors.New("inference failed")
)
