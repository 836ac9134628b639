package detection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Observer receives inference timings. It may be nil.
type Observer interface {
	ObserveInference(d time.Duration, err error)
}

// Invoker runs the configured model and never fails: a missing model yields
// the model_missing label and an inference error yields no labels.
type Invoker struct {
	model    Model
	observer Observer
	logger   *slog.Logger
}

// NewInvoker creates an Invoker. model may be nil.
func NewInvoker(model Model, observer Observer, logger *slog.Logger) *Invoker {
	return &Invoker{
		model:    model,
		observer: observer,
		logger:   logger.With("system", "detection"),
	}
}

// Available reports whether a model is configured.
func (i *Invoker) Available() bool {
	return i.model != nil
}

// Detect returns the distinct labels found in the image at path.
func (i *Invoker) Detect(ctx context.Context, path string) Labels {
	if i.model == nil {
		return Labels{{Name: LabelModelMissing}}
	}

	start := time.Now()
	preds, err := i.model.Predict(ctx, path)
	if i.observer != nil {
		i.observer.ObserveInference(time.Since(start), err)
	}

	if err != nil {
		if !errors.Is(err, ErrInference) {
			err = fmt.Errorf("%w: %w", ErrInference, err)
		}
		i.logger.Warn("model inference error", "path", path, "error", err)
		return nil
	}

	labels := Adapt(preds, i.model.Names())
	i.logger.Debug("inference complete", "path", path, "labels", labels.String(), "duration", time.Since(start))
	return labels
}
