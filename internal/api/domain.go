package api

import (
	"github.com/JaimeStill/sightline/internal/detection"
	"github.com/JaimeStill/sightline/internal/detections"
	"github.com/JaimeStill/sightline/internal/geo"
	"github.com/JaimeStill/sightline/internal/imaging"
	"github.com/JaimeStill/sightline/pkg/storage"
)

// Domain holds the domain systems shared by the JSON API and the web pages.
type Domain struct {
	Detections detections.System
	Resolver   *geo.Resolver
	Uploads    storage.System
}

// NewDomain wires the upload pipeline from the runtime.
func NewDomain(runtime *Runtime) *Domain {
	normalizer := imaging.New(&runtime.Imaging, runtime.Uploads, runtime.Logger)
	invoker := detection.NewInvoker(runtime.Model, runtime.Metrics, runtime.Logger)

	deps := detections.Deps{
		DB:         runtime.Database.Connection(),
		Driver:     runtime.Database.Driver(),
		Normalizer: normalizer,
		Detector:   invoker,
		Uploads:    runtime.Uploads,
		Archive:    runtime.Archive,
		Observer:   runtime.Metrics,
		Logger:     runtime.Logger,
	}

	return &Domain{
		Detections: detections.New(deps),
		Resolver:   runtime.Resolver,
		Uploads:    runtime.Uploads,
	}
}
