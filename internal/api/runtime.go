package api

import (
	"github.com/JaimeStill/sightline/internal/config"
	"github.com/JaimeStill/sightline/internal/geo"
	"github.com/JaimeStill/sightline/internal/imaging"
	"github.com/JaimeStill/sightline/internal/infrastructure"
)

// Runtime extends Infrastructure with the configuration the domain
// systems are built from.
type Runtime struct {
	*infrastructure.Infrastructure
	Imaging       imaging.Config
	Resolver      *geo.Resolver
	MaxUploadSize int64
}

// NewRuntime creates a runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure, module string) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", module)

	return &Runtime{
		Infrastructure: &scoped,
		Imaging:        cfg.Imaging,
		Resolver:       geo.NewResolver(&cfg.Location),
		MaxUploadSize:  cfg.API.MaxUploadSizeBytes(),
	}
}
