// Package infrastructure assembles the shared systems the domain modules
// depend on: lifecycle, logging, database, storage, metrics and the detector.
package infrastructure

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/sightline/internal/config"
	"github.com/JaimeStill/sightline/internal/detection"
	"github.com/JaimeStill/sightline/internal/detection/onnx"
	"github.com/JaimeStill/sightline/internal/metrics"
	"github.com/JaimeStill/sightline/internal/migrations"
	"github.com/JaimeStill/sightline/pkg/database"
	"github.com/JaimeStill/sightline/pkg/lifecycle"
	"github.com/JaimeStill/sightline/pkg/logging"
	"github.com/JaimeStill/sightline/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Archive is nil when no archive connection is configured and Model is nil
// when the detector is disabled or its weights could not be loaded.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Uploads   *storage.Local
	Archive   storage.System
	Metrics   *metrics.Metrics
	Model     detection.Model

	closers []io.Closer
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger, logCloser, err := logging.New(&cfg.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("logging init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Uploads:   storage.NewLocal(&cfg.Storage, logger),
		closers:   []io.Closer{logCloser},
	}

	infra.Database, err = database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	if cfg.Storage.Archive.Enabled() {
		infra.Archive, err = storage.NewAzure(&cfg.Storage.Archive, logger)
		if err != nil {
			return nil, fmt.Errorf("archive init failed: %w", err)
		}
	}

	infra.Metrics, err = metrics.New()
	if err != nil {
		return nil, fmt.Errorf("metrics init failed: %w", err)
	}

	if err := infra.loadModel(&cfg.Detector); err != nil {
		return nil, err
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Migrations run as part of the database startup hook.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle, migrations.Up); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Uploads.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if i.Archive != nil {
		if err := i.Archive.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("archive start failed: %w", err)
		}
	}

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		for _, c := range i.closers {
			if err := c.Close(); err != nil {
				i.Logger.Error("close failed", "error", err)
			}
		}
	})

	return nil
}

// loadModel leaves Model nil when the weights are missing so the service
// still accepts uploads and records them as model_missing.
func (i *Infrastructure) loadModel(cfg *detection.Config) error {
	if cfg.Provider == detection.ProviderNone {
		i.Logger.Info("detector disabled")
		return nil
	}

	model, err := onnx.Load(cfg, i.Logger)
	if err != nil {
		if errors.Is(err, detection.ErrModelUnavailable) {
			i.Logger.Warn("detector unavailable, uploads will be recorded as "+detection.LabelModelMissing, "error", err)
			return nil
		}
		return fmt.Errorf("detector init failed: %w", err)
	}

	i.Model = model
	i.closers = append(i.closers, model)
	return nil
}
