// Package config loads the service configuration from config.toml, an
// optional per-environment overlay, a .env file, and SIGHTLINE_* variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/sightline/internal/detection"
	"github.com/JaimeStill/sightline/internal/geo"
	"github.com/JaimeStill/sightline/internal/imaging"
	"github.com/JaimeStill/sightline/pkg/database"
	"github.com/JaimeStill/sightline/pkg/logging"
	"github.com/JaimeStill/sightline/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvSightlineEnv             = "SIGHTLINE_ENV"
	EnvSightlineShutdownTimeout = "SIGHTLINE_SHUTDOWN_TIMEOUT"
	EnvSightlineVersion         = "SIGHTLINE_VERSION"
)

var databaseEnv = &database.Env{
	Driver:          "SIGHTLINE_DB_DRIVER",
	Path:            "SIGHTLINE_DB_PATH",
	Host:            "SIGHTLINE_DB_HOST",
	Port:            "SIGHTLINE_DB_PORT",
	Name:            "SIGHTLINE_DB_NAME",
	User:            "SIGHTLINE_DB_USER",
	Password:        "SIGHTLINE_DB_PASSWORD",
	SSLMode:         "SIGHTLINE_DB_SSL_MODE",
	MaxOpenConns:    "SIGHTLINE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SIGHTLINE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SIGHTLINE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SIGHTLINE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	UploadDir:               "SIGHTLINE_STORAGE_UPLOAD_DIR",
	DetectionDir:            "SIGHTLINE_STORAGE_DETECTION_DIR",
	ArchiveContainerName:    "SIGHTLINE_ARCHIVE_CONTAINER_NAME",
	ArchiveConnectionString: "SIGHTLINE_ARCHIVE_CONNECTION_STRING",
}

var imagingEnv = &imaging.Env{
	AllowedExtensions: "SIGHTLINE_IMAGING_ALLOWED_EXTENSIONS",
	VideoExtensions:   "SIGHTLINE_IMAGING_VIDEO_EXTENSIONS",
	JPEGQuality:       "SIGHTLINE_IMAGING_JPEG_QUALITY",
	MaxPixels:         "SIGHTLINE_IMAGING_MAX_PIXELS",
}

var detectorEnv = &detection.Env{
	Provider:            "SIGHTLINE_DETECTOR_PROVIDER",
	ModelPath:           "SIGHTLINE_DETECTOR_MODEL_PATH",
	LabelsPath:          "SIGHTLINE_DETECTOR_LABELS_PATH",
	InputSize:           "SIGHTLINE_DETECTOR_INPUT_SIZE",
	ConfidenceThreshold: "SIGHTLINE_DETECTOR_CONFIDENCE_THRESHOLD",
	NMSThreshold:        "SIGHTLINE_DETECTOR_NMS_THRESHOLD",
}

var locationEnv = &geo.Env{
	CityName:  "SIGHTLINE_LOCATION_CITY_NAME",
	Latitude:  "SIGHTLINE_LOCATION_LATITUDE",
	Longitude: "SIGHTLINE_LOCATION_LONGITUDE",
	Keywords:  "SIGHTLINE_LOCATION_KEYWORDS",
}

var loggingEnv = &logging.Env{
	Level:      "SIGHTLINE_LOG_LEVEL",
	Format:     "SIGHTLINE_LOG_FORMAT",
	File:       "SIGHTLINE_LOG_FILE",
	MaxSizeMB:  "SIGHTLINE_LOG_MAX_SIZE_MB",
	MaxBackups: "SIGHTLINE_LOG_MAX_BACKUPS",
	MaxAgeDays: "SIGHTLINE_LOG_MAX_AGE_DAYS",
}

// Config is the root configuration for the Sightline service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	Imaging         imaging.Config   `toml:"imaging"`
	Detector        detection.Config `toml:"detector"`
	Location        geo.Config       `toml:"location"`
	API             APIConfig        `toml:"api"`
	Logging         logging.Config   `toml:"logging"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the SIGHTLINE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSightlineEnv); env != "" {
		return env
	}
	return "local"
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env (if present) into the process environment, then the base
// config, then any environment overlay, and finalizes all values. Without a
// config.toml, defaults and environment variables provide everything.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Imaging.Merge(&overlay.Imaging)
	c.Detector.Merge(&overlay.Detector)
	c.Location.Merge(&overlay.Location)
	c.API.Merge(&overlay.API)
	c.Logging.Merge(&overlay.Logging)
}

// Finalize applies defaults, SIGHTLINE_* overrides, and validation to
// the root config and every sub-config.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Imaging.Finalize(imagingEnv); err != nil {
		return fmt.Errorf("imaging: %w", err)
	}
	if err := c.Detector.Finalize(detectorEnv); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := c.Location.Finalize(locationEnv); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSightlineShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSightlineVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvSightlineEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
