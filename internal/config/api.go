package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/sightline/pkg/formatting"
	"github.com/JaimeStill/sightline/pkg/middleware"
)

const (
	EnvAPIBasePath      = "SIGHTLINE_API_BASE_PATH"
	EnvAPIMaxUploadSize = "SIGHTLINE_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SIGHTLINE_CORS_ENABLED",
	Origins:          "SIGHTLINE_CORS_ORIGINS",
	AllowedMethods:   "SIGHTLINE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SIGHTLINE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SIGHTLINE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SIGHTLINE_CORS_MAX_AGE",
}

// APIConfig holds JSON API routing, the upload size cap, and CORS settings.
// MaxUploadSize also bounds the HTML upload form.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes. Finalize has already
// rejected unparseable values.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxUploadSize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	c.CORS.Merge(&overlay.CORS)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "16MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single segment like /api: %q", c.BasePath)
	}
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
