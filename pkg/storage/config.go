package storage

import (
	"fmt"
	"os"
)

// Config holds the local upload store directories and the optional
// Azure Blob Storage archive.
type Config struct {
	UploadDir    string      `toml:"upload_dir"`
	DetectionDir string      `toml:"detection_dir"`
	Archive      AzureConfig `toml:"archive"`
}

// AzureConfig holds Azure Blob Storage connection parameters.
// The archive is disabled when ConnectionString is empty.
type AzureConfig struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	UploadDir               string
	DetectionDir            string
	ArchiveContainerName    string
	ArchiveConnectionString string
}

// Enabled reports whether an archive connection is configured.
func (c *AzureConfig) Enabled() bool {
	return c.ConnectionString != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.UploadDir != "" {
		c.UploadDir = overlay.UploadDir
	}
	if overlay.DetectionDir != "" {
		c.DetectionDir = overlay.DetectionDir
	}
	if overlay.Archive.ContainerName != "" {
		c.Archive.ContainerName = overlay.Archive.ContainerName
	}
	if overlay.Archive.ConnectionString != "" {
		c.Archive.ConnectionString = overlay.Archive.ConnectionString
	}
}

func (c *Config) loadDefaults() {
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.DetectionDir == "" {
		c.DetectionDir = "runs"
	}
	if c.Archive.ContainerName == "" {
		c.Archive.ContainerName = "detections"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.UploadDir != "" {
		if v := os.Getenv(env.UploadDir); v != "" {
			c.UploadDir = v
		}
	}
	if env.DetectionDir != "" {
		if v := os.Getenv(env.DetectionDir); v != "" {
			c.DetectionDir = v
		}
	}
	if env.ArchiveContainerName != "" {
		if v := os.Getenv(env.ArchiveContainerName); v != "" {
			c.Archive.ContainerName = v
		}
	}
	if env.ArchiveConnectionString != "" {
		if v := os.Getenv(env.ArchiveConnectionString); v != "" {
			c.Archive.ConnectionString = v
		}
	}
}

func (c *Config) validate() error {
	if c.UploadDir == c.DetectionDir {
		return fmt.Errorf("upload_dir and detection_dir must differ")
	}
	if c.Archive.Enabled() && c.Archive.ContainerName == "" {
		return fmt.Errorf("archive container_name required")
	}
	return nil
}
