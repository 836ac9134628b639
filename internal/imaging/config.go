package imaging

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// DefaultMaxPixels rejects images larger than twice the common
// decompression-bomb threshold of 89478485 pixels.
const DefaultMaxPixels int64 = 89478485 * 2

// Config controls which decoded formats are accepted and how JPEGs are encoded.
// VideoExtensions is declared for parity with the upload form but is never consumed.
// MaxPixels bounds width*height before any pixel data is decoded.
type Config struct {
	AllowedExtensions []string `toml:"allowed_extensions"`
	VideoExtensions   []string `toml:"video_extensions"`
	JPEGQuality       int      `toml:"jpeg_quality"`
	MaxPixels         int64    `toml:"max_pixels"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	AllowedExtensions string
	VideoExtensions   string
	JPEGQuality       string
	MaxPixels         string
}

// Allowed reports whether ext (without the dot) is an accepted image extension.
func (c *Config) Allowed(ext string) bool {
	return slices.Contains(c.AllowedExtensions, strings.ToLower(ext))
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
	if overlay.AllowedExtensions != nil {
		c.AllowedExtensions = overlay.AllowedExtensions
	}
	if overlay.VideoExtensions != nil {
		c.VideoExtensions = overlay.VideoExtensions
	}
	if overlay.JPEGQuality != 0 {
		c.JPEGQuality = overlay.JPEGQuality
	}
	if overlay.MaxPixels != 0 {
		c.MaxPixels = overlay.MaxPixels
	}
}

func (c *Config) loadDefaults() {
	if len(c.AllowedExtensions) == 0 {
		c.AllowedExtensions = []string{"jpg", "jpeg", "png", "bmp", "gif", "tiff", "webp", "jfif"}
	}
	if len(c.VideoExtensions) == 0 {
		c.VideoExtensions = []string{"mp4", "avi", "mov", "mkv", "webm"}
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = 90
	}
	if c.MaxPixels == 0 {
		c.MaxPixels = DefaultMaxPixels
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.AllowedExtensions != "" {
		if v := os.Getenv(env.AllowedExtensions); v != "" {
			c.AllowedExtensions = splitList(v)
		}
	}
	if env.VideoExtensions != "" {
		if v := os.Getenv(env.VideoExtensions); v != "" {
			c.VideoExtensions = splitList(v)
		}
	}
	if env.JPEGQuality != "" {
		if v := os.Getenv(env.JPEGQuality); v != "" {
			if q, err := strconv.Atoi(v); err == nil {
				c.JPEGQuality = q
			}
		}
	}
	if env.MaxPixels != "" {
		if v := os.Getenv(env.MaxPixels); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				c.MaxPixels = n
			}
		}
	}
}

func (c *Config) validate() error {
	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("allowed_extensions required")
	}
	for i, ext := range c.AllowedExtensions {
		c.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100: %d", c.JPEGQuality)
	}
	if c.MaxPixels < 1 {
		return fmt.Errorf("max_pixels must be positive: %d", c.MaxPixels)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
