package detection

import (
	"fmt"
	"os"
	"strconv"
)

// Supported detector providers.
const (
	ProviderONNX = "onnx"
	ProviderNone = "none"
)

// Config selects and tunes the object detector.
type Config struct {
	Provider            string  `toml:"provider"`
	ModelPath           string  `toml:"model_path"`
	LabelsPath          string  `toml:"labels_path"`
	InputSize           int     `toml:"input_size"`
	ConfidenceThreshold float32 `toml:"confidence_threshold"`
	NMSThreshold        float32 `toml:"nms_threshold"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider            string
	ModelPath           string
	LabelsPath          string
	InputSize           string
	ConfidenceThreshold string
	NMSThreshold        string
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
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.ModelPath != "" {
		c.ModelPath = overlay.ModelPath
	}
	if overlay.LabelsPath != "" {
		c.LabelsPath = overlay.LabelsPath
	}
	if overlay.InputSize != 0 {
		c.InputSize = overlay.InputSize
	}
	if overlay.ConfidenceThreshold != 0 {
		c.ConfidenceThreshold = overlay.ConfidenceThreshold
	}
	if overlay.NMSThreshold != 0 {
		c.NMSThreshold = overlay.NMSThreshold
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderONNX
	}
	if c.ModelPath == "" {
		c.ModelPath = "best.onnx"
	}
	if c.LabelsPath == "" {
		c.LabelsPath = "labels.txt"
	}
	if c.InputSize == 0 {
		c.InputSize = 640
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = 0.25
	}
	if c.NMSThreshold == 0 {
		c.NMSThreshold = 0.45
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.ModelPath != "" {
		if v := os.Getenv(env.ModelPath); v != "" {
			c.ModelPath = v
		}
	}
	if env.LabelsPath != "" {
		if v := os.Getenv(env.LabelsPath); v != "" {
			c.LabelsPath = v
		}
	}
	if env.InputSize != "" {
		if v := os.Getenv(env.InputSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.InputSize = n
			}
		}
	}
	if env.ConfidenceThreshold != "" {
		if v := os.Getenv(env.ConfidenceThreshold); v != "" {
			if f, err := strconv.ParseFloat(v, 32); err == nil {
				c.ConfidenceThreshold = float32(f)
			}
		}
	}
	if env.NMSThreshold != "" {
		if v := os.Getenv(env.NMSThreshold); v != "" {
			if f, err := strconv.ParseFloat(v, 32); err == nil {
				c.NMSThreshold = float32(f)
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderONNX, ProviderNone:
	default:
		return fmt.Errorf("unsupported provider: %q", c.Provider)
	}
	if c.InputSize <= 0 || c.InputSize%32 != 0 {
		return fmt.Errorf("input_size must be a positive multiple of 32: %d", c.InputSize)
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold >= 1 {
		return fmt.Errorf("confidence_threshold must be in (0, 1): %v", c.ConfidenceThreshold)
	}
	if c.NMSThreshold <= 0 || c.NMSThreshold >= 1 {
		return fmt.Errorf("nms_threshold must be in (0, 1): %v", c.NMSThreshold)
	}
	return nil
}
