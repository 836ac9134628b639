package geo

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config describes the default city used when a location cannot be parsed.
type Config struct {
	CityName  string   `toml:"city_name"`
	Latitude  *float64 `toml:"latitude"`
	Longitude *float64 `toml:"longitude"`
	Keywords  []string `toml:"keywords"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	CityName  string
	Latitude  string
	Longitude string
	Keywords  string
}

// Default returns the configured default city coordinates.
func (c *Config) Default() Coordinates {
	return Coordinates{Lat: *c.Latitude, Lon: *c.Longitude}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites set fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.CityName != "" {
		c.CityName = overlay.CityName
	}
	if overlay.Latitude != nil {
		c.Latitude = overlay.Latitude
	}
	if overlay.Longitude != nil {
		c.Longitude = overlay.Longitude
	}
	if overlay.Keywords != nil {
		c.Keywords = overlay.Keywords
	}
}

func (c *Config) loadDefaults() {
	if c.CityName == "" {
		c.CityName = "Muzaffarabad, Azad Kashmir"
	}
	if c.Latitude == nil {
		lat := 34.3700
		c.Latitude = &lat
	}
	if c.Longitude == nil {
		lon := 73.4711
		c.Longitude = &lon
	}
	if c.Keywords == nil {
		c.Keywords = []string{"muzaffarabad", "azad"}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.CityName != "" {
		if v := os.Getenv(env.CityName); v != "" {
			c.CityName = v
		}
	}
	if env.Latitude != "" {
		if v := os.Getenv(env.Latitude); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.Latitude = &f
			}
		}
	}
	if env.Longitude != "" {
		if v := os.Getenv(env.Longitude); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.Longitude = &f
			}
		}
	}
	if env.Keywords != "" {
		if v := os.Getenv(env.Keywords); v != "" {
			c.Keywords = nil
			for _, k := range strings.Split(v, ",") {
				if trimmed := strings.TrimSpace(k); trimmed != "" {
					c.Keywords = append(c.Keywords, trimmed)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	if *c.Latitude < -90 || *c.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %v", *c.Latitude)
	}
	if *c.Longitude < -180 || *c.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %v", *c.Longitude)
	}
	for i, k := range c.Keywords {
		c.Keywords[i] = strings.ToLower(k)
	}
	return nil
}
