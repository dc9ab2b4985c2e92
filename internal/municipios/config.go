package municipios

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// DefaultSource is where municipality records are read from when
// MUNICIPIOS_SOURCE is unset.
const DefaultSource = "static/municipios.json"

// SourceDatabase selects the municipios.boundaries table as record source.
const SourceDatabase = "db"

// DefaultCacheTTL bounds how long normalized features live in redis.
const DefaultCacheTTL = 6 * time.Hour

var (
	ErrMissingSource  = errors.New("MUNICIPIOS_SOURCE is empty")
	ErrInvalidTTL     = errors.New("MUNICIPIOS_CACHE_TTL must be a positive duration")
	ErrInvalidOpacity = errors.New("style opacity must be between 0 and 1")
)

// Config holds the runtime settings of the municipios module.
type Config struct {
	// Source is a file path, an http(s) URL, or "db".
	Source string

	// CatalogURL points at a remote region catalog. Empty reads the catalog
	// from the regions tables.
	CatalogURL string

	// StyleFile is an optional YAML file overriding the default styles.
	StyleFile string

	// RedisURL enables the normalized feature cache.
	RedisURL string
	CacheTTL time.Duration
}

// LoadConfigFromEnv reads the module configuration.
//
// Environment variables:
//   - MUNICIPIOS_SOURCE: path, URL or "db" (default: static/municipios.json)
//   - REGION_CATALOG_URL: remote catalog endpoint (default: database)
//   - MAP_STYLE_FILE: YAML style overrides (optional)
//   - REDIS_URL: redis://host:port/db for the feature cache (optional)
//   - MUNICIPIOS_CACHE_TTL: Go duration, e.g. "6h" (default: 6h)
func LoadConfigFromEnv() Config {
	src := strings.TrimSpace(os.Getenv("MUNICIPIOS_SOURCE"))
	if src == "" {
		src = DefaultSource
	}

	ttl := DefaultCacheTTL
	if v := strings.TrimSpace(os.Getenv("MUNICIPIOS_CACHE_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		} else {
			ttl = -1
		}
	}

	return Config{
		Source:     src,
		CatalogURL: strings.TrimSpace(os.Getenv("REGION_CATALOG_URL")),
		StyleFile:  strings.TrimSpace(os.Getenv("MAP_STYLE_FILE")),
		RedisURL:   strings.TrimSpace(os.Getenv("REDIS_URL")),
		CacheTTL:   ttl,
	}
}

// Validate checks the configuration before the module starts.
func (c Config) Validate() error {
	if c.Source == "" {
		return ErrMissingSource
	}
	if c.RedisURL != "" && c.CacheTTL <= 0 {
		return ErrInvalidTTL
	}
	return nil
}

// PathStyle is the look of one polygon on the map.
type PathStyle struct {
	Color       string  `json:"color" yaml:"color"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Opacity     float64 `json:"opacity" yaml:"opacity"`
	FillOpacity float64 `json:"fillOpacity" yaml:"fill_opacity"`
}

// StyleConfig holds the default color and the normal and highlighted
// stroke/fill settings.
type StyleConfig struct {
	DefaultColor string    `yaml:"default_color"`
	Normal       PathStyle `yaml:"normal"`
	Highlight    PathStyle `yaml:"highlight"`
}

// DefaultStyleConfig matches the admin console map.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		DefaultColor: "#0b5ed7",
		Normal:       PathStyle{Weight: 1, Opacity: 0.9, FillOpacity: 0.35},
		Highlight:    PathStyle{Weight: 2.5, Opacity: 0.95, FillOpacity: 0.6},
	}
}

// LoadStyleConfig reads YAML overrides from path on top of the defaults.
// An empty path returns the defaults.
func LoadStyleConfig(path string) (StyleConfig, error) {
	cfg := DefaultStyleConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read style file: %w", err)
	}
	return ParseStyleConfig(data)
}

// ParseStyleConfig decodes YAML overrides on top of the defaults. Fields left
// out keep their default value.
func ParseStyleConfig(data []byte) (StyleConfig, error) {
	cfg := DefaultStyleConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultStyleConfig(), fmt.Errorf("parse style file: %w", err)
	}
	for _, s := range []PathStyle{cfg.Normal, cfg.Highlight} {
		if s.Opacity < 0 || s.Opacity > 1 || s.FillOpacity < 0 || s.FillOpacity > 1 {
			return DefaultStyleConfig(), ErrInvalidOpacity
		}
	}
	return cfg, nil
}
