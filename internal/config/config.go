// Package config loads plistreader settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/twinfer/plistreader/internal/render"
	"github.com/twinfer/plistreader/pkg/manifest"
	"gopkg.in/yaml.v3"
)

// Config contains the settings shared by the command line tool
type Config struct {
	Format      string `json:"format" yaml:"format" toml:"format"`
	Concurrency int    `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	ChunkSize   int    `json:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`
	Suffix      string `json:"suffix" yaml:"suffix" toml:"suffix"`
	Filter      string `json:"filter" yaml:"filter" toml:"filter"`
	Query       string `json:"query" yaml:"query" toml:"query"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Format:    string(render.FormatJSON),
		ChunkSize: manifest.DefaultChunkSize,
		Suffix:    manifest.DefaultSuffix,
		LogLevel:  "warn",
	}
}

// Load reads a config file on top of the defaults. Files ending in .toml are
// parsed as TOML, anything else as YAML. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values without compiling expressions
func (c Config) Validate() error {
	var errs []error
	if _, err := render.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if c.Suffix == "" {
		errs = append(errs, errors.New("suffix cannot be empty"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options validates the configuration and converts it into pipeline options
func (c Config) Options(logger *slog.Logger) ([]manifest.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	format, _ := render.ParseFormat(c.Format)
	return []manifest.Option{
		manifest.WithLogger(logger),
		manifest.WithFormat(format),
		manifest.WithConcurrency(c.Concurrency),
		manifest.WithChunkSize(c.ChunkSize),
		manifest.WithSuffix(c.Suffix),
		manifest.WithEntryFilter(c.Filter),
		manifest.WithQuery(c.Query),
	}, nil
}

// ParseLevel maps a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
