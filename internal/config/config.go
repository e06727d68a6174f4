// Package config loads spectool settings from a YAML file, with environment
// variable overrides, and applies them to the logger and the spectrum
// registry.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-spectra/spectrum"
)

// Environment variables that override file settings.
const (
	EnvLogLevel  = "SPECTRA_LOG_LEVEL"
	EnvLogFormat = "SPECTRA_LOG_FORMAT"
	EnvAddr      = "SPECTRA_ADDR"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all spectool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Convert ConvertConfig `yaml:"convert"`

	// Prototypes overrides default attribute values per spectrum type,
	// e.g. prototypes: {LFC1D: {time_sample: "30"}}.
	Prototypes map[string]map[string]string `yaml:"prototypes"`
}

// LoggingConfig selects the log level and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// ServerConfig holds HTTP settings for spectool serve.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ConvertConfig holds settings for spectool convert.
type ConvertConfig struct {
	// Parallel bounds the number of files converted at once.
	Parallel int `yaml:"parallel"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Convert: ConvertConfig{Parallel: 4},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var err error
	if _, perr := zapcore.ParseLevel(c.Logging.Level); perr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		err = multierr.Append(err, fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format))
	}
	if c.Server.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("%w: server.addr is empty", ErrInvalid))
	}
	if c.Convert.Parallel < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: convert.parallel must be positive", ErrInvalid))
	}
	return err
}

// Logger builds the zap logger described by the logging section.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if strings.EqualFold(c.Logging.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// ApplyPrototypes sets every configured prototype default on r.
func (c Config) ApplyPrototypes(r *spectrum.Registry) error {
	var err error
	for _, typ := range sortedKeys(c.Prototypes) {
		attrs := c.Prototypes[typ]
		for _, id := range sortedKeys(attrs) {
			err = multierr.Append(err, r.SetDefault(typ, spectrum.Setting{ID: id, Value: attrs[id]}))
		}
	}
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
