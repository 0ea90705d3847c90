// Package config loads the runtime settings shared by the schemactl tool and
// embedders: codec limits, arena bounds, envelope compression and logging.
package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-schema/codec"
	"github.com/wippyai/wasm-schema/envelope"
	"github.com/wippyai/wasm-schema/mem"
)

// EnvVar names the environment variable Load reads the config path from.
const EnvVar = "WASM_SCHEMA_CONFIG"

type Config struct {
	Codec    codec.Limits   `yaml:"codec"`
	Arena    ArenaConfig    `yaml:"arena"`
	Envelope EnvelopeConfig `yaml:"envelope"`
	Log      LogConfig      `yaml:"log"`
}

type ArenaConfig struct {
	// MaxBytes caps the bytes an arena may reserve. Zero is unbounded.
	MaxBytes  int64 `yaml:"max_bytes"`
	ChunkSize int   `yaml:"chunk_size"`
}

type EnvelopeConfig struct {
	Compression envelope.Compression `yaml:"compression"`
	MaxPayload  int                  `yaml:"max_payload"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Codec: codec.DefaultLimits(),
		Envelope: EnvelopeConfig{
			Compression: envelope.Zstd,
			MaxPayload:  envelope.DefaultMaxPayload,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the file named by WASM_SCHEMA_CONFIG, or returns the defaults
// when it is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults and validates the result. Keys absent
// from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Codec.MaxStringSize <= 0 {
		errs = append(errs, fmt.Errorf("codec.max_string_size must be positive"))
	}
	if c.Codec.MaxListLength <= 0 {
		errs = append(errs, fmt.Errorf("codec.max_list_length must be positive"))
	}
	if c.Codec.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("codec.max_depth must be positive"))
	}
	if c.Arena.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("arena.max_bytes must not be negative"))
	}
	if c.Arena.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("arena.chunk_size must not be negative"))
	}
	if c.Envelope.MaxPayload <= 0 {
		errs = append(errs, fmt.Errorf("envelope.max_payload must be positive"))
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// CodecOptions returns the codec options this configuration selects.
func (c *Config) CodecOptions(logger *zap.Logger) []codec.Option {
	opts := []codec.Option{codec.WithLimits(c.Codec)}
	if logger != nil {
		opts = append(opts, codec.WithLogger(logger))
	}
	return opts
}

// NewArena returns an arena bounded by the arena settings.
func (c *Config) NewArena() *mem.Arena {
	var opts []mem.Option
	if c.Arena.MaxBytes > 0 {
		opts = append(opts, mem.WithMaxBytes(c.Arena.MaxBytes))
	}
	if c.Arena.ChunkSize > 0 {
		opts = append(opts, mem.WithChunkSize(c.Arena.ChunkSize))
	}
	return mem.NewArena(opts...)
}

// Logger builds a zap logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
