package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSource     = "solver"
	DefaultDimensions = 2
	DefaultParticles  = 1
	DefaultRadius     = 2.0
	DefaultDt         = 0.01
	DefaultFrames     = 60
	DefaultIntervalMs = 30
	DefaultDataDir    = "runs"
	DefaultLogLevel   = "info"

	// MaxRandomParticles bounds the particle count drawn when the requested
	// count cannot be parsed.
	MaxRandomParticles = 22
)

// Compression codecs understood by the run store.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Kernel      KernelConfig `yaml:"kernel"`
	Dimensions  int          `yaml:"dimensions"`
	Particles   int          `yaml:"particles"`
	Radius      float64      `yaml:"radius"`
	Dt          float32      `yaml:"dt"`
	Frames      int          `yaml:"frames"`
	IntervalMs  int          `yaml:"interval_ms"`
	DataDir     string       `yaml:"data_dir"`
	Compression string       `yaml:"compression"`
	LogLevel    string       `yaml:"log_level"`
}

// KernelConfig names the kernel source (a .c file, a directory holding one,
// or a prebuilt shared library) and the toolchain used to build it. Empty
// Compiler and Flags fall back to the toolchain default.
type KernelConfig struct {
	Source   string   `yaml:"source"`
	Compiler string   `yaml:"compiler,omitempty"`
	Flags    []string `yaml:"flags,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Kernel:      KernelConfig{Source: DefaultSource},
		Dimensions:  DefaultDimensions,
		Particles:   DefaultParticles,
		Radius:      DefaultRadius,
		Dt:          DefaultDt,
		Frames:      DefaultFrames,
		IntervalMs:  DefaultIntervalMs,
		DataDir:     DefaultDataDir,
		Compression: CompressionNone,
		LogLevel:    DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults, so absent keys keep their
// default values.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over a copy of base. base is not modified.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.Kernel.Flags = slices.Clone(base.Kernel.Flags)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first field that cannot drive a run. dt is not
// range-checked: zero and negative steps are legal.
func (c *Config) Validate() error {
	switch {
	case c.Kernel.Source == "":
		return fmt.Errorf("%w: kernel.source is empty", ErrInvalid)
	case c.Dimensions < 1 || c.Dimensions > 3:
		return fmt.Errorf("%w: dimensions must be 1, 2 or 3, got %d", ErrInvalid, c.Dimensions)
	case c.Particles < 1:
		return fmt.Errorf("%w: particles must be at least 1, got %d", ErrInvalid, c.Particles)
	case c.Frames < 0:
		return fmt.Errorf("%w: frames must not be negative, got %d", ErrInvalid, c.Frames)
	case c.IntervalMs < 0:
		return fmt.Errorf("%w: interval_ms must not be negative, got %d", ErrInvalid, c.IntervalMs)
	}
	switch c.Compression {
	case "", CompressionNone, CompressionZstd, CompressionLZ4:
	default:
		return fmt.Errorf("%w: unknown compression %q", ErrInvalid, c.Compression)
	}
	return nil
}
