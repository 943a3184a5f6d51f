// Package config loads the host configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/vst3host/pkg/debug"
	"github.com/justyntemme/vst3host/pkg/host"
)

// EnvSearchPath lists extra bundle directories, separated like PATH.
const EnvSearchPath = "VST3_PATH"

// Config is the contents of a vst3host.yaml file.
type Config struct {
	// SearchPaths replaces the platform default directories when set.
	SearchPaths []string `yaml:"search_paths,omitempty"`

	// Concurrency bounds parallel bundle scans. Zero means GOMAXPROCS.
	Concurrency int `yaml:"concurrency,omitempty"`

	// ModuleInfo prefers moduleinfo.json over running the factory.
	// Default: true
	ModuleInfo *bool `yaml:"module_info,omitempty"`

	SharedModules bool     `yaml:"shared_modules,omitempty"`
	Required      []string `yaml:"required,omitempty"`
	MetadataCache int      `yaml:"metadata_cache,omitempty"`
	LatestOnly    bool     `yaml:"latest_only,omitempty"`

	// ParamQueue is the per-instance parameter change capacity.
	// Default: 256
	ParamQueue int `yaml:"param_queue,omitempty"`

	Log   LogConfig   `yaml:"log"`
	Audio AudioConfig `yaml:"audio"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// AudioConfig holds the processing setup used by the CLI.
type AudioConfig struct {
	SampleRate float64 `yaml:"sample_rate,omitempty"`
	BlockSize  int     `yaml:"block_size,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Required:   []string{"processor"},
		ParamQueue: host.DefaultParamQueueSize,
		Log: LogConfig{
			Level:  "info",
			Format: debug.FormatText,
		},
		Audio: AudioConfig{
			SampleRate: 48000,
			BlockSize:  512,
		},
	}
}

// Load reads the file at path over Default. An empty path yields the
// defaults. Directories from VST3_PATH are appended to SearchPaths in both
// cases.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv appends the directories listed in VST3_PATH.
func (c *Config) ApplyEnv() {
	for _, dir := range filepath.SplitList(os.Getenv(EnvSearchPath)) {
		if dir != "" {
			c.SearchPaths = append(c.SearchPaths, dir)
		}
	}
}

// UseModuleInfo reports the module_info setting, true when unset.
func (c *Config) UseModuleInfo() bool {
	return c.ModuleInfo == nil || *c.ModuleInfo
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	if c.MetadataCache < 0 {
		errs = append(errs, fmt.Errorf("metadata_cache must not be negative, got %d", c.MetadataCache))
	}
	if c.ParamQueue < 0 {
		errs = append(errs, fmt.Errorf("param_queue must not be negative, got %d", c.ParamQueue))
	}
	if _, err := host.ParseCapabilities(c.Required); err != nil {
		errs = append(errs, fmt.Errorf("required: %w", err))
	}
	if _, err := debug.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", debug.FormatText, debug.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %g", c.Audio.SampleRate))
	}
	if c.Audio.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.block_size must be positive, got %d", c.Audio.BlockSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Logger builds the logger described by the log section.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := debug.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return debug.NewLogger(w, level, c.Log.Format)
}

// ScannerOptions converts the configuration into scanner options.
func (c *Config) ScannerOptions(logger *slog.Logger) ([]host.Option, error) {
	required, err := host.ParseCapabilities(c.Required)
	if err != nil {
		return nil, err
	}
	opts := []host.Option{
		host.WithLogger(logger),
		host.WithModuleInfo(c.UseModuleInfo()),
		host.WithSharedModules(c.SharedModules),
		host.WithRequiredCapabilities(required),
		host.WithMetadataCache(c.MetadataCache),
		host.WithLatestOnly(c.LatestOnly),
		host.WithConcurrency(c.Concurrency),
		host.WithParamQueueSize(c.ParamQueue),
	}
	if len(c.SearchPaths) > 0 {
		opts = append(opts, host.WithSearchPaths(c.SearchPaths...))
	}
	return opts, nil
}
