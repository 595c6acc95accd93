// Package config holds the settings shared by the CLI, the batch runner and
// the service.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Someblueman/codeanalysis/internal/analysis"
	"github.com/Someblueman/codeanalysis/internal/pyast"
)

// Framing values for the JSON-RPC transport.
const (
	FramingVSCode = "vscode"
	FramingLine   = "line"
)

// Config captures every knob of the analyzer and its entry points.
type Config struct {
	LogLevel string   `yaml:"log_level"`
	Analysis Analysis `yaml:"analysis"`
	Server   Server   `yaml:"server"`
	Batch    Batch    `yaml:"batch"`
}

// Analysis tunes the engine.
type Analysis struct {
	LowThreshold    int      `yaml:"low_threshold"`
	MediumThreshold int      `yaml:"medium_threshold"`
	DocstringLimit  int      `yaml:"docstring_limit"`
	AbstractMarkers []string `yaml:"abstract_markers"`
	MaxDepth        int      `yaml:"max_depth"`
}

// Server configures the JSON-RPC and HTTP listeners.
type Server struct {
	Addr     string        `yaml:"addr"`
	HTTPAddr string        `yaml:"http_addr"`
	Framing  string        `yaml:"framing"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Batch configures directory analysis.
type Batch struct {
	Workers     int      `yaml:"workers"`
	Extensions  []string `yaml:"extensions"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Analysis: Analysis{
			LowThreshold:    analysis.DefaultLowThreshold,
			MediumThreshold: analysis.DefaultMediumThreshold,
			DocstringLimit:  analysis.DefaultDocstringLimit,
			AbstractMarkers: append([]string(nil), analysis.DefaultAbstractMarkers...),
			MaxDepth:        pyast.DefaultMaxDepth,
		},
		Server: Server{
			Addr:    ":50053",
			Framing: FramingVSCode,
			Timeout: 10 * time.Second,
		},
		Batch: Batch{
			Workers:     runtime.NumCPU(),
			Extensions:  []string{".py", ".pyi"},
			ExcludeDirs: []string{"__pycache__", "venv", "env", "site-packages", "node_modules", "vendor", "build", "dist"},
		},
	}
}

// Normalize fills missing values with defaults and rejects settings that
// cannot work.
func (c *Config) Normalize() error {
	defaults := Default()

	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Analysis.LowThreshold <= 0 {
		c.Analysis.LowThreshold = defaults.Analysis.LowThreshold
	}
	if c.Analysis.MediumThreshold <= 0 {
		c.Analysis.MediumThreshold = defaults.Analysis.MediumThreshold
	}
	if c.Analysis.MediumThreshold < c.Analysis.LowThreshold {
		return fmt.Errorf("medium_threshold %d below low_threshold %d", c.Analysis.MediumThreshold, c.Analysis.LowThreshold)
	}
	if c.Analysis.DocstringLimit <= 0 {
		c.Analysis.DocstringLimit = defaults.Analysis.DocstringLimit
	}
	if c.Analysis.AbstractMarkers == nil {
		c.Analysis.AbstractMarkers = defaults.Analysis.AbstractMarkers
	}
	if c.Analysis.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	switch c.Server.Framing {
	case "":
		c.Server.Framing = defaults.Server.Framing
	case FramingVSCode, FramingLine:
	default:
		return fmt.Errorf("unknown framing %q", c.Server.Framing)
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = defaults.Server.Timeout
	}

	if c.Batch.Workers <= 0 {
		c.Batch.Workers = defaults.Batch.Workers
	}
	if len(c.Batch.Extensions) == 0 {
		c.Batch.Extensions = defaults.Batch.Extensions
	}
	for i, ext := range c.Batch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Batch.Extensions[i] = ext
	}
	if c.Batch.ExcludeDirs == nil {
		c.Batch.ExcludeDirs = defaults.Batch.ExcludeDirs
	}
	return nil
}

// AnalysisOptions converts the analysis section into engine options.
func (c Config) AnalysisOptions(logger *slog.Logger) analysis.Options {
	opts := analysis.DefaultOptions()
	opts.LowThreshold = c.Analysis.LowThreshold
	opts.MediumThreshold = c.Analysis.MediumThreshold
	opts.DocstringLimit = c.Analysis.DocstringLimit
	opts.AbstractMarkers = append([]string(nil), c.Analysis.AbstractMarkers...)
	opts.MaxDepth = c.Analysis.MaxDepth
	opts.Logger = logger
	return opts
}

// Load reads a YAML file over the defaults and normalizes the result.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if path == "" {
		return fmt.Errorf("config path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}
