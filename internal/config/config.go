package config

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/neurosim/internal/sim"
)

const (
	DefaultSim       = "bnn"
	DefaultSeed      = 42
	DefaultDt        = 1.0
	DefaultSpeed     = 1.0
	DefaultIntensity = 0.5
	DefaultPeriodMs  = 50
	DefaultTicks     = 500
	DefaultRunsDir   = "runs"
	DefaultBackend   = "file"
	DefaultEpochs    = 200
)

type Config struct {
	Sim           string             `yaml:"sim"`
	Seed          int64              `yaml:"seed"`
	Dt            float64            `yaml:"dt"`
	Speed         float64            `yaml:"speed"`
	Intensity     float64            `yaml:"intensity"`
	MaxIterations int                `yaml:"max_iterations"`
	PeriodMs      int                `yaml:"period_ms"`
	Ticks         int                `yaml:"ticks"`
	Params        map[string]float64 `yaml:"params,omitempty"`
	Options       map[string]string  `yaml:"options,omitempty"`
	ANN           ANNConfig          `yaml:"ann"`
	Storage       StorageConfig      `yaml:"storage"`
	Log           LogConfig          `yaml:"log"`
}

type ANNConfig struct {
	Epochs int `yaml:"epochs"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Sim:       DefaultSim,
		Seed:      DefaultSeed,
		Dt:        DefaultDt,
		Speed:     DefaultSpeed,
		Intensity: DefaultIntensity,
		PeriodMs:  DefaultPeriodMs,
		Ticks:     DefaultTicks,
		ANN:       ANNConfig{Epochs: DefaultEpochs},
		Storage:   StorageConfig{Backend: DefaultBackend, Dir: DefaultRunsDir},
		Log:       LogConfig{Level: "warn", Format: "text"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.Options != nil {
		out.Options = make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			out.Options[k] = v
		}
	}
	return &out
}

func (c *Config) Validate() error {
	if c.Sim == "" {
		return fmt.Errorf("sim must be set")
	}
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", c.Ticks)
	}
	if c.PeriodMs < 0 {
		return fmt.Errorf("period_ms must not be negative, got %d", c.PeriodMs)
	}
	if c.ANN.Epochs < 0 {
		return fmt.Errorf("ann.epochs must not be negative, got %d", c.ANN.Epochs)
	}
	switch c.Storage.Backend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	for k, v := range c.Params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("param %s is not finite", k)
		}
	}
	return c.SimConfig().Validate()
}

// SimConfig converts to session settings. For the ANN the epoch budget is
// the iteration ceiling unless one is set explicitly.
func (c *Config) SimConfig() sim.Config {
	limit := c.MaxIterations
	if c.Sim == "ann" && limit == 0 {
		limit = c.ANN.Epochs
	}
	return sim.Config{
		Seed:          c.Seed,
		Dt:            c.Dt,
		Speed:         c.Speed,
		Intensity:     c.Intensity,
		MaxIterations: limit,
		Period:        time.Duration(c.PeriodMs) * time.Millisecond,
	}
}

// Logger builds the structured logger described by the log section.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
