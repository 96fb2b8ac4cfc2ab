package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/stratum/internal/engine"
	"github.com/danmuck/stratum/internal/registry"
	"github.com/danmuck/stratum/internal/strategy"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidConfig = errors.New("config: invalid")
	ErrNoPipelines   = errors.New("config: no pipelines")
)

const (
	ClockStep     = "step"
	ClockRealtime = "realtime"
)

type Config struct {
	RunID       string           `toml:"run_id" yaml:"run_id"`
	Ticks       uint64           `toml:"ticks" yaml:"ticks"`
	Initial     float64          `toml:"initial" yaml:"initial"`
	Carry       bool             `toml:"carry" yaml:"carry"`
	OnError     string           `toml:"on_error" yaml:"on_error"`
	MetricsAddr string           `toml:"metrics_addr" yaml:"metrics_addr"`
	Clock       ClockConfig      `toml:"clock" yaml:"clock"`
	Source      SourceConfig     `toml:"source" yaml:"source"`
	Sink        SinkConfig       `toml:"sink" yaml:"sink"`
	Pipelines   []PipelineConfig `toml:"pipelines" yaml:"pipelines"`

	// dir resolves relative file paths; set by Load.
	dir string
}

type ClockConfig struct {
	Mode  string `toml:"mode" yaml:"mode"`
	Start string `toml:"start" yaml:"start"`
	Step  string `toml:"step" yaml:"step"`
}

type SourceConfig struct {
	Static  map[string]float64 `toml:"static" yaml:"static"`
	Profile string             `toml:"profile" yaml:"profile"`
	Loop    bool               `toml:"loop" yaml:"loop"`
}

type SinkConfig struct {
	Log      bool   `toml:"log" yaml:"log"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	SQLite   string `toml:"sqlite" yaml:"sqlite"`
}

type PipelineConfig struct {
	Name       string           `toml:"name" yaml:"name"`
	Merge      string           `toml:"merge" yaml:"merge"`
	Priority   string           `toml:"priority" yaml:"priority"`
	Strategies []StrategyConfig `toml:"strategies" yaml:"strategies"`
}

type StrategyConfig struct {
	Name     string         `toml:"name" yaml:"name"`
	Kind     string         `toml:"kind" yaml:"kind"`
	Priority string         `toml:"priority" yaml:"priority"`
	Params   map[string]any `toml:"params" yaml:"params"`
}

// Default returns the values applied before a file is decoded.
func Default() Config {
	return Config{
		Ticks:   96,
		OnError: string(engine.OnErrorAbort),
		Clock: ClockConfig{
			Mode: ClockStep,
			Step: "15m",
		},
		Sink: SinkConfig{
			Log:      true,
			LogLevel: "info",
		},
	}
}

// Load decodes path (TOML or YAML by extension) over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".toml", "":
		err = decodeTOML(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	cfg.dir = filepath.Dir(path)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeTOML(data []byte, out *Config) error {
	meta, err := toml.Decode(string(data), out)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

// Path resolves p relative to the config file directory.
func (c Config) Path(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

func Validate(cfg Config) error {
	if _, err := engine.ParseOnError(cfg.OnError); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validateClock(cfg.Clock); err != nil {
		return err
	}
	if cfg.Clock.Mode == ClockStep && cfg.Ticks == 0 {
		return fmt.Errorf("%w: ticks must be positive with a step clock", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Sink.LogLevel) != "" && !isLogLevel(cfg.Sink.LogLevel) {
		return fmt.Errorf("%w: sink log_level %q", ErrInvalidConfig, cfg.Sink.LogLevel)
	}
	if len(cfg.Pipelines) == 0 {
		return fmt.Errorf("%w: at least one pipeline is required", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(cfg.Pipelines))
	for i, p := range cfg.Pipelines {
		if err := ValidatePipeline(p); err != nil {
			return fmt.Errorf("pipeline[%d] invalid: %w", i, err)
		}
		name := strings.TrimSpace(p.Name)
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate pipeline %q", ErrInvalidConfig, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func ValidatePipeline(p PipelineConfig) error {
	if err := registry.ValidateName(p.Name); err != nil {
		return fmt.Errorf("%w: name: %v", ErrInvalidConfig, err)
	}
	if _, err := strategy.ParseMerge(p.Merge); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if strings.TrimSpace(p.Priority) != "" {
		if _, err := strategy.ParsePriority(p.Priority); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if len(p.Strategies) == 0 {
		return fmt.Errorf("%w: pipeline %q has no strategies", ErrInvalidConfig, p.Name)
	}
	for i, s := range p.Strategies {
		if err := ValidateStrategy(s); err != nil {
			return fmt.Errorf("strategy[%d] invalid: %w", i, err)
		}
	}
	return nil
}

func ValidateStrategy(s StrategyConfig) error {
	if strings.TrimSpace(s.Kind) == "" {
		return fmt.Errorf("%w: kind is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(s.Name) != "" {
		if err := registry.ValidateName(s.Name); err != nil {
			return fmt.Errorf("%w: name: %v", ErrInvalidConfig, err)
		}
	}
	if strings.TrimSpace(s.Priority) != "" {
		if _, err := strategy.ParsePriority(s.Priority); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func validateClock(c ClockConfig) error {
	switch strings.TrimSpace(c.Mode) {
	case ClockStep, ClockRealtime:
	default:
		return fmt.Errorf("%w: clock mode %q", ErrInvalidConfig, c.Mode)
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.Step))
	if err != nil {
		return fmt.Errorf("%w: clock step: %v", ErrInvalidConfig, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: clock step must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Start) != "" {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(c.Start)); err != nil {
			return fmt.Errorf("%w: clock start: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func isLogLevel(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}
