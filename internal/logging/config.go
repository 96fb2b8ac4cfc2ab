package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "STRATUM_LOG_LEVEL"
	EnvLogTimestamp = "STRATUM_LOG_TIMESTAMP"
	EnvLogNoColor   = "STRATUM_LOG_NOCOLOR"
	EnvLogBypass    = "STRATUM_LOG_BYPASS"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger setup applied to the zerolog global logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	// Bypass writes plain JSON lines instead of the console writer.
	Bypass bool
	Out    io.Writer
}

// One struct per variable; a malformed value is skipped alone.
// Pointers keep "unset" distinct from false.
type levelOverride struct {
	Level string `env:"STRATUM_LOG_LEVEL"`
}

type timestampOverride struct {
	Timestamp *bool `env:"STRATUM_LOG_TIMESTAMP"`
}

type noColorOverride struct {
	NoColor *bool `env:"STRATUM_LOG_NOCOLOR"`
}

type bypassOverride struct {
	Bypass *bool `env:"STRATUM_LOG_BYPASS"`
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := defaultConfig(profile)
		applyEnvOverrides(&cfg)
		Apply(cfg)
	})
}

// Apply installs cfg as the global zerolog logger.
func Apply(cfg Config) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	zerolog.SetGlobalLevel(cfg.Level)

	var logger zerolog.Logger
	if cfg.Bypass {
		logger = zerolog.New(out)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		})
	}
	if cfg.Timestamp {
		logger = logger.With().Timestamp().Logger()
	}
	log.Logger = logger
}

func defaultConfig(profile Profile) Config {
	cfg := Config{
		Out:     os.Stderr,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if raw, err := env.ParseAs[levelOverride](); err == nil {
		if lvl, ok := parseLevel(raw.Level); ok {
			cfg.Level = lvl
		}
	}
	if raw, err := env.ParseAs[timestampOverride](); err == nil && raw.Timestamp != nil {
		cfg.Timestamp = *raw.Timestamp
	}
	if raw, err := env.ParseAs[noColorOverride](); err == nil && raw.NoColor != nil {
		cfg.NoColor = *raw.NoColor
	}
	if raw, err := env.ParseAs[bypassOverride](); err == nil && raw.Bypass != nil {
		cfg.Bypass = *raw.Bypass
	}
}

// ParseLevel maps a level name onto a zerolog level, reporting false for unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	return parseLevel(raw)
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
