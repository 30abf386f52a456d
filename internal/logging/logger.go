package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables read by NewFromEnv
const (
	EnvLevel  = "SAFARI_CB_LOG_LEVEL"
	EnvFormat = "SAFARI_CB_LOG_FORMAT"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	Output     io.Writer // os.Stderr when nil
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New creates a new zerolog logger with the given configuration
func New(cfg Config) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}

	output := out
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
			NoColor:    cfg.Output != nil,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level.
// Unknown names return false.
func ParseLevel(name string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off":
		return zerolog.Disabled, true
	}
	return zerolog.NoLevel, false
}

// Apply overrides cfg with the non-empty level and format names
func (cfg Config) Apply(level, format string) Config {
	if l, ok := ParseLevel(level); ok {
		cfg.Level = l
	}
	switch format {
	case "json", "console":
		cfg.Format = format
	}
	return cfg
}

// NewFromEnv creates a logger based on environment variables
// SAFARI_CB_LOG_LEVEL: trace, debug, info, warn, error, disabled (default: info)
// SAFARI_CB_LOG_FORMAT: json, console (default: console)
func NewFromEnv() zerolog.Logger {
	return New(DefaultConfig().Apply(os.Getenv(EnvLevel), os.Getenv(EnvFormat)))
}

// Nop returns a disabled logger
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
