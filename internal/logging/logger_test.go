package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		want   zerolog.Level
		wantOK bool
	}{
		{name: "trace", want: zerolog.TraceLevel, wantOK: true},
		{name: "debug", want: zerolog.DebugLevel, wantOK: true},
		{name: " INFO ", want: zerolog.InfoLevel, wantOK: true},
		{name: "warn", want: zerolog.WarnLevel, wantOK: true},
		{name: "error", want: zerolog.ErrorLevel, wantOK: true},
		{name: "off", want: zerolog.Disabled, wantOK: true},
		{name: "verbose", want: zerolog.NoLevel},
		{name: "", want: zerolog.NoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigApply(t *testing.T) {
	cfg := DefaultConfig().Apply("debug", "json")
	assert.Equal(t, zerolog.DebugLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	cfg = DefaultConfig().Apply("", "xml")
	assert.Equal(t, zerolog.InfoLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = &buf

	logger := New(cfg)
	logger.Debug().Msg("hidden")
	logger.Info().Str("list", "easylist").Msg("converted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "easylist", entry["list"])
	assert.Equal(t, "converted", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = zerolog.DebugLevel
	cfg.Output = &buf

	logger := New(cfg)
	logger.Debug().Int("rules", 3).Msg("parsed")

	assert.Contains(t, buf.String(), "parsed")
	assert.Contains(t, buf.String(), "rules=3")
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	t.Setenv(EnvFormat, "json")

	logger := NewFromEnv()
	assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())
}

func TestNop(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, Nop().GetLevel())
}
