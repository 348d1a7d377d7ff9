package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitWithWriter_JSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	InitWithWriter("warn", "json", &buf)

	Component("monitor").Info().Msg("hidden")
	assert.Empty(t, buf.String())

	Component("monitor").Warn().Msg("Sensor alert")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "monitor", entry["component"])
	assert.Equal(t, "Sensor alert", entry["message"])
}

func TestInitWithWriter_Console(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	InitWithWriter("info", "console", &buf)

	Logger.Info().Str("city", "Lyon").Msg("Weather served from cache")
	assert.Contains(t, buf.String(), "Weather served from cache")
	assert.Contains(t, buf.String(), "city=Lyon")
	assert.NotContains(t, buf.String(), "\x1b[", "no colors outside a terminal")
}

func TestInit_File(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	path := filepath.Join(t.TempDir(), "sensorwatch.log")
	Init("info", "json", path)

	Logger.Info().Msg("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written to file"`)
}
