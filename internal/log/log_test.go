package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"WARNING", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"debug", slog.LevelDebug, false},
		{"trace", LevelTrace, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, LevelTrace, "json"))

	logger.Log(context.Background(), LevelTrace, "hello", "component", "test")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "TRACE", entry["level"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, entry, "timestamp")
	assert.NotContains(t, entry, "time")
}

func TestTextHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, slog.LevelWarn, "text"))

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetLogLevel(t *testing.T) {
	original := GetLogLevel()
	t.Cleanup(func() { _ = SetLogLevel(original) })

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, "debug", GetLogLevel())

	require.NoError(t, SetLogLevel("TRACE"))
	assert.Equal(t, "trace", GetLogLevel())
	assert.True(t, traceEnabled())

	assert.Error(t, SetLogLevel("loud"))
	assert.Equal(t, "trace", GetLogLevel())
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs("server", map[string]any{"status": 200})
	assert.Equal(t, []any{"component", "server", "status", 200}, args)
}
