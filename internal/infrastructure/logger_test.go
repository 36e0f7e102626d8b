package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "nested", "test.log")

	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   config.OutputFile,
		FilePath: logFile,
	}

	logger, err := InitializeLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.FileExists(t, logFile)

	logger.Info("test message", "key", "value")
	logger.Debug("hidden")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestTraceAndRunIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, nil)

	ctx := WithRunID(WithTraceID(context.Background(), "trace-123"), "run-abc")
	logger.InfoContext(ctx, "with ids")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-123", entry["trace_id"])
	assert.Equal(t, "run-abc", entry["run_id"])
}

func TestTraceHandler_KeepsAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewJSONLogger(&buf, nil), "loader").WithGroup("file")

	logger.InfoContext(WithTraceID(context.Background(), "t1"), "loaded", "rows", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loader", entry["component"])
	group, ok := entry["file"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), group["rows"])
	assert.Equal(t, "t1", group["trace_id"])
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)))
	assert.True(t, strings.HasPrefix(GenerateRunID(), "run-"))
}

func TestRunContext(t *testing.T) {
	ctx, runID := RunContext(context.Background(), "")
	assert.True(t, strings.HasPrefix(runID, "run-"))
	assert.Equal(t, runID, GetRunID(ctx))
	assert.NotEmpty(t, GetTraceID(ctx))

	ctx, runID = RunContext(ctx, "run-fixed")
	assert.Equal(t, "run-fixed", runID)
	assert.Equal(t, "run-fixed", GetRunID(ctx))
}
