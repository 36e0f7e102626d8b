package infrastructure

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization_MetricsOnly(t *testing.T) {
	providers, err := InitializeOTel(nil, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelTracing_WritesSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceWriter = &buf

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	ctx, span := providers.Tracer.Start(context.Background(), "esg.test")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	AddSpanEvent(ctx, "checkpoint", map[string]interface{}{"rows": 3, "file": "a.csv"})
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "esg.test")
	assert.Contains(t, buf.String(), "checkpoint")
}

func TestPipelineMetrics_WriteTextfile(t *testing.T) {
	providers, err := InitializeOTel(nil, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordLoad(ctx, 120, 3, 7)
	metrics.RecordGroups(ctx, "rating_distribution", 10)
	metrics.RecordStep(ctx, "load", 150*time.Millisecond, true)
	metrics.RecordRun(ctx, time.Second, true)

	path := filepath.Join(t.TempDir(), "esg.prom")
	require.NoError(t, providers.WriteMetrics(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "esg_records_loaded_total")
	assert.Contains(t, text, "esg_records_dropped_total")
	assert.Contains(t, text, `grouping="rating_distribution"`)
	assert.Contains(t, text, "esg_step_duration_seconds")
	assert.Contains(t, text, "esg_runtime_goroutines")
}

func TestPipelineMetrics_NilIsNoop(t *testing.T) {
	var metrics *PipelineMetrics
	assert.NotPanics(t, func() {
		metrics.RecordLoad(context.Background(), 1, 0, 0)
		metrics.RecordRun(context.Background(), time.Second, false)
	})

	var system *SystemMetrics
	assert.NotPanics(t, func() { system.Record(context.Background()) })
}
