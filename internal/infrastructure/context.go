package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// GenerateRunID creates a new pipeline run identifier
func GenerateRunID() string {
	return "run-" + uuid.New().String()[:8]
}

// EnsureTraceID ensures the context has a trace ID, generating one if needed
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}

// RunContext tags ctx with a run ID and a trace ID so every log line of
// the run can be correlated. An empty runID generates one.
func RunContext(ctx context.Context, runID string) (context.Context, string) {
	if runID == "" {
		runID = GenerateRunID()
	}
	return WithRunID(EnsureTraceID(ctx), runID), runID
}

// WithComponent creates a logger with a component field. A nil logger
// falls back to the default logger.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", component)
}
