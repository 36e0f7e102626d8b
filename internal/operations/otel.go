package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"esgcli/internal/infrastructure"
)

const (
	TracerName = "esgcli.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs.
// A nil *OperationTracer is valid and records nothing.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer backed by providers. Nil providers
// fall back to the global tracer and no metrics.
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	t := &OperationTracer{tracer: otel.Tracer(TracerName)}
	if providers == nil {
		return t, nil
	}
	if providers.TracerProvider != nil {
		t.tracer = providers.TracerProvider.Tracer(TracerName)
	}
	if providers.Meter != nil {
		m, err := infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
		t.metrics = m
	}
	return t, nil
}

// Metrics returns the pipeline instruments, nil when metrics are disabled
func (pt *OperationTracer) Metrics() *infrastructure.PipelineMetrics {
	if pt == nil {
		return nil
	}
	return pt.metrics
}

func (pt *OperationTracer) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	if pt != nil && pt.tracer != nil {
		tracer = pt.tracer
	}
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// TraceOperationExecution creates a span for the entire run
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID, input string) (context.Context, trace.Span) {
	return pt.start(ctx, "operation.execute",
		attribute.String("operation.id", operationID),
		attribute.String("operation.input", input),
	)
}

// TraceStageExecution creates a span for one step
func (pt *OperationTracer) TraceStageExecution(ctx context.Context, operationID, stageID string) (context.Context, trace.Span) {
	return pt.start(ctx, "operation.step."+stageID,
		attribute.String("operation.id", operationID),
		attribute.String("step.id", stageID),
	)
}

// RecordOperationCompletion closes out the run span and run metrics
func (pt *OperationTracer) RecordOperationCompletion(ctx context.Context, span trace.Span, operationID string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	span.SetAttributes(
		attribute.String("operation.status", status),
		attribute.Float64("operation.duration_seconds", duration.Seconds()),
	)
	pt.Metrics().RecordRun(ctx, duration, err == nil)

	infrastructure.AddSpanEvent(ctx, "operation.completed", map[string]interface{}{
		"operation_id": operationID,
		"status":       status,
		"duration":     duration.Seconds(),
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "operation completed successfully")
}

// RecordStageCompletion closes out a step span and step metrics
func (pt *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stageID string, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.Bool("step.success", err == nil),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)
	pt.Metrics().RecordStep(ctx, stageID, duration, err == nil)

	if err != nil {
		infrastructure.RecordError(ctx, err,
			trace.WithAttributes(
				attribute.String("step_id", stageID),
				attribute.String("error.type", string(GetErrorType(err))),
			),
		)
		return
	}
	span.SetStatus(codes.Ok, "step completed successfully")
}
