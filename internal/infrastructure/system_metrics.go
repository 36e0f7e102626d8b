package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics snapshots Go runtime figures next to the pipeline metrics
// so the metrics dump shows what a run cost.
type SystemMetrics struct {
	start time.Time

	goRoutines    metric.Int64Gauge
	heapAlloc     metric.Int64Gauge
	totalAlloc    metric.Int64Gauge
	memorySystem  metric.Int64Gauge
	gcCount       metric.Int64Gauge
	processUptime metric.Float64Gauge
}

// NewSystemMetrics creates the runtime gauges on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	m := &SystemMetrics{start: time.Now()}
	var err error

	if m.goRoutines, err = meter.Int64Gauge("esg_runtime_goroutines",
		metric.WithDescription("Number of goroutines at snapshot time")); err != nil {
		return nil, err
	}
	if m.heapAlloc, err = meter.Int64Gauge("esg_runtime_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.totalAlloc, err = meter.Int64Gauge("esg_runtime_total_alloc_bytes",
		metric.WithDescription("Cumulative bytes allocated for heap objects"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.memorySystem, err = meter.Int64Gauge("esg_runtime_sys_bytes",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.gcCount, err = meter.Int64Gauge("esg_runtime_gc_cycles",
		metric.WithDescription("Completed GC cycles")); err != nil {
		return nil, err
	}
	if m.processUptime, err = meter.Float64Gauge("esg_runtime_uptime_seconds",
		metric.WithDescription("Seconds since the metrics were created"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

// Record takes one snapshot. A nil receiver records nothing.
func (m *SystemMetrics) Record(ctx context.Context) {
	if m == nil {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.goRoutines.Record(ctx, int64(runtime.NumGoroutine()))
	m.heapAlloc.Record(ctx, int64(ms.HeapAlloc))
	m.totalAlloc.Record(ctx, int64(ms.TotalAlloc))
	m.memorySystem.Record(ctx, int64(ms.Sys))
	m.gcCount.Record(ctx, int64(ms.NumGC))
	m.processUptime.Record(ctx, time.Since(m.start).Seconds())
}
