package instrumentation

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s is not an int64 sum", m.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 50*time.Millisecond)
}

func TestMetrics_RecordSlotQuery(t *testing.T) {
	ctx := context.Background()
	m, reader := newManualMetrics(t, false)

	m.RecordSlotQuery(ctx, StatusSuccess, 6)
	m.RecordSlotQuery(ctx, StatusSuccess, 0)
	m.RecordSlotQuery(ctx, StatusError, 0)

	got := collect(t, reader)
	if total := counterTotal(t, got["slot_queries_total"]); total != 3 {
		t.Errorf("slot_queries_total = %d, want 3", total)
	}
	hist, ok := got["slot_query_candidates"].Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatal("slot_query_candidates is not an int64 histogram")
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 2 {
		t.Errorf("expected 2 candidate observations for successful queries, got %+v", hist.DataPoints)
	}
}

func TestMetrics_RecordBookingCommit(t *testing.T) {
	ctx := context.Background()
	m, reader := newManualMetrics(t, false)

	m.RecordBookingCommit(ctx, "primary", ResultCommitted, 200*time.Millisecond)
	m.RecordBookingCommit(ctx, "primary", "slot_no_longer_available", 10*time.Millisecond)
	m.RecordBookingCommit(ctx, "primary", "partial_commit", time.Second)

	got := collect(t, reader)
	sum := got["booking_commits_total"].Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 3 {
		t.Fatalf("expected 3 result series, got %d", len(sum.DataPoints))
	}
	for _, dp := range sum.DataPoints {
		if _, ok := dp.Attributes.Value(attrCalendar); ok {
			t.Error("calendar label must only be present with detailed labels")
		}
	}
}

func TestMetrics_RecordBookingCommit_DetailedLabels(t *testing.T) {
	ctx := context.Background()
	m, reader := newManualMetrics(t, true)

	m.RecordBookingCommit(ctx, "workshop@example.com", ResultCommitted, time.Second)

	sum := collect(t, reader)["booking_commits_total"].Data.(metricdata.Sum[int64])
	v, ok := sum.DataPoints[0].Attributes.Value(attrCalendar)
	if !ok || v.AsString() != "workshop@example.com" {
		t.Errorf("calendar label = %v, want workshop@example.com", v.AsString())
	}
}

func TestMetrics_RecordDependencyOperation(t *testing.T) {
	ctx := context.Background()
	m, reader := newManualMetrics(t, false)

	m.RecordDependencyOperation(ctx, DependencyCalendar, OperationListBusy, StatusSuccess, 150*time.Millisecond)
	m.RecordDependencyOperation(ctx, DependencyCalendar, OperationCreateEvent, "permission_denied", 80*time.Millisecond)
	m.RecordDependencyOperation(ctx, DependencySheets, OperationAppendBooking, StatusSuccess, 300*time.Millisecond)

	got := collect(t, reader)
	if total := counterTotal(t, got["dependency_operations_total"]); total != 3 {
		t.Errorf("dependency_operations_total = %d, want 3", total)
	}
}

func TestMetrics_RecordLockWaitAndTools(t *testing.T) {
	ctx := context.Background()
	m, reader := newManualMetrics(t, false)

	m.RecordLockWait(ctx, true, 5*time.Millisecond)
	m.RecordLockWait(ctx, false, time.Second)
	m.RecordToolInvocation(ctx, "schedule_find_free_slots", StatusSuccess, 20*time.Millisecond)

	got := collect(t, reader)
	if _, ok := got["booking_lock_wait_seconds"]; !ok {
		t.Error("booking_lock_wait_seconds not recorded")
	}
	if total := counterTotal(t, got["tool_invocations_total"]); total != 1 {
		t.Errorf("tool_invocations_total = %d, want 1", total)
	}
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	ctx := context.Background()
	var m *Metrics

	// Should not panic
	m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	m.RecordSlotQuery(ctx, StatusSuccess, 1)
	m.RecordBookingCommit(ctx, "primary", ResultCommitted, time.Millisecond)
	m.RecordLockWait(ctx, true, time.Millisecond)
	m.RecordDependencyOperation(ctx, DependencyCalendar, OperationListBusy, StatusSuccess, time.Millisecond)
	m.RecordToolInvocation(ctx, "schedule_commit_booking", StatusError, time.Millisecond)
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected no-op metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordBookingCommit(ctx, "primary", ResultCommitted, time.Millisecond)
	metrics.RecordSlotQuery(ctx, StatusSuccess, 3)
}
