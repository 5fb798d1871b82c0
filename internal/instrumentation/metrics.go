package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrMethod     = "method"
	attrPath       = "path"
	attrStatus     = "status"
	attrOperation  = "operation"
	attrDependency = "dependency"
	attrResult     = "result"
	attrTool       = "tool"
	attrCalendar   = "calendar"
)

// Metrics provides methods for recording observability metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Slot finder metrics
	slotQueriesTotal    metric.Int64Counter
	slotQueryCandidates metric.Int64Histogram

	// Booking coordinator metrics
	bookingCommitsTotal   metric.Int64Counter
	bookingCommitDuration metric.Float64Histogram
	lockWaitDuration      metric.Float64Histogram

	// Calendar Service / Record Store metrics
	dependencyOperationsTotal   metric.Int64Counter
	dependencyOperationDuration metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels (calendar IDs)
	// are included.
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.slotQueriesTotal, err = meter.Int64Counter(
		"slot_queries_total",
		metric.WithDescription("Total number of free slot queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot_queries_total counter: %w", err)
	}

	m.slotQueryCandidates, err = meter.Int64Histogram(
		"slot_query_candidates",
		metric.WithDescription("Number of candidate slots returned per query"),
		metric.WithUnit("{slot}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 4, 8, 16, 32, 64),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot_query_candidates histogram: %w", err)
	}

	m.bookingCommitsTotal, err = meter.Int64Counter(
		"booking_commits_total",
		metric.WithDescription("Total number of booking commit attempts by result"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking_commits_total counter: %w", err)
	}

	m.bookingCommitDuration, err = meter.Float64Histogram(
		"booking_commit_duration_seconds",
		metric.WithDescription("Booking commit duration in seconds, lock wait included"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking_commit_duration_seconds histogram: %w", err)
	}

	m.lockWaitDuration, err = meter.Float64Histogram(
		"booking_lock_wait_seconds",
		metric.WithDescription("Time spent waiting for the per-calendar commit lock"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking_lock_wait_seconds histogram: %w", err)
	}

	m.dependencyOperationsTotal, err = meter.Int64Counter(
		"dependency_operations_total",
		metric.WithDescription("Total number of Calendar Service and Record Store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dependency_operations_total counter: %w", err)
	}

	m.dependencyOperationDuration, err = meter.Float64Histogram(
		"dependency_operation_duration_seconds",
		metric.WithDescription("Calendar Service and Record Store operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dependency_operation_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSlotQuery records a free slot query and the number of candidates it
// produced. status is "success" or "error".
func (m *Metrics) RecordSlotQuery(ctx context.Context, status string, candidates int) {
	if m == nil || m.slotQueriesTotal == nil || m.slotQueryCandidates == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.slotQueriesTotal.Add(ctx, 1, attrs)
	if status == StatusSuccess {
		m.slotQueryCandidates.Record(ctx, int64(candidates), attrs)
	}
}

// RecordBookingCommit records the outcome of a commit attempt.
//
// Parameters:
//   - calendarID: only attached when detailed labels are enabled
//   - result: "committed" or an error kind (e.g. "slot_no_longer_available")
//   - duration: total time including lock wait
func (m *Metrics) RecordBookingCommit(ctx context.Context, calendarID, result string, duration time.Duration) {
	if m == nil || m.bookingCommitsTotal == nil || m.bookingCommitDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}
	if m.detailedLabels && calendarID != "" {
		attrs = append(attrs, attribute.String(attrCalendar, calendarID))
	}

	m.bookingCommitsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.bookingCommitDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordLockWait records how long a commit waited for its calendar lock.
func (m *Metrics) RecordLockWait(ctx context.Context, acquired bool, duration time.Duration) {
	if m == nil || m.lockWaitDuration == nil {
		return
	}

	status := StatusSuccess
	if !acquired {
		status = StatusError
	}
	m.lockWaitDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordDependencyOperation records a Calendar Service or Record Store call.
//
// Parameters:
//   - dependency: backend name (calendar, sheets, sql, memory)
//   - operation: list_busy, create_event, append_booking, find_by_plate
//   - status: "success" or an error kind
//   - duration: time taken for the call
func (m *Metrics) RecordDependencyOperation(ctx context.Context, dependency, operation, status string, duration time.Duration) {
	if m == nil || m.dependencyOperationsTotal == nil || m.dependencyOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrDependency, dependency),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.dependencyOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dependencyOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
