// Package instrumentation provides OpenTelemetry instrumentation for the
// autoagenda scheduling service.
//
// # Metrics
//
// Slot finder:
//   - slot_queries_total: Counter of free slot queries by status
//   - slot_query_candidates: Histogram of candidates returned per query
//
// Booking coordinator:
//   - booking_commits_total: Counter of commit attempts by result
//     ("committed" or an error kind such as "slot_no_longer_available")
//   - booking_commit_duration_seconds: Histogram of commit durations
//   - booking_lock_wait_seconds: Histogram of per-calendar lock waits
//
// Calendar Service and Record Store:
//   - dependency_operations_total: Counter by dependency, operation, status
//   - dependency_operation_duration_seconds: Histogram of call durations
//
// Server and MCP tools:
//   - http_requests_total, http_request_duration_seconds
//   - tool_invocations_total, tool_duration_seconds
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>), commit attempts
// (booking.commit, with one event per state transition) and dependency
// calls (<dependency>.<operation>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: autoagenda)
//   - METRICS_DETAILED_LABELS: attach calendar IDs to booking metrics
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordBookingCommit(ctx, calendarID, instrumentation.ResultCommitted, time.Since(start))
package instrumentation
