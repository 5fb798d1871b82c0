// Package server wires the scheduling components and serves the process
// level HTTP endpoints.
//
// ServerContext builds the business hours policy, the calendar client, the
// record store (memory, SQL or Google Sheets) and the per-calendar commit
// lock (in-process or Redis) from a config.Config, and hands them to a
// booking.Coordinator shared by every MCP tool call.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed. Readiness
// includes the dependency probes registered while wiring, currently the
// SQL database and Redis.
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
