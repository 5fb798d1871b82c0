package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with customer identifiers.

// ExtractEmailDomain extracts the domain part of an attendee email.
//
// Example:
//
//	ExtractEmailDomain("jane@example.com")  // "example.com"
//	ExtractEmailDomain("invalid")           // "unknown"
//	ExtractEmailDomain("")                  // "unknown"
func ExtractEmailDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// Operation names for dependency metrics and spans.
const (
	OperationListBusy      = "list_busy"
	OperationCreateEvent   = "create_event"
	OperationAppendBooking = "append_booking"
	OperationFindByPlate   = "find_by_plate"
)
