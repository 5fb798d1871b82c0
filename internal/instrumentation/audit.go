package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/autoagenda/internal/logging"
)

// ToolInvocation captures one MCP tool call for the audit trail.
//
// # Privacy Considerations
//
// CustomerContact is PII. LogAttrs hashes it; only LogAuditAttrs writes it
// verbatim and that stream needs access controls.
type ToolInvocation struct {
	Tool string

	// Booking target
	CalendarID      string
	CustomerContact string
	EventID         string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	ErrorKind string
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with the customer contact hashed.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.CustomerContact != "" {
		attrs = append(attrs, logging.CustomerHash(ti.CustomerContact))
	}
	return append(attrs, ti.commonAttrs()...)
}

// LogAuditAttrs returns slog attributes including the raw customer contact.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.CustomerContact != "" {
		attrs = append(attrs, slog.String("customer_contact", ti.CustomerContact))
	}
	attrs = append(attrs, ti.commonAttrs()...)
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	return attrs
}

func (ti *ToolInvocation) commonAttrs() []slog.Attr {
	var attrs []slog.Attr
	if ti.CalendarID != "" {
		attrs = append(attrs, slog.String(logging.KeyCalendar, ti.CalendarID))
	}
	if ti.EventID != "" {
		attrs = append(attrs, slog.String(logging.KeyEventID, ti.EventID))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", ti.ErrorKind))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithBooking sets the calendar and customer the tool acted on.
func (ti *ToolInvocation) WithBooking(calendarID, customerContact string) *ToolInvocation {
	ti.CalendarID = calendarID
	ti.CustomerContact = customerContact
	return ti
}

// WithEventID sets the created calendar event.
func (ti *ToolInvocation) WithEventID(eventID string) *ToolInvocation {
	ti.EventID = eventID
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
// errorKind is the taxonomy kind of err, empty on success.
func (ti *ToolInvocation) Complete(errorKind string, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	ti.ErrorKind = errorKind
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// AuditLogger writes tool invocations to a dedicated slog stream.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given configuration.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti at info on success and warn on failure. A
// partial commit is logged at error, since it needs manual reconciliation.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	switch {
	case ti.Success:
		al.logger.Info("tool_executed", args...)
	case ti.ErrorKind == "partial_commit":
		al.logger.Error("tool_partial_commit", args...)
	default:
		al.logger.Warn("tool_failed", args...)
	}
}
