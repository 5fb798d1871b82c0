package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the autoagenda module.
const TracerName = "github.com/teemow/autoagenda"

// Span attribute keys.
const (
	// SpanAttrTool is the MCP tool name attribute.
	SpanAttrTool = "mcp.tool"

	// SpanAttrDependency is the Calendar Service or Record Store backend.
	SpanAttrDependency = "dependency.name"

	// SpanAttrOperation is the dependency operation.
	SpanAttrOperation = "dependency.operation"

	// SpanAttrCalendar is the calendar identifier a booking targets.
	SpanAttrCalendar = "booking.calendar_id"

	// SpanAttrSlotStart and SpanAttrSlotEnd bound the proposed slot (RFC3339).
	SpanAttrSlotStart = "booking.slot_start"
	SpanAttrSlotEnd   = "booking.slot_end"

	// SpanAttrState is the coordinator state a span event belongs to.
	SpanAttrState = "booking.state"

	// SpanAttrEventID is the created calendar event.
	SpanAttrEventID = "booking.event_id"

	// SpanAttrErrorKind is the error taxonomy kind of a failed operation.
	SpanAttrErrorKind = "booking.error_kind"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithCalendar adds the calendar attribute.
func (b *SpanAttributeBuilder) WithCalendar(calendarID string) *SpanAttributeBuilder {
	if calendarID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrCalendar, calendarID))
	}
	return b
}

// WithSlot adds the slot bounds, formatted as RFC3339 strings.
func (b *SpanAttributeBuilder) WithSlot(start, end string) *SpanAttributeBuilder {
	if start != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrSlotStart, start))
	}
	if end != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrSlotEnd, end))
	}
	return b
}

// WithEventID adds the created event attribute.
func (b *SpanAttributeBuilder) WithEventID(eventID string) *SpanAttributeBuilder {
	if eventID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrEventID, eventID))
	}
	return b
}

// WithErrorKind adds the error kind attribute.
func (b *SpanAttributeBuilder) WithErrorKind(kind string) *SpanAttributeBuilder {
	if kind != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrErrorKind, kind))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a server span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartDependencySpan starts a client span for a Calendar Service or Record
// Store call, named "<dependency>.<operation>".
func StartDependencySpan(ctx context.Context, dependency, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrDependency, dependency),
		attribute.String(SpanAttrOperation, operation),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, dependency+"."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddStateEvent marks a coordinator state transition on the span.
func AddStateEvent(span trace.Span, state string, attrs ...attribute.KeyValue) {
	all := append([]attribute.KeyValue{attribute.String(SpanAttrState, state)}, attrs...)
	span.AddEvent("booking.state", trace.WithAttributes(all...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
