package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/scheduling"
	"github.com/teemow/autoagenda/internal/server"
)

type invocationKey struct{}

// RecordEventID attaches a created calendar event to the audit record of
// the running tool invocation. It is a no-op outside InstrumentedToolHandler.
func RecordEventID(ctx context.Context, eventID string) {
	if ti, ok := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation); ok {
		ti.WithEventID(eventID)
	}
}

// InstrumentedToolHandler wraps a tool handler with tracing, metrics and
// audit logging. Wrapped handlers return scheduling errors as Go errors and
// the wrapper turns them into tool error results.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		calendarID := GetCalendarFromArgs(args, sc)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().WithCalendar(calendarID).Build()...)
		defer span.End()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithBooking(calendarID, GetStringArg(args, "contact"))
		ctx = context.WithValue(ctx, invocationKey{}, invocation)

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			kind := scheduling.KindOf(err)
			invocation.Complete(kind.String(), err)
			instrumentation.SetSpanError(span, err)
			result = ErrorResult(err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete("", errors.New(resultText(result)))
			instrumentation.SetSpanError(span, errors.New(resultText(result)))
		default:
			invocation.Complete("", nil)
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		if auditLogger := sc.AuditLogger(); auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}
		return result, nil
	}
}

// ErrorResult renders err as a tool error result telling the caller how to
// recover.
func ErrorResult(err error) *mcp.CallToolResult {
	var b strings.Builder
	b.WriteString(err.Error())
	b.WriteString("\n\n")

	kind := scheduling.KindOf(err)
	switch kind {
	case scheduling.KindInvalidArgument:
		b.WriteString("The request is invalid. Fix it before trying again.")
	case scheduling.KindSlotNoLongerAvailable:
		b.WriteString("Another booking took this slot. Search for free slots again and offer a new one.")
	case scheduling.KindDependencyUnavailable, scheduling.KindDependencyTimeout:
		b.WriteString("A dependency failed temporarily. The same request can be retried.")
	case scheduling.KindPermissionDenied:
		b.WriteString("The calendar account is not allowed to do this.")
	case scheduling.KindPartialCommit:
		var se *scheduling.Error
		eventID := ""
		if errors.As(err, &se) {
			eventID = se.EventID
		}
		fmt.Fprintf(&b, "The calendar event %s was created but the booking record was not saved. Do not book again; the record must be reconciled.", eventID)
	default:
		b.WriteString("Unexpected error.")
	}
	if kind.Retryable() {
		b.WriteString("\nretryable: true")
	}
	return mcp.NewToolResultError(b.String())
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
