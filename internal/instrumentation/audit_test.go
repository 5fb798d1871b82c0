package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrMap(attrs []slog.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Key] = a.Value.String()
	}
	return out
}

func TestToolInvocation_Complete(t *testing.T) {
	ti := NewToolInvocation("schedule_commit_booking").
		WithBooking("primary", "+55 11 99999-0000").
		WithEventID("evt-1")
	time.Sleep(time.Millisecond)
	ti.Complete("", nil)

	assert.True(t, ti.Success)
	assert.Equal(t, StatusSuccess, ti.Status())
	assert.Positive(t, ti.Duration)
	assert.Empty(t, ti.Error)

	ti.Complete("slot_no_longer_available", errors.New("taken"))
	assert.False(t, ti.Success)
	assert.Equal(t, StatusError, ti.Status())
	assert.Equal(t, "taken", ti.Error)
}

func TestToolInvocation_LogAttrs_HashesContact(t *testing.T) {
	ti := NewToolInvocation("schedule_commit_booking").
		WithBooking("primary", "+55 11 99999-0000").
		WithEventID("evt-1").
		Complete("", nil)

	attrs := attrMap(ti.LogAttrs())
	assert.Equal(t, "schedule_commit_booking", attrs["tool"])
	assert.Equal(t, "primary", attrs["calendar"])
	assert.Equal(t, "evt-1", attrs["event_id"])
	assert.True(t, strings.HasPrefix(attrs["customer_hash"], "customer:"))
	assert.NotContains(t, attrs, "customer_contact")
}

func TestToolInvocation_LogAuditAttrs_IncludesContact(t *testing.T) {
	ti := NewToolInvocation("schedule_commit_booking").
		WithBooking("primary", "jane@example.com").
		Complete("partial_commit", errors.New("sheet unavailable"))

	attrs := attrMap(ti.LogAuditAttrs())
	assert.Equal(t, "jane@example.com", attrs["customer_contact"])
	assert.Equal(t, "partial_commit", attrs["error_kind"])
	assert.Equal(t, "sheet unavailable", attrs["error"])
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation("schedule_find_free_slots").WithSpanContext(context.Background())
	assert.Empty(t, ti.TraceID)
	assert.Empty(t, ti.SpanID)
}

func TestAuditLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		errorKind string
		err       error
		wantMsg   string
		wantLevel string
	}{
		{name: "success", wantMsg: "tool_executed", wantLevel: "INFO"},
		{name: "failure", errorKind: "slot_no_longer_available", err: errors.New("taken"), wantMsg: "tool_failed", wantLevel: "WARN"},
		{name: "partial commit", errorKind: "partial_commit", err: errors.New("orphan"), wantMsg: "tool_partial_commit", wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: true})

			al.LogToolInvocation(NewToolInvocation("schedule_commit_booking").Complete(tt.errorKind, tt.err))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantMsg, entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
		})
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation("schedule_find_free_slots").Complete("", nil))
	assert.Empty(t, buf.String())

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(NewToolInvocation("schedule_find_free_slots"))
}

func TestAuditLogger_IncludePII(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: true, IncludePII: true})
	al.LogToolInvocation(NewToolInvocation("schedule_commit_booking").WithBooking("primary", "jane@example.com").Complete("", nil))
	assert.Contains(t, buf.String(), "jane@example.com")
}
