package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	result := WithOperation(logger, "test_operation")
	if result == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithCalendar(t *testing.T) {
	var buf bytes.Buffer
	logger := WithCalendar(slog.New(slog.NewJSONHandler(&buf, nil)), "workshop@example.com")
	logger.Info("probe")
	if !strings.Contains(buf.String(), `"calendar":"workshop@example.com"`) {
		t.Errorf("calendar attribute missing from %s", buf.String())
	}
}

func TestWithComponentAndTool(t *testing.T) {
	if WithComponent(slog.Default(), "lock") == nil {
		t.Error("WithComponent returned nil")
	}
	if WithTool(slog.Default(), "schedule_commit_booking") == nil {
		t.Error("WithTool returned nil")
	}
}

func TestAttributes(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("booking.commit"), KeyOperation, "booking.commit"},
		{"calendar", Calendar("primary"), KeyCalendar, "primary"},
		{"event", EventID("evt-1"), KeyEventID, "evt-1"},
		{"tool", Tool("schedule_find_free_slots"), KeyTool, "schedule_find_free_slots"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"plate", Plate("abc1d23"), KeyPlate, "*****23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

type span struct{}

func (span) String() string { return "[09:00, 10:00)" }

func TestInterval(t *testing.T) {
	attr := Interval(span{})
	if attr.Key != KeyInterval || attr.Value.String() != "[09:00, 10:00)" {
		t.Errorf("Interval = %v", attr)
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "boom" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "boom")
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("no error", Err(nil))
	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("nil error should be omitted, got %s", buf.String())
	}
}

func TestAnonymizeContact(t *testing.T) {
	tests := []struct {
		name    string
		contact string
		check   func(t *testing.T, got string)
	}{
		{
			name:    "empty",
			contact: "",
			check: func(t *testing.T, got string) {
				if got != "" {
					t.Errorf("got %q, want empty", got)
				}
			},
		},
		{
			name:    "phone",
			contact: "+55 11 99999-0000",
			check: func(t *testing.T, got string) {
				if !strings.HasPrefix(got, "customer:") {
					t.Errorf("got %q, want customer: prefix", got)
				}
				if strings.Contains(got, "99999") {
					t.Errorf("hash leaks contact: %q", got)
				}
				if len(got) != len("customer:")+16 {
					t.Errorf("unexpected hash length %d", len(got))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, AnonymizeContact(tt.contact))
		})
	}

	if AnonymizeContact(" Jane@Example.com ") != AnonymizeContact("jane@example.com") {
		t.Error("contacts differing only in case and whitespace should hash equally")
	}
}

func TestCustomerHash(t *testing.T) {
	attr := CustomerHash("jane@example.com")
	if attr.Key != KeyCustomerHash {
		t.Errorf("CustomerHash key = %q, want %q", attr.Key, KeyCustomerHash)
	}
	if attr.Value.String() != AnonymizeContact("jane@example.com") {
		t.Errorf("CustomerHash value mismatch")
	}
}

func TestMaskPlate(t *testing.T) {
	tests := []struct {
		plate    string
		expected string
	}{
		{"", ""},
		{"A", "*"},
		{"AB", "**"},
		{"abc1d23", "*****23"},
		{" ABC-1234 ", "******34"},
	}

	for _, tt := range tests {
		t.Run(tt.plate, func(t *testing.T) {
			if got := MaskPlate(tt.plate); got != tt.expected {
				t.Errorf("MaskPlate(%q) = %q, want %q", tt.plate, got, tt.expected)
			}
		})
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
	if got := SanitizeToken("secret-key"); got != "[token:10 chars]" {
		t.Errorf("SanitizeToken = %q", got)
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")
	logger.Info("dropped")
	logger.Warn("kept", slog.Duration(KeyDuration, time.Second))

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info message should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) {
		t.Errorf("expected JSON output, got %s", out)
	}

	buf.Reset()
	New(&buf, "", "text").Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("expected text output, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStatusConstants(t *testing.T) {
	if StatusSuccess != "success" {
		t.Errorf("StatusSuccess = %q, want %q", StatusSuccess, "success")
	}
	if StatusError != "error" {
		t.Errorf("StatusError = %q, want %q", StatusError, "error")
	}
}
