package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation    = "operation"
	KeyCalendar     = "calendar"
	KeyCustomerHash = "customer_hash"
	KeyPlate        = "plate"
	KeyEventID      = "event_id"
	KeyInterval     = "interval"
	KeyDuration     = "duration"
	KeyStatus       = "status"
	KeyError        = "error"
	KeyTool         = "tool"
	KeyComponent    = "component"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// New builds a slog.Logger writing to w. Format is "json" or "text"
// (default); level is one of debug, info, warn, error.
func New(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithComponent returns a logger with the component attribute set.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String(KeyComponent, component))
}

// WithCalendar returns a logger with the calendar attribute set.
func WithCalendar(logger *slog.Logger, calendarID string) *slog.Logger {
	return logger.With(slog.String(KeyCalendar, calendarID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Calendar returns a slog attribute for the calendar ID.
func Calendar(calendarID string) slog.Attr {
	return slog.String(KeyCalendar, calendarID)
}

// EventID returns a slog attribute for a calendar event ID.
func EventID(id string) slog.Attr {
	return slog.String(KeyEventID, id)
}

// Interval returns a slog attribute for a time span.
func Interval(iv fmt.Stringer) slog.Attr {
	return slog.String(KeyInterval, iv.String())
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeContact returns a hashed representation of a customer contact
// (phone or email) so log lines can be correlated without exposing PII.
// Whitespace and case are normalized first.
func AnonymizeContact(contact string) string {
	normalized := strings.ToLower(strings.TrimSpace(contact))
	if normalized == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(normalized))
	return "customer:" + hex.EncodeToString(hash[:8])
}

// CustomerHash returns a slog attribute with the anonymized customer contact.
//
// Usage:
//
//	logger.Info("booking committed", logging.CustomerHash(details.Contact))
func CustomerHash(contact string) slog.Attr {
	return slog.String(KeyCustomerHash, AnonymizeContact(contact))
}

// MaskPlate keeps only the last two characters of a vehicle plate.
func MaskPlate(plate string) string {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	n := utf8.RuneCountInString(plate)
	if n == 0 {
		return ""
	}
	if n <= 2 {
		return strings.Repeat("*", n)
	}
	runes := []rune(plate)
	return strings.Repeat("*", n-2) + string(runes[n-2:])
}

// Plate returns a slog attribute with the masked vehicle plate.
func Plate(plate string) slog.Attr {
	return slog.String(KeyPlate, MaskPlate(plate))
}

// SanitizeToken returns a masked version of a credential for logging.
// It returns a length indicator without exposing any content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
