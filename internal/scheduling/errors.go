package scheduling

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a scheduling failure so callers can pick a recovery strategy.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = iota

	// KindInvalidArgument means the input was malformed. Never retried.
	KindInvalidArgument

	// KindSlotNoLongerAvailable means another booking won the race.
	// Re-run the slot finder and pick a fresh slot.
	KindSlotNoLongerAvailable

	// KindDependencyUnavailable is a transient transport or auth failure of the
	// Calendar Service or Record Store. Safe to retry with backoff.
	KindDependencyUnavailable

	// KindDependencyTimeout means a dependency call exceeded its deadline.
	// Safe to retry with backoff.
	KindDependencyTimeout

	// KindPermissionDenied is a capability gap (for example attendee invites
	// rejected by the account's delegation scope).
	KindPermissionDenied

	// KindPartialCommit means the calendar event exists but the booking record
	// was not persisted. Requires reconciliation; not retryable as a new booking.
	KindPartialCommit
)

// String returns the stable name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindSlotNoLongerAvailable:
		return "slot_no_longer_available"
	case KindDependencyUnavailable:
		return "dependency_unavailable"
	case KindDependencyTimeout:
		return "dependency_timeout"
	case KindPermissionDenied:
		return "permission_denied"
	case KindPartialCommit:
		return "partial_commit"
	default:
		return "unknown"
	}
}

// Retryable reports whether the same request may be retried as is.
func (k Kind) Retryable() bool {
	return k == KindDependencyUnavailable || k == KindDependencyTimeout
}

// Sentinel errors for use with errors.Is.
var (
	ErrInvalidArgument       = &Error{Kind: KindInvalidArgument}
	ErrSlotNoLongerAvailable = &Error{Kind: KindSlotNoLongerAvailable}
	ErrDependencyUnavailable = &Error{Kind: KindDependencyUnavailable}
	ErrDependencyTimeout     = &Error{Kind: KindDependencyTimeout}
	ErrPermissionDenied      = &Error{Kind: KindPermissionDenied}
	ErrPartialCommit         = &Error{Kind: KindPartialCommit}
)

// Error is the single error type produced by the scheduling core and its
// dependency adapters. It carries enough context for operator diagnosis.
type Error struct {
	Kind Kind

	// Op is the operation that failed (e.g. "calendar.create_event").
	Op string

	// CalendarID is set when the failure is scoped to a calendar.
	CalendarID string

	// Interval is the attempted time span, if any.
	Interval *Interval

	// EventID is the orphaned calendar event for KindPartialCommit.
	EventID string

	// Detail is a human-readable explanation.
	Detail string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" (")
		b.WriteString(e.Op)
		b.WriteString(")")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.CalendarID != "" {
		fmt.Fprintf(&b, " calendar=%s", e.CalendarID)
	}
	if e.Interval != nil {
		fmt.Fprintf(&b, " interval=%s", e.Interval)
	}
	if e.EventID != "" {
		fmt.Fprintf(&b, " event=%s", e.EventID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// InvalidArgument builds a KindInvalidArgument error.
func InvalidArgument(op, format string, args ...any) *Error {
	return &Error{
		Kind:   KindInvalidArgument,
		Op:     op,
		Detail: fmt.Sprintf(format, args...),
	}
}

// WithContext returns a copy of err annotated with the calendar and interval,
// keeping values that are already set.
func WithContext(err error, calendarID string, iv *Interval) error {
	var se *Error
	if !errors.As(err, &se) {
		return err
	}
	cp := *se
	if cp.CalendarID == "" {
		cp.CalendarID = calendarID
	}
	if cp.Interval == nil && iv != nil {
		ivCopy := *iv
		cp.Interval = &ivCopy
	}
	return &cp
}
