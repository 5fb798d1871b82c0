package scheduling

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := &Error{Kind: KindPartialCommit, Op: "booking.persist", EventID: "evt-1"}
	wrapped := fmt.Errorf("commit failed: %w", err)

	assert.ErrorIs(t, wrapped, ErrPartialCommit)
	assert.NotErrorIs(t, wrapped, ErrDependencyUnavailable)
	assert.Equal(t, KindPartialCommit, KindOf(wrapped))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Kind: KindDependencyUnavailable, Err: cause}

	assert.ErrorIs(t, err, cause)
}

func TestError_Message(t *testing.T) {
	span := iv(9, 0, 10, 0)
	err := &Error{
		Kind:       KindSlotNoLongerAvailable,
		Op:         "booking.revalidate",
		CalendarID: "primary",
		Interval:   &span,
	}

	msg := err.Error()
	assert.Contains(t, msg, "slot_no_longer_available")
	assert.Contains(t, msg, "booking.revalidate")
	assert.Contains(t, msg, "calendar=primary")
	assert.Contains(t, msg, "2026-10-19T09:00:00Z")
}

func TestKindOf_Unknown(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKind_Retryable(t *testing.T) {
	assert.True(t, KindDependencyUnavailable.Retryable())
	assert.True(t, KindDependencyTimeout.Retryable())
	assert.False(t, KindPartialCommit.Retryable())
	assert.False(t, KindSlotNoLongerAvailable.Retryable())
	assert.False(t, KindInvalidArgument.Retryable())
}

func TestWithContext(t *testing.T) {
	span := iv(9, 0, 10, 0)
	base := &Error{Kind: KindDependencyTimeout, Op: "calendar.list_busy"}

	annotated := WithContext(base, "primary", &span)

	var se *Error
	assert.True(t, errors.As(annotated, &se))
	assert.Equal(t, "primary", se.CalendarID)
	assert.Equal(t, span, *se.Interval)
	assert.Empty(t, base.CalendarID, "original error must not be mutated")

	plain := errors.New("plain")
	assert.Equal(t, plain, WithContext(plain, "primary", &span))
}
