package google

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/teemow/autoagenda/internal/scheduling"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want scheduling.Kind
	}{
		{
			name: "attendee refused",
			err: &googleapi.Error{Code: 403, Message: "Service accounts cannot invite attendees",
				Errors: []googleapi.ErrorItem{{Reason: ReasonForbiddenForServiceAccounts}}},
			want: scheduling.KindPermissionDenied,
		},
		{
			name: "other forbidden",
			err:  &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "requiredAccessLevel"}}},
			want: scheduling.KindDependencyUnavailable,
		},
		{name: "server error", err: &googleapi.Error{Code: 503}, want: scheduling.KindDependencyUnavailable},
		{name: "gateway timeout", err: &googleapi.Error{Code: 504}, want: scheduling.KindDependencyTimeout},
		{name: "wrapped api error", err: fmt.Errorf("insert: %w", &googleapi.Error{Code: 500}), want: scheduling.KindDependencyUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, want: scheduling.KindDependencyTimeout},
		{name: "net timeout", err: fmt.Errorf("post: %w", timeoutErr{}), want: scheduling.KindDependencyTimeout},
		{name: "plain", err: errors.New("connection refused"), want: scheduling.KindDependencyUnavailable},
		{name: "already classified", err: scheduling.InvalidArgument("x", "bad"), want: scheduling.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyError("calendar.create_event", tt.err)
			assert.Equal(t, tt.want, scheduling.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, ClassifyError("op", nil))
}

func TestCall(t *testing.T) {
	err := Call(context.Background(), nil, "calendar", "list_busy", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	err = Call(context.Background(), nil, "calendar", "list_busy", func(ctx context.Context) error {
		return &googleapi.Error{Code: 500}
	})
	assert.ErrorIs(t, err, scheduling.ErrDependencyUnavailable)
	assert.Contains(t, err.Error(), "calendar.list_busy")
}
