package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoagenda/internal/scheduling"
)

func TestHistory(t *testing.T) {
	store := &fakeStore{}
	base := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	for i, plate := range []string{"ABC1D23", "xyz9k88", "abc1d23 ", "ABC1D23", "ABC1D23"} {
		_, err := store.AppendBooking(context.Background(), BookingRecord{
			VehiclePlate: plate,
			Service:      "service",
			CreatedAt:    base.AddDate(0, i, 0),
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		plate   string
		limit   int
		wantIDs []string
	}{
		{name: "default limit keeps the three newest", plate: "abc1d23", wantIDs: []string{"rec-5", "rec-4", "rec-3"}},
		{name: "explicit limit", plate: " ABC1D23 ", limit: 1, wantIDs: []string{"rec-5"}},
		{name: "limit above count", plate: "xyz9k88", limit: 10, wantIDs: []string{"rec-2"}},
		{name: "unknown plate", plate: "NOPE000", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := History(context.Background(), store, tt.plate, tt.limit)
			require.NoError(t, err)

			ids := []string{}
			for _, r := range records {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestHistory_Errors(t *testing.T) {
	_, err := History(context.Background(), &fakeStore{}, "  ", 3)
	assert.ErrorIs(t, err, scheduling.ErrInvalidArgument)

	_, err = History(context.Background(), &fakeStore{err: errors.New("down")}, "ABC1D23", 3)
	assert.ErrorIs(t, err, scheduling.ErrDependencyUnavailable)
}

func TestCoordinator_HistoryAfterCommit(t *testing.T) {
	cal, store := &fakeCalendar{}, &fakeStore{}
	c := newTestCoordinator(t, cal, store, Config{})

	_, err := c.CommitBooking(context.Background(), "primary", slot(9, 0, 10, 0), details())
	require.NoError(t, err)

	records, err := c.History(context.Background(), "ABC1D23", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "evt-1", records[0].EventID)
}
