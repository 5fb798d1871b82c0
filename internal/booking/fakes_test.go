package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoagenda/internal/scheduling"
)

var monday = civil.Date{Year: 2026, Month: time.October, Day: 19}

func at(hour, minute int) time.Time {
	return time.Date(monday.Year, monday.Month, monday.Day, hour, minute, 0, 0, time.UTC)
}

// fixedClock puts "now" early on the Sunday before monday.
func fixedClock() time.Time {
	return time.Date(2026, time.October, 18, 7, 0, 0, 0, time.UTC)
}

func testPolicy(t *testing.T) *scheduling.BusinessHoursPolicy {
	t.Helper()
	p, err := scheduling.NewBusinessHoursPolicy(scheduling.PolicyConfig{
		StartOfDay: civil.Time{Hour: 8},
		EndOfDay:   civil.Time{Hour: 12},
		TimeZone:   "UTC",
	})
	require.NoError(t, err)
	return p
}

func slot(h1, m1, h2, m2 int) scheduling.Slot {
	start, end := at(h1, m1), at(h2, m2)
	return scheduling.Slot{Start: start, End: end, DurationMinutes: int(end.Sub(start) / time.Minute)}
}

func details() Details {
	return Details{
		CustomerName:   "Ana Souza",
		Contact:        "+55 11 99999-0000",
		VehiclePlate:   "abc1d23",
		VehicleModel:   "Gol",
		VehicleYear:    2015,
		CurrentMileage: 84000,
		Service:        "Troca de óleo",
	}
}

type fakeCalendar struct {
	mu     sync.Mutex
	busy   []scheduling.Interval
	events []EventRequest

	// lagging hides created events from ListBusyIntervals.
	lagging bool
	// listDelay widens the window between revalidation and creation.
	listDelay time.Duration
	// blockList makes ListBusyIntervals wait for ctx to expire.
	blockList bool
	listErr   error
	createErr func(req EventRequest) error
	// beforeCreate runs at the start of CreateEvent, outside the mutex.
	beforeCreate func()
	listCalls    int
}

func (f *fakeCalendar) ListBusyIntervals(ctx context.Context, _ string, window scheduling.Interval) ([]scheduling.Interval, error) {
	if f.blockList {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.listDelay > 0 {
		time.Sleep(f.listDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []scheduling.Interval
	for _, b := range f.busy {
		if b.Overlaps(window) {
			out = append(out, b)
		}
	}
	if !f.lagging {
		for _, e := range f.events {
			iv := scheduling.Interval{Start: e.Start, End: e.End}
			if iv.Overlaps(window) {
				out = append(out, iv)
			}
		}
	}
	return out, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ string, req EventRequest) (string, error) {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		if err := f.createErr(req); err != nil {
			return "", err
		}
	}
	f.events = append(f.events, req)
	return fmt.Sprintf("evt-%d", len(f.events)), nil
}

func (f *fakeCalendar) created() []EventRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EventRequest(nil), f.events...)
}

type fakeStore struct {
	mu      sync.Mutex
	records []BookingRecord
	err     error
	// blockAppend makes AppendBooking wait for ctx to expire.
	blockAppend bool
}

func (f *fakeStore) AppendBooking(ctx context.Context, record BookingRecord) (string, error) {
	if f.blockAppend {
		<-ctx.Done()
		return "", ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	record.ID = fmt.Sprintf("rec-%d", len(f.records)+1)
	f.records = append(f.records, record)
	return record.ID, nil
}

func (f *fakeStore) FindByVehiclePlate(_ context.Context, plate string) ([]BookingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []BookingRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if NormalizePlate(f.records[i].VehiclePlate) == NormalizePlate(plate) {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeStore) stored() []BookingRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BookingRecord(nil), f.records...)
}
