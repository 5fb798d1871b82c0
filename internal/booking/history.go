package booking

import (
	"context"
	"sort"
	"strings"

	"github.com/teemow/autoagenda/internal/scheduling"
)

// DefaultHistoryLimit is how many past services History returns when the
// caller does not ask for a specific number.
const DefaultHistoryLimit = 3

// History returns the most recent bookings of a vehicle, newest first.
// A limit of zero or less selects DefaultHistoryLimit. An unknown plate
// yields an empty slice and no error.
func History(ctx context.Context, store RecordStore, plate string, limit int) ([]BookingRecord, error) {
	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, scheduling.InvalidArgument("booking.history", "vehicle plate is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	records, err := store.FindByVehiclePlate(ctx, plate)
	if err != nil {
		if scheduling.KindOf(err) != scheduling.KindUnknown {
			return nil, err
		}
		return nil, &scheduling.Error{Kind: scheduling.KindDependencyUnavailable, Op: "record_store.find_by_plate", Err: err}
	}

	out := make([]BookingRecord, 0, len(records))
	for _, r := range records {
		if strings.EqualFold(NormalizePlate(r.VehiclePlate), plate) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// History is a convenience wrapper around the package-level History using
// the coordinator's record store.
func (c *Coordinator) History(ctx context.Context, plate string, limit int) ([]BookingRecord, error) {
	return History(ctx, c.records, plate, limit)
}
