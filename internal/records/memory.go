package records

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/instrumentation"
)

// MemoryStore is an in-process RecordStore. Its contents are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	records []booking.BookingRecord
	metrics *instrumentation.Metrics
}

var _ booking.RecordStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. metrics may be nil.
func NewMemoryStore(metrics *instrumentation.Metrics) *MemoryStore {
	return &MemoryStore{metrics: metrics}
}

// AppendBooking stores a copy of record under a new UUID.
func (s *MemoryStore) AppendBooking(ctx context.Context, record booking.BookingRecord) (id string, err error) {
	defer func(start time.Time) {
		observe(ctx, s.metrics, instrumentation.DependencyMemory, instrumentation.OperationAppendBooking, start, err)
	}(time.Now())

	if err := ctx.Err(); err != nil {
		return "", classify("memory.append_booking", err)
	}

	record.ID = uuid.NewString()
	record.VehiclePlate = booking.NormalizePlate(record.VehiclePlate)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return record.ID, nil
}

// FindByVehiclePlate returns the plate's records, newest first.
func (s *MemoryStore) FindByVehiclePlate(ctx context.Context, plate string) (out []booking.BookingRecord, err error) {
	defer func(start time.Time) {
		observe(ctx, s.metrics, instrumentation.DependencyMemory, instrumentation.OperationFindByPlate, start, err)
	}(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, classify("memory.find_by_plate", err)
	}

	plate = booking.NormalizePlate(plate)
	s.mu.RLock()
	for _, r := range s.records {
		if r.VehiclePlate == plate {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	// Appends are in commit order, so a stable sort keeps the later of two
	// equal timestamps first after reversing.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sortNewestFirst(out)
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
