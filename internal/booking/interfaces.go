package booking

import (
	"context"
	"time"

	"github.com/teemow/autoagenda/internal/scheduling"
)

// CalendarService is the shared calendar the coordinator books against.
// Implementations return *scheduling.Error values: KindDependencyUnavailable
// for transport and auth failures, KindDependencyTimeout when ctx expires,
// and KindPermissionDenied when the account may not invite attendees.
type CalendarService interface {
	// ListBusyIntervals returns the occupied spans overlapping window.
	ListBusyIntervals(ctx context.Context, calendarID string, window scheduling.Interval) ([]scheduling.Interval, error)

	// CreateEvent creates the event and returns its identifier.
	CreateEvent(ctx context.Context, calendarID string, req EventRequest) (string, error)
}

// RecordStore is the append-only log of booking records.
type RecordStore interface {
	// AppendBooking persists record and returns its identifier.
	AppendBooking(ctx context.Context, record BookingRecord) (string, error)

	// FindByVehiclePlate returns the records of a vehicle, newest first.
	// Plates are compared case-insensitively, ignoring surrounding spaces.
	FindByVehiclePlate(ctx context.Context, plate string) ([]BookingRecord, error)
}

// EventRequest describes the calendar event created for a booking.
type EventRequest struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time

	// TimeZone is the IANA zone the event is displayed in.
	TimeZone string

	// AttendeeEmail is optional. When set, the attendee is invited and
	// notified.
	AttendeeEmail string
}
