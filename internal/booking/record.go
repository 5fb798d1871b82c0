package booking

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/teemow/autoagenda/internal/scheduling"
)

// Details is what the caller knows about the customer and the vehicle.
type Details struct {
	CustomerID     string `json:"customer_id,omitempty"`
	CustomerName   string `json:"customer_name"`
	Contact        string `json:"contact"`
	VehiclePlate   string `json:"vehicle_plate"`
	VehicleModel   string `json:"vehicle_model,omitempty"`
	VehicleYear    int    `json:"vehicle_year,omitempty"`
	CurrentMileage int    `json:"current_mileage,omitempty"`
	Service        string `json:"service"`
	Notes          string `json:"notes,omitempty"`

	// AttendeeEmail is invited to the calendar event when set.
	AttendeeEmail string `json:"attendee_email,omitempty"`
}

// Validate checks the fields a booking cannot be made without.
func (d Details) Validate() error {
	const op = "booking.validate"

	switch {
	case strings.TrimSpace(d.CustomerName) == "":
		return scheduling.InvalidArgument(op, "customer name is required")
	case strings.TrimSpace(d.Contact) == "":
		return scheduling.InvalidArgument(op, "customer contact is required")
	case NormalizePlate(d.VehiclePlate) == "":
		return scheduling.InvalidArgument(op, "vehicle plate is required")
	case strings.TrimSpace(d.Service) == "":
		return scheduling.InvalidArgument(op, "service is required")
	case d.VehicleYear < 0 || (d.VehicleYear != 0 && (d.VehicleYear < 1900 || d.VehicleYear > 2100)):
		return scheduling.InvalidArgument(op, "implausible vehicle year %d", d.VehicleYear)
	case d.CurrentMileage < 0:
		return scheduling.InvalidArgument(op, "mileage must not be negative, got %d", d.CurrentMileage)
	}
	if d.AttendeeEmail != "" {
		if _, err := mail.ParseAddress(d.AttendeeEmail); err != nil {
			return &scheduling.Error{Kind: scheduling.KindInvalidArgument, Op: op, Detail: fmt.Sprintf("invalid attendee email %q", d.AttendeeEmail), Err: err}
		}
	}
	return nil
}

// BookingRecord is the durable record of a committed booking. It is created
// once by the coordinator and never mutated.
type BookingRecord struct {
	ID                   string     `json:"id"`
	CustomerID           string     `json:"customer_id,omitempty"`
	CustomerName         string     `json:"customer_name"`
	Contact              string     `json:"contact"`
	VehiclePlate         string     `json:"vehicle_plate"`
	VehicleModel         string     `json:"vehicle_model,omitempty"`
	VehicleYear          int        `json:"vehicle_year,omitempty"`
	CurrentMileage       int        `json:"current_mileage,omitempty"`
	AppointmentDate      civil.Date `json:"appointment_date"`
	AppointmentStartTime civil.Time `json:"appointment_start_time"`
	DurationMinutes      int        `json:"duration_minutes"`
	Service              string     `json:"service"`
	Notes                string     `json:"notes,omitempty"`
	CalendarID           string     `json:"calendar_id"`
	EventID              string     `json:"event_id"`

	// AttendeeDropped is set when the attendee invite was refused and the
	// event was created without it.
	AttendeeDropped bool `json:"attendee_dropped,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Interval returns the booked span, interpreting date and time in loc.
func (r BookingRecord) Interval(loc *time.Location) scheduling.Interval {
	start := civil.DateTime{Date: r.AppointmentDate, Time: r.AppointmentStartTime}.In(loc)
	return scheduling.Interval{Start: start, End: start.Add(time.Duration(r.DurationMinutes) * time.Minute)}
}

// NormalizePlate upper-cases a plate and strips surrounding whitespace.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// newRecord builds the record for a slot, before the store assigns an ID.
func newRecord(policy *scheduling.BusinessHoursPolicy, calendarID, eventID string, slot scheduling.Slot, d Details, createdAt time.Time) BookingRecord {
	local := slot.Start.In(policy.Location())
	return BookingRecord{
		CustomerID:           strings.TrimSpace(d.CustomerID),
		CustomerName:         strings.TrimSpace(d.CustomerName),
		Contact:              strings.TrimSpace(d.Contact),
		VehiclePlate:         NormalizePlate(d.VehiclePlate),
		VehicleModel:         strings.TrimSpace(d.VehicleModel),
		VehicleYear:          d.VehicleYear,
		CurrentMileage:       d.CurrentMileage,
		AppointmentDate:      civil.DateOf(local),
		AppointmentStartTime: civil.Time{Hour: local.Hour(), Minute: local.Minute()},
		DurationMinutes:      slot.DurationMinutes,
		Service:              strings.TrimSpace(d.Service),
		Notes:                strings.TrimSpace(d.Notes),
		CalendarID:           calendarID,
		EventID:              eventID,
		CreatedAt:            createdAt,
	}
}

// eventRequest renders the calendar event for a booking.
func eventRequest(policy *scheduling.BusinessHoursPolicy, location string, slot scheduling.Slot, d Details) EventRequest {
	title := fmt.Sprintf("%s - %s", strings.TrimSpace(d.Service), NormalizePlate(d.VehiclePlate))

	var b strings.Builder
	fmt.Fprintf(&b, "Cliente: %s\n", strings.TrimSpace(d.CustomerName))
	fmt.Fprintf(&b, "Contato: %s\n", strings.TrimSpace(d.Contact))
	vehicle := NormalizePlate(d.VehiclePlate)
	if model := strings.TrimSpace(d.VehicleModel); model != "" {
		vehicle += " " + model
	}
	if d.VehicleYear > 0 {
		vehicle += fmt.Sprintf(" (%d)", d.VehicleYear)
	}
	fmt.Fprintf(&b, "Veículo: %s\n", vehicle)
	if d.CurrentMileage > 0 {
		fmt.Fprintf(&b, "KM: %d\n", d.CurrentMileage)
	}
	fmt.Fprintf(&b, "Serviço: %s", strings.TrimSpace(d.Service))
	if notes := strings.TrimSpace(d.Notes); notes != "" {
		fmt.Fprintf(&b, "\nObservações: %s", notes)
	}

	return EventRequest{
		Title:         title,
		Description:   b.String(),
		Location:      location,
		Start:         slot.Start,
		End:           slot.End,
		TimeZone:      policy.TimeZone(),
		AttendeeEmail: strings.TrimSpace(d.AttendeeEmail),
	}
}
