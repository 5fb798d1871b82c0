package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/config"
	"github.com/teemow/autoagenda/internal/scheduling"
	"github.com/teemow/autoagenda/internal/server"
)

func newBookCmd(cfg *config.Config, base server.Options) *cobra.Command {
	var (
		calendarID string
		date       string
		start      string
		duration   int
		details    booking.Details
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot for a customer and vehicle",
		Long: `Book a slot on the calendar. The slot is checked again under the
calendar's commit lock, so a slot taken since it was listed is refused.`,
		Example: `  autoagenda book --date 2026-10-19 --start 09:00 --name "Maria Souza" \
    --contact "+55 11 98888-7777" --plate ABC1D23 --service "Troca de óleo"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := scheduling.ParseDate(date)
			if err != nil {
				return err
			}
			clock, err := scheduling.ParseClock(start)
			if err != nil {
				return err
			}

			sc, err := openServerContext(cmd.Context(), cfg, base)
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			if duration == 0 {
				duration = sc.DefaultDurationMinutes()
			}
			slot, err := scheduling.SlotAt(sc.Policy(), day, clock, duration)
			if err != nil {
				return err
			}

			record, err := sc.Coordinator().CommitBooking(cmd.Context(), sc.CalendarID(calendarID), slot, details)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Booked %s %s %s for %s.\n", day.Weekday(), day, clockRange(slot, sc.Policy()), record.CustomerName)
			fmt.Fprintf(out, "Calendar event: %s\n", record.EventID)
			fmt.Fprintf(out, "Record: %s\n", record.ID)
			if record.AttendeeDropped {
				fmt.Fprintf(out, "The calendar refused to invite %s.\n", details.AttendeeEmail)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&calendarID, "calendar", "", "Calendar to book on (default: --calendar-id)")
	f.StringVar(&date, "date", "", "Day of the appointment (YYYY-MM-DD)")
	f.StringVar(&start, "start", "", "Start time (HH:MM)")
	f.IntVar(&duration, "duration", 0, "Appointment length in minutes (default: --default-duration)")
	f.StringVar(&details.CustomerID, "customer-id", "", "Customer identifier")
	f.StringVar(&details.CustomerName, "name", "", "Customer name")
	f.StringVar(&details.Contact, "contact", "", "Customer phone or e-mail")
	f.StringVar(&details.VehiclePlate, "plate", "", "Vehicle plate")
	f.StringVar(&details.VehicleModel, "model", "", "Vehicle model")
	f.IntVar(&details.VehicleYear, "year", 0, "Vehicle year")
	f.IntVar(&details.CurrentMileage, "mileage", 0, "Current mileage in km")
	f.StringVar(&details.Service, "service", "", "Requested service")
	f.StringVar(&details.Notes, "notes", "", "Free-form notes")
	f.StringVar(&details.AttendeeEmail, "attendee", "", "E-mail invited to the calendar event")
	for _, name := range []string{"date", "start", "name", "contact", "plate", "service"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
