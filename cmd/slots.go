package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/autoagenda/internal/config"
	"github.com/teemow/autoagenda/internal/scheduling"
	"github.com/teemow/autoagenda/internal/server"
)

func newSlotsCmd(cfg *config.Config, base server.Options) *cobra.Command {
	var (
		calendarID string
		duration   int
	)

	cmd := &cobra.Command{
		Use:   "slots DATE",
		Short: "List the free slots of a day",
		Long: `List the free slots of a day (YYYY-MM-DD) inside business hours,
skipping everything already booked on the calendar.`,
		Example: "  autoagenda slots 2026-10-19 --duration 90",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := scheduling.ParseDate(args[0])
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
			slots, err := sc.Coordinator().FindFreeSlots(cmd.Context(), sc.CalendarID(calendarID), date, duration)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			policy := sc.Policy()
			switch {
			case policy.IsClosed(date):
				fmt.Fprintf(out, "Closed on %s %s.\n", date.Weekday(), date)
			case len(slots) == 0:
				fmt.Fprintf(out, "No free %d minute slot on %s %s.\n", duration, date.Weekday(), date)
			default:
				fmt.Fprintf(out, "Free %d minute slots on %s %s (%s):\n", duration, date.Weekday(), date, policy.TimeZone())
				for _, slot := range slots {
					fmt.Fprintf(out, "  %s\n", clockRange(slot, policy))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar to search (default: --calendar-id)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Appointment length in minutes (default: --default-duration)")
	return cmd
}

// clockRange renders a slot as local "HH:MM-HH:MM".
func clockRange(slot scheduling.Slot, policy *scheduling.BusinessHoursPolicy) string {
	loc := policy.Location()
	return slot.Start.In(loc).Format("15:04") + "-" + slot.End.In(loc).Format("15:04")
}
