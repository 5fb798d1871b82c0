package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/config"
	"github.com/teemow/autoagenda/internal/server"
)

func newHistoryCmd(cfg *config.Config, base server.Options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "history PLATE",
		Short:   "Show the latest bookings of a vehicle",
		Example: "  autoagenda history ABC1D23 --limit 5",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := openServerContext(cmd.Context(), cfg, base)
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			records, err := sc.Coordinator().History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			plate := booking.NormalizePlate(args[0])
			if len(records) == 0 {
				fmt.Fprintf(out, "No bookings found for vehicle %s.\n", plate)
				return nil
			}
			fmt.Fprintf(out, "Last %d booking(s) of vehicle %s:\n", len(records), plate)
			for _, r := range records {
				fmt.Fprintf(out, "  %s %02d:%02d  %s", r.AppointmentDate, r.AppointmentStartTime.Hour, r.AppointmentStartTime.Minute, r.Service)
				if r.CurrentMileage > 0 {
					fmt.Fprintf(out, ", %d km", r.CurrentMileage)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", booking.DefaultHistoryLimit, "Maximum number of bookings")
	return cmd
}
