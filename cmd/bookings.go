package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/engine"
	"github.com/adamSellers/oakley-bookings/internal/format"
)

func newBookingsCmd() *cobra.Command {
	var (
		status   string
		upcoming bool
		past     bool
		limit    int
	)

	c := &cobra.Command{
		Use:   "bookings",
		Short: "List bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				list, err := a.engine.Bookings(ctx, engine.ListParams{
					Status:   booking.Status(status),
					Upcoming: upcoming,
					Past:     past,
					Limit:    limit,
				})
				if err != nil {
					return err
				}
				if len(list) == 0 {
					out("no bookings\n")
					return nil
				}
				for _, b := range list {
					printBooking(b)
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&status, "status", "", "filter by status (confirmed|cancelled|completed|modify_failed)")
	c.Flags().BoolVar(&upcoming, "upcoming", false, "only upcoming confirmed bookings")
	c.Flags().BoolVar(&past, "past", false, "only past bookings")
	c.Flags().IntVar(&limit, "limit", 0, "max rows")
	return c
}

func printBooking(b booking.Booking) {
	out("%s  %s %s\n", b.ID, b.RestaurantName, format.PlatformBadge(b.Platform))
	out("        %s at %s for %d [%s]\n", b.Date, b.Time, b.PartySize, b.Status)
	if b.Notes != "" {
		out("        notes: %s\n", b.Notes)
	}
}
