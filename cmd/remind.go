package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/format"
)

func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "List confirmed bookings starting within the next four hours (silent when none, cron-friendly)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				reminders, err := a.engine.Remind(ctx)
				if err != nil {
					return err
				}
				for _, r := range reminders {
					b := r.Booking
					out("%s in %dmin: %s at %s %s\n",
						b.ID, r.MinutesUntil, b.RestaurantName, b.Time, format.PlatformBadge(b.Platform))
					if b.RestaurantAddr != "" {
						out("        %s\n", b.RestaurantAddr)
					}
				}
				return nil
			})
		},
	}
}
