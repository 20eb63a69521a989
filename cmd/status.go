package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and configuration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				out("env:       %s\n", a.cfg.AppEnv)

				if err := a.db.Ping(ctx); err != nil {
					out("database:  error (%v)\n", err)
				} else {
					out("database:  ok\n")
				}

				if key, _ := a.auth.GoogleKey(ctx); key != "" {
					out("google:    configured\n")
				} else {
					out("google:    not configured\n")
				}

				creds, _ := a.auth.ResyCredentials(ctx)
				switch {
				case !creds.Configured():
					out("resy:      not configured\n")
				default:
					if err := a.resy.Ping(ctx); err != nil {
						out("resy:      error (%v)\n", err)
					} else {
						out("resy:      ok\n")
					}
				}

				if a.cfg.CalendarWebhookURL != "" {
					out("calendar:  configured\n")
				} else {
					out("calendar:  not configured\n")
				}

				total, err := a.store.CountBookings(ctx, "")
				if err != nil {
					return err
				}
				confirmed, err := a.store.CountBookings(ctx, booking.StatusConfirmed)
				if err != nil {
					return err
				}
				out("bookings:  %d total, %d confirmed\n", total, confirmed)
				return nil
			})
		},
	}
}
