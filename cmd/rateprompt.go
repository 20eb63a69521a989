package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newRatePromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate-prompt",
		Short: "List yesterday's unrated bookings (silent when none, cron-friendly)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				list, err := a.engine.RatePrompt(ctx)
				if err != nil {
					return err
				}
				for _, b := range list {
					out("how was %s? rate it: oakley rate %s <1-5>\n", b.RestaurantName, b.ID)
				}
				return nil
			})
		},
	}
}
