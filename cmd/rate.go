package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRateCmd() *cobra.Command {
	var notes string

	c := &cobra.Command{
		Use:   "rate <booking-id> <score>",
		Short: "Rate a booking 1-5 (one rating per booking)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid score %q (want 1-5)", args[1])
			}
			return runApp(func(ctx context.Context, a *app) error {
				b, err := a.engine.Rate(ctx, args[0], score, notes)
				if err != nil {
					return err
				}
				out("rated %s (%s on %s) %d/5\n", b.ID, b.RestaurantName, b.Date, score)
				return nil
			})
		},
	}

	c.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return c
}
