package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/engine"
)

func newCheckCmd() *cobra.Command {
	var (
		date      string
		timeStr   string
		partySize int
	)

	c := &cobra.Command{
		Use:   "check <place-id>",
		Short: "Check availability for a restaurant (read-only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				res, err := a.engine.Check(ctx, engine.BookParams{
					PlaceID:   args[0],
					Date:      date,
					Time:      timeStr,
					PartySize: partySize,
				})
				if err != nil {
					return err
				}
				out("%s\n", res.Message)
				if len(res.Slots) > 0 {
					out("slots: %s\n", strings.Join(res.Slots, ", "))
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	c.Flags().StringVar(&timeStr, "time", "", "time (HH:MM)")
	c.Flags().IntVar(&partySize, "party", 2, "party size")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	return c
}
