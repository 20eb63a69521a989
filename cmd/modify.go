package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/engine"
)

func newModifyCmd() *cobra.Command {
	var (
		date      string
		timeStr   string
		partySize int
		confirm   bool
	)

	c := &cobra.Command{
		Use:   "modify <booking-id>",
		Short: "Change a booking's date, time or party size (preview by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				res, err := a.engine.Modify(ctx, engine.ModifyParams{
					BookingID: args[0],
					Date:      date,
					Time:      timeStr,
					PartySize: partySize,
					Confirm:   confirm,
				})
				if err != nil {
					return err
				}
				printResult(res)
				if res.Preview {
					out("preview only; re-run with --confirm to commit\n")
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	c.Flags().StringVar(&timeStr, "time", "", "new time (HH:MM)")
	c.Flags().IntVar(&partySize, "party", 0, "new party size")
	c.Flags().BoolVar(&confirm, "confirm", false, "commit the change")
	return c
}
