package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/engine"
	"github.com/adamSellers/oakley-bookings/internal/format"
	"github.com/adamSellers/oakley-bookings/internal/strategy"
)

func newBookCmd() *cobra.Command {
	var (
		date      string
		timeStr   string
		partySize int
		notes     string
		confirm   bool
	)

	c := &cobra.Command{
		Use:   "book <place-id>",
		Short: "Book a table (preview by default; --confirm to commit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				res, err := a.engine.Book(ctx, engine.BookParams{
					PlaceID:   args[0],
					Date:      date,
					Time:      timeStr,
					PartySize: partySize,
					Notes:     notes,
					Confirm:   confirm,
				})
				if err != nil {
					return err
				}
				printResult(res.Result)
				if res.BookingID != "" {
					out("booking id: %s\n", res.BookingID)
				} else {
					out("preview only; re-run with --confirm to commit\n")
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	c.Flags().StringVar(&timeStr, "time", "", "time (HH:MM)")
	c.Flags().IntVar(&partySize, "party", 2, "party size")
	c.Flags().StringVar(&notes, "notes", "", "notes for the booking")
	c.Flags().BoolVar(&confirm, "confirm", false, "commit the booking")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	return c
}

func printResult(res strategy.Result) {
	out("%s %s\n", res.RestaurantName, format.PlatformBadge(res.Platform))
	out("%s at %s for %d\n", res.Date, res.Time, res.PartySize)
	if res.Message != "" {
		out("%s\n", res.Message)
	}
	if res.DeepLink != "" {
		out("link: %s\n", res.DeepLink)
	}
	if res.Phone != "" {
		out("phone: %s\n", res.Phone)
	}
}
