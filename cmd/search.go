package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/domain/booking"
	"github.com/adamSellers/oakley-bookings/internal/engine"
	"github.com/adamSellers/oakley-bookings/internal/format"
)

func newSearchCmd() *cobra.Command {
	var (
		date      string
		timeStr   string
		partySize int
		priceTier string
		minRating float64
		radiusM   int
		sortBy    string
	)

	c := &cobra.Command{
		Use:   "search <query>",
		Short: "Search restaurants, with platform detection and Resy availability",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				results, err := a.engine.Search(ctx, engine.SearchParams{
					Query:     strings.Join(args, " "),
					Date:      date,
					Time:      timeStr,
					PartySize: partySize,
					PriceTier: booking.PriceTier(priceTier),
					MinRating: minRating,
					RadiusM:   radiusM,
					Sort:      sortBy,
				})
				if err != nil {
					return err
				}
				if len(results) == 0 {
					out("no restaurants found\n")
					return nil
				}

				var b strings.Builder
				b.WriteString(format.SectionHeader("Search results"))
				for i, r := range results {
					b.WriteString(formatSearchResult(i+1, r))
				}
				out("%s", format.Truncate(b.String()))
				return nil
			})
		},
	}

	c.Flags().StringVar(&date, "date", "", "date for availability (YYYY-MM-DD)")
	c.Flags().StringVar(&timeStr, "time", "", "preferred time (HH:MM)")
	c.Flags().IntVar(&partySize, "party", 2, "party size")
	c.Flags().StringVar(&priceTier, "price", "", "price tier (low|mid|high|luxury)")
	c.Flags().Float64Var(&minRating, "min-rating", 0, "minimum rating")
	c.Flags().IntVar(&radiusM, "radius", 0, "search radius in metres")
	c.Flags().StringVar(&sortBy, "sort", "", "sort order (rating|distance|booking_ease)")
	return c
}

func formatSearchResult(n int, r engine.SearchResult) string {
	var b strings.Builder
	w := func(f string, args ...any) { b.WriteString(fmt.Sprintf(f, args...)) }

	w("%d. %s %s\n", n, r.Name, format.PlatformBadge(r.Platform))
	w("   %s · %s · %.1fkm · match %s\n",
		format.Rating(r.Rating, r.ReviewCount), format.PriceTier(r.PriceTier), r.DistanceKm, r.Score())
	if r.Address != "" {
		w("   %s\n", r.Address)
	}
	if len(r.AvailableTimes) > 0 {
		w("   available: %s\n", strings.Join(r.AvailableTimes, ", "))
	}
	w("   id: %s\n", r.PlaceID)
	return b.String()
}
