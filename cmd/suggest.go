package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/format"
)

func newSuggestCmd() *cobra.Command {
	var (
		cuisine  string
		occasion string
	)

	c := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest restaurants from booking history plus a fresh search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				s, err := a.engine.Suggest(ctx, cuisine, occasion)
				if err != nil {
					return err
				}

				var b strings.Builder
				if len(s.Favourites) > 0 {
					b.WriteString(format.SectionHeader("Your favourites"))
					for _, f := range s.Favourites {
						b.WriteString(fmtFavourite(f.RestaurantName, f.VisitCount, f.AvgRating))
					}
				}
				if len(s.Fresh) > 0 {
					b.WriteString(format.SectionHeader("Something new"))
					for i, r := range s.Fresh {
						b.WriteString(formatSearchResult(i+1, r))
					}
				}
				if b.Len() == 0 {
					out("no suggestions yet; book somewhere first\n")
					return nil
				}
				out("%s", format.Truncate(b.String()))
				return nil
			})
		},
	}

	c.Flags().StringVar(&cuisine, "cuisine", "", "cuisine to favour")
	c.Flags().StringVar(&occasion, "occasion", "", "occasion, e.g. anniversary")
	return c
}

func fmtFavourite(name string, visits int, avg float64) string {
	if avg > 0 {
		return fmt.Sprintf("- %s (%d visits, you rated %.1f/5)\n", name, visits, avg)
	}
	return fmt.Sprintf("- %s (%d visits)\n", name, visits)
}
