package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamSellers/oakley-bookings/internal/format"
)

func newDetailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details <place-id>",
		Short: "Show restaurant details with platform classification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				r, err := a.engine.Details(ctx, args[0])
				if err != nil {
					return err
				}
				out("%s %s\n", r.Name, format.PlatformBadge(r.Platform))
				out("rating:   %s\n", format.Rating(r.Rating, r.ReviewCount))
				out("price:    %s\n", format.PriceTier(r.PriceTier))
				if r.Address != "" {
					out("address:  %s\n", r.Address)
				}
				if r.Phone != "" {
					out("phone:    %s\n", r.Phone)
				}
				if r.Website != "" {
					out("website:  %s\n", r.Website)
				}
				if len(r.Cuisine) > 0 {
					out("cuisine:  %s\n", strings.Join(r.Cuisine, ", "))
				}
				if r.PlatformID != "" {
					out("platform: %s (%s)\n", r.Platform, r.PlatformID)
				}
				return nil
			})
		},
	}
}
