package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newCancelCmd() *cobra.Command {
	var confirm bool

	c := &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a booking (preview by default; --confirm to commit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				res, err := a.engine.Cancel(ctx, args[0], confirm)
				if err != nil {
					return err
				}
				out("%s\n", res.Message)
				if res.Preview {
					out("preview only; re-run with --confirm to commit\n")
				}
				return nil
			})
		},
	}

	c.Flags().BoolVar(&confirm, "confirm", false, "commit the cancellation")
	return c
}
