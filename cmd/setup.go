package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	var (
		googleKey string
		resyKey   string
		resyToken string
	)

	c := &cobra.Command{
		Use:   "setup",
		Short: "Store API credentials (encrypted at rest, requires OAKLEY_SECRET_KEY)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, a *app) error {
				if googleKey != "" {
					if err := a.auth.SaveGoogleKey(ctx, googleKey); err != nil {
						return err
					}
					out("stored google places key\n")
				}
				if resyKey != "" || resyToken != "" {
					if err := a.auth.SaveResyCredentials(ctx, resyKey, resyToken); err != nil {
						return err
					}
					out("stored resy credentials\n")
				}
				if googleKey == "" && resyKey == "" && resyToken == "" {
					out("nothing to store; pass --google-api-key and/or --resy-api-key/--resy-auth-token\n")
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&googleKey, "google-api-key", "", "Google Places API key")
	c.Flags().StringVar(&resyKey, "resy-api-key", "", "Resy API key")
	c.Flags().StringVar(&resyToken, "resy-auth-token", "", "Resy auth token")
	return c
}
