package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "oakley",
		Short: "Restaurant concierge: search, book, track and rate restaurants across Resy, OpenTable, Quandoo and phone-only venues",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newSetupCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newDetailsCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newBookCmd())
	root.AddCommand(newBookingsCmd())
	root.AddCommand(newCancelCmd())
	root.AddCommand(newModifyCmd())
	root.AddCommand(newRateCmd())
	root.AddCommand(newRemindCmd())
	root.AddCommand(newRatePromptCmd())
	root.AddCommand(newSuggestCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
