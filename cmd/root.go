package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prodsync",
	Short: "Prodsync promotes a staging environment to production.",
	Long: `Prodsync promotes a staging environment to production: it backs up the
production database, applies the staging schema shape, merges and pushes the
code branch, and redeploys serverless functions.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
