// Package cmd defines the CLI commands for the insight-api executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insight-api",
		Short: "Brand insight analysis service",
		Long: `insight-api fetches public pages, social profiles, and channels through
scraping backends and headless browser automation, then derives descriptive
brand analytics from what it finds.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; env vars with INSIGHT_ prefix also apply)")

	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
