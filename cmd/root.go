// Package cmd defines and implements the CLI commands for the previewd executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "previewd",
		Short: "Scrape preview orchestration service",
		Long: `previewd fronts the scraping backend for no-code scraper setup. It tries
a fast synchronous preview first and transparently escalates to an
asynchronous scrape task, relaying live progress from the push channel
until exactly one result is committed per request.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (env vars with the PREVIEW_ prefix override)")

	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
