// Package main provides the entry point for the report-desk CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "report-desk",
		Short: "Game sales report desk",
		Long: `report-desk browses, filters and exports the game sales report.

Commands:
  tui       Interactive terminal report
  serve     HTTP API, notification stream and scheduled snapshots
  export    Write the filtered report to a file
  print     Print the filtered report as a table
  tables    List allowed tables or dump one
  snapshot  Run one scheduled snapshot now`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (yaml, json or toml)")

	rootCmd.AddCommand(
		tuiCmd(),
		serveCmd(),
		exportCmd(),
		printCmd(),
		tablesCmd(),
		snapshotCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
