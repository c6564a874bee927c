// Package cmd provides the CLI commands of the autoposter binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autoposter",
	Short: "Scheduled article generation and WordPress publishing",
	Long: `autoposter evaluates posting schedules, writes articles with an LLM,
optionally fact-checks them and publishes them to WordPress.

Run "serve" for the HTTP API and "worker" to consume queued runs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, seedCmd, runCmd, outcomesCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
