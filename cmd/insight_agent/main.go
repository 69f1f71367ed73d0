// Package main provides the insight_agent CLI: survey insights, trends,
// exports and the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "insight_agent",
		Short: "Alumni survey insight engine",
		Long: "insight_agent turns alumni tracer survey aggregates into employment analysis, " +
			"program-to-job matches, decision rules, multi-year trends and exportable reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a JSON or YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print boxed intermediate results")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newTrendCmd(opts),
		newExportCmd(opts),
		newWatchCmd(opts),
		newServeCmd(opts),
		newMigrateCmd(opts),
		newIngestCmd(opts),
		newTokenCmd(),
		newValidateCmd(),
	)
	return cmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
