// Package cmd defines and implements the CLI commands for the trailhound executable.
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
		Use:   "trailhound",
		Short: "An autonomous investigation engine for historical web evidence.",
		Long: `trailhound runs iterative investigations against the live web and its
archived history. It maintains a prioritized frontier of targets, extracts
and scores artifacts from every fetched document, and consults an advisory
model for follow-up leads until one of its termination budgets is exhausted.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML; TRAILHOUND_* env vars override)")

	cmd.AddCommand(newInvestigateCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
