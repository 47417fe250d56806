// Package main provides the entry point for the packagery CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/packagery/cmd/packagery/commands"
	"github.com/Sumatoshi-tech/packagery/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "packagery",
		Short: "Packagery - package a subset of a monorepo",
		Long: `Packagery determines the dependent packages and local files needed to run
a subset of a Python monorepo standalone.

Commands:
  pack      Collect the dependency graph of the given seed paths
  stats     Summarize the collected closure`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewPackCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "packagery %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
