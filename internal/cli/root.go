// Package cli implements the timecard command-line interface using
// Cobra. Subcommands cover serving the HTTP API, managing projects,
// stages, and tasks, and driving the timer.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "timecard",
	Short: "timecard: project time tracking",
	Long: `timecard records time spent on tasks organized as project → task →
time entry, with one running timer per user.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
