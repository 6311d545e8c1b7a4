// Package cmd is the Cobra CLI surface: a root command plus run/dashboard
// subcommands, mirroring the teacher's cmd/root.go (flags registered in
// init(), Execute() wrapping rootCmd.Execute()).
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cloudsim-eec",
	Short: "Energy-aware cloud workload scheduler simulator",
}

// Execute runs the root command, exiting with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dashboardCmd)
}
