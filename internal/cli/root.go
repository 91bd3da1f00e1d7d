// Package cli wires the tickcal commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tickcal",
	Short: "tickcal – task calendar daemon with recurrence and reminders",
	Long: `tickcal serves a task calendar over HTTP: month/week/day/agenda views,
recurring tasks, reminder scheduling and an ICS feed, backed by SQLite.`,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "tickcal.yaml", "Path to the YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
