package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:           "tvguide",
	Short:         "YouTube TV guide backend",
	Long:          `Live stream and premiere guide API. Commands: serve, refresh, cleanup, migrate.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe, // default: same as "tvguide serve"
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		middleware.Logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
