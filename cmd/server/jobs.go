package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hippensteel/youtube-tv-guide/internal/db"
	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
	"github.com/Hippensteel/youtube-tv-guide/internal/service"
)

var refreshForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle plus retention cleanup and print the result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOnce(cmd, func(ctx context.Context, a *app) error {
			result, err := a.refresh.RefreshAndCleanup(ctx, service.RefreshOptions{Force: refreshForce})
			if err != nil && !errors.Is(err, errs.ErrInsufficientQuota) {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(result); encErr != nil {
				return encErr
			}
			return err
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete finished events older than the retention window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOnce(cmd, func(ctx context.Context, a *app) error {
			n, err := a.refresh.Cleanup(ctx)
			if err != nil {
				return err
			}
			middleware.Logger.Info().Int64("events_deleted", n).Msg("cleanup complete")
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return db.MigrateUp(cfg.DatabaseURL, middleware.Logger)
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "ignore channel staleness (quota checks still apply)")
}
