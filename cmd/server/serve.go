package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"

	"github.com/Hippensteel/youtube-tv-guide/internal/db"
	"github.com/Hippensteel/youtube-tv-guide/internal/handler"
	"github.com/Hippensteel/youtube-tv-guide/internal/metrics"
	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
	"github.com/Hippensteel/youtube-tv-guide/internal/router"
	"github.com/Hippensteel/youtube-tv-guide/internal/service"
)

var (
	serveWorker  bool
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the periodic refresh worker)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWorker, "worker", true, "run the periodic refresh worker in-process")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply database migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := middleware.Logger

	if serveMigrate {
		if err := db.MigrateUp(cfg.DatabaseURL, logger); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	metrics.Init(a.pool)

	fiberApp := fiber.New(fiber.Config{
		AppName:      "YouTube TV Guide API",
		ServerHeader: "tvguide",
	})
	router.Setup(fiberApp, &router.Handlers{
		Channel: handler.NewChannelHandler(a.channels),
		Event:   handler.NewEventHandler(a.events),
		Quota:   handler.NewQuotaHandler(a.ledger),
		Refresh: handler.NewRefreshHandler(a.refresh),
		Health:  handler.NewHealthHandler(a.pool, a.cache.Client(), string(a.refresh.Strategy()), version),
	}, router.Options{
		CORSOrigins:   cfg.CORSOrigins,
		CronSecret:    cfg.CronSecret,
		EnforceCron:   cfg.IsProduction(),
		EnableMetrics: true,
	})

	var worker *service.RefreshWorker
	if serveWorker && cfg.RefreshInterval > 0 {
		worker = service.NewRefreshWorker(a.refresh, cfg.RefreshInterval, logger)
		go worker.Start(ctx)
	}

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if worker != nil {
			worker.Stop()
		}
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Environment).
		Str("strategy", cfg.RefreshStrategy).
		Msg("tvguide starting")
	return fiberApp.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
}

// runOnce wires the app for a one-shot command.
func runOnce(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
