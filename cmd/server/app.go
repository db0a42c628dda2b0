package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hippensteel/youtube-tv-guide/internal/config"
	"github.com/Hippensteel/youtube-tv-guide/internal/db"
	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
	"github.com/Hippensteel/youtube-tv-guide/internal/repository"
	"github.com/Hippensteel/youtube-tv-guide/internal/service"
	"github.com/Hippensteel/youtube-tv-guide/internal/youtube"
)

// app is the wired dependency graph shared by every command.
type app struct {
	cfg  *config.Config
	pool *pgxpool.Pool

	cache    *service.CacheService
	ledger   *service.QuotaLedger
	channels *service.ChannelService
	events   *service.EventService
	refresh  *service.RefreshService
}

// loadConfig reads and validates config and sets up the global logger.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "tvguide")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := middleware.Logger

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	api, err := youtube.NewClient(ctx, cfg.YouTubeAPIKey, cfg.YouTubeAPIEndpoint)
	if err != nil {
		pool.Close()
		return nil, err
	}

	cache := service.NewCacheService(cfg.RedisURL, logger)

	feedClient := youtube.NewFeedClient(cfg.FeedBaseURL, &http.Client{Timeout: 10 * time.Second}, cfg.FeedRatePerSecond, logger)
	feed := service.NewCachedFeed(feedClient, cache, cfg.FeedCacheTTL)

	channelRepo := repository.NewChannelRepo(pool)
	eventRepo := repository.NewEventRepo(pool)
	quotaRepo := repository.NewQuotaRepo(pool)

	ledger := service.NewQuotaLedger(quotaRepo, cfg.DailyQuota, logger)
	metered := service.NewMeteredService(api, ledger, logger)
	reconcile := service.NewReconcileService(eventRepo, logger)

	refresh := service.NewRefreshService(channelRepo, feed, metered, ledger, reconcile, cache, service.RefreshConfig{
		Strategy:    service.Strategy(cfg.RefreshStrategy),
		StaleAfter:  cfg.StaleAfter,
		MaxChannels: cfg.MaxChannelsPerCycle,
	}, logger)

	return &app{
		cfg:      cfg,
		pool:     pool,
		cache:    cache,
		ledger:   ledger,
		channels: service.NewChannelService(channelRepo, metered, ledger, cache, logger),
		events:   service.NewEventService(eventRepo),
		refresh:  refresh,
	}, nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		middleware.Logger.Warn().Err(err).Msg("redis close failed")
	}
	a.pool.Close()
}
