package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/Hippensteel/youtube-tv-guide/internal/handler"
	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Channel *handler.ChannelHandler
	Event   *handler.EventHandler
	Quota   *handler.QuotaHandler
	Refresh *handler.RefreshHandler
	Health  *handler.HealthHandler
}

// Options carries the settings that shape the middleware stack.
type Options struct {
	CORSOrigins   string
	CronSecret    string
	EnforceCron   bool
	EnableMetrics bool
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, opts Options) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	if opts.EnableMetrics {
		app.Use(handler.MetricsMiddleware())
		app.Get("/metrics", handler.MetricsHandler())
	}
	app.Use(middleware.NewCORS(opts.CORSOrigins))

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)

	read := middleware.NewReadRateLimiter().Handler()
	channelWrite := middleware.NewChannelWriteRateLimiter().Handler()
	search := middleware.NewSearchRateLimiter().Handler()
	syncLimit := middleware.NewSyncRateLimiter().Handler()

	api := app.Group("/api")

	// Channel routes; /search is registered before /:channelId
	api.Get("/channels/search", search, h.Channel.Search)
	api.Get("/channels", read, h.Channel.List)
	api.Post("/channels", channelWrite, h.Channel.Add)
	api.Delete("/channels/:channelId", channelWrite, h.Channel.Remove)

	// Guide grid
	api.Get("/events", read, h.Event.List)

	// Quota ledger
	api.Get("/quota", read, h.Quota.Status)

	// Refresh triggers
	api.Post("/sync", syncLimit, h.Refresh.SyncNow)
	cron := middleware.RequireBearer(opts.CronSecret, opts.EnforceCron)
	api.Post("/cron/refresh", cron, h.Refresh.Cron)
	api.Get("/cron/refresh", cron, h.Refresh.Cron)
}
