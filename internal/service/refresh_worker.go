package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
)

// RefreshWorker is a periodic background job that runs a refresh cycle
// followed by the retention sweep.
type RefreshWorker struct {
	refresh  *RefreshService
	interval time.Duration
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// NewRefreshWorker creates a worker that ticks every interval.
func NewRefreshWorker(refresh *RefreshService, interval time.Duration, logger zerolog.Logger) *RefreshWorker {
	return &RefreshWorker{
		refresh:  refresh,
		interval: interval,
		logger:   logger.With().Str("component", "refresh-worker").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic refresh loop.
// It runs one tick immediately, then every interval.
func (w *RefreshWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Str("strategy", string(w.refresh.Strategy())).Msg("starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.logger.Info().Msg("stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info().Msg("stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *RefreshWorker) Stop() {
	close(w.stopCh)
}

func (w *RefreshWorker) tick(ctx context.Context) {
	result, err := w.refresh.RefreshAndCleanup(ctx, RefreshOptions{})
	switch {
	case errors.Is(err, errs.ErrRefreshInProgress):
		w.logger.Info().Msg("skipping tick, another refresh is running")
	case errors.Is(err, errs.ErrInsufficientQuota):
		w.logger.Warn().Strs("errors", result.Errors).Msg("refresh skipped, insufficient quota")
	case err != nil:
		w.logger.Error().Err(err).Msg("refresh failed")
	default:
		w.logger.Debug().
			Str("cycle_id", result.CycleID).
			Int64("events_deleted", result.EventsDeleted).
			Msg("tick complete")
	}
}
