package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/metrics"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

// Strategy selects how a refresh cycle discovers events. A deployment
// uses exactly one; their quota models are not mixed.
type Strategy string

const (
	// StrategyRSS reads the free feeds of every active channel and
	// confirms live details with batched videos.list calls.
	StrategyRSS Strategy = "rss"
	// StrategySearch runs a paid upcoming-broadcast search for the most
	// stale channels by priority, then refreshes known events' status.
	StrategySearch Strategy = "search"
)

const (
	feedIDsPerChannel     = 15
	statusRefreshLookback = 2 * time.Hour

	DefaultStaleAfter  = 6 * time.Hour
	DefaultMaxChannels = 20
)

// CycleLocker serializes refresh cycles across triggers.
type CycleLocker interface {
	AcquireRefreshLock(ctx context.Context, ttl time.Duration) (func(), error)
}

type RefreshConfig struct {
	Strategy    Strategy
	StaleAfter  time.Duration
	MaxChannels int
}

// RefreshOptions tune a single cycle.
type RefreshOptions struct {
	// Force ignores channel staleness ("sync now"). Quota checks still apply.
	Force bool
}

// RefreshService runs refresh cycles. A cycle processes channels strictly
// one after another and commits each write as it goes, so a failed cycle
// leaves whatever it stored so far in place.
type RefreshService struct {
	channels  ChannelStore
	feed      FeedSource
	metered   *MeteredService
	ledger    *QuotaLedger
	reconcile *ReconcileService
	locker    CycleLocker
	cfg       RefreshConfig
	logger    zerolog.Logger
	now       func() time.Time
}

func NewRefreshService(
	channels ChannelStore,
	feed FeedSource,
	metered *MeteredService,
	ledger *QuotaLedger,
	reconcile *ReconcileService,
	locker CycleLocker,
	cfg RefreshConfig,
	logger zerolog.Logger,
) *RefreshService {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyRSS
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.MaxChannels <= 0 {
		cfg.MaxChannels = DefaultMaxChannels
	}
	return &RefreshService{
		channels:  channels,
		feed:      feed,
		metered:   metered,
		ledger:    ledger,
		reconcile: reconcile,
		locker:    locker,
		cfg:       cfg,
		logger:    logger.With().Str("component", "refresh").Logger(),
		now:       time.Now,
	}
}

func (s *RefreshService) Strategy() Strategy {
	return s.cfg.Strategy
}

// RefreshAndCleanup takes the cycle lock, runs one refresh with the
// configured strategy, then the retention sweep. An insufficient-quota
// abort still runs the sweep and is returned alongside the result.
func (s *RefreshService) RefreshAndCleanup(ctx context.Context, opts RefreshOptions) (*model.RefreshResult, error) {
	if s.locker != nil {
		release, err := s.locker.AcquireRefreshLock(ctx, RefreshLockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	result, refreshErr := s.Refresh(ctx, opts)
	if refreshErr != nil && !errors.Is(refreshErr, errs.ErrInsufficientQuota) {
		return nil, refreshErr
	}

	deleted, err := s.reconcile.CleanupOldEvents(ctx)
	if err != nil {
		return nil, err
	}
	result.EventsDeleted = deleted
	return result, refreshErr
}

// Refresh runs one cycle without locking or retention cleanup.
func (s *RefreshService) Refresh(ctx context.Context, opts RefreshOptions) (*model.RefreshResult, error) {
	cycleID := uuid.NewString()
	ctx = WithCycleID(ctx, cycleID)
	logger := s.logger.With().Str("cycle_id", cycleID).Str("strategy", string(s.cfg.Strategy)).Logger()

	result := &model.RefreshResult{
		CycleID:  cycleID,
		Strategy: string(s.cfg.Strategy),
		Errors:   []string{},
	}

	start := time.Now()
	var err error
	switch s.cfg.Strategy {
	case StrategySearch:
		err = s.refreshBySearch(ctx, opts, result)
	default:
		err = s.refreshByFeed(ctx, result)
	}

	result.Quota.Total = result.Quota.Search + result.Quota.Detail
	result.QuotaUsed = result.Quota.Total
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case errors.Is(err, errs.ErrInsufficientQuota):
		outcome = "insufficient_quota"
	case err != nil:
		outcome = "error"
	case len(result.Errors) > 0:
		outcome = "partial"
	}
	metrics.RefreshFinished(string(s.cfg.Strategy), outcome, elapsed.Seconds())

	if err != nil && !errors.Is(err, errs.ErrInsufficientQuota) {
		logger.Error().Err(err).Dur("duration", elapsed).Msg("refresh cycle failed")
		return nil, err
	}

	logger.Info().
		Int("channels_fetched", result.ChannelsFetched).
		Int("channels_searched", result.ChannelsSearched).
		Int("videos_checked", result.VideosChecked).
		Int("events_found", result.EventsFound).
		Int("events_updated", result.EventsUpdated).
		Int("events_refreshed", result.EventsRefreshed).
		Int("quota_search", result.Quota.Search).
		Int("quota_detail", result.Quota.Detail).
		Int("quota_used", result.QuotaUsed).
		Int("errors", len(result.Errors)).
		Dur("duration", elapsed).
		Msg("refresh cycle complete")

	return result, err
}

// refreshByFeed pulls every active channel's free feed, then confirms
// which of the collected videos are scheduled events.
func (s *RefreshService) refreshByFeed(ctx context.Context, result *model.RefreshResult) error {
	channels, err := s.channels.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("load active channels: %w", err)
	}

	seen := make(map[string]struct{})
	var videoIDs []string

	for _, ch := range channels {
		videos, err := s.feed.FetchRecent(ctx, ch.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("RSS fetch failed for %s: %v", ch.Title, err))
			continue
		}
		result.ChannelsFetched++

		if len(videos) > feedIDsPerChannel {
			videos = videos[:feedIDsPerChannel]
		}
		for _, v := range videos {
			if _, dup := seen[v.VideoID]; dup {
				continue
			}
			seen[v.VideoID] = struct{}{}
			videoIDs = append(videoIDs, v.VideoID)
		}

		if err := s.channels.MarkFetched(ctx, ch.ID, s.now()); err != nil {
			return fmt.Errorf("mark channel %s fetched: %w", ch.ID, err)
		}
	}

	result.VideosChecked = len(videoIDs)
	if len(videoIDs) > 0 {
		raws, units, detailErr := s.metered.VideoDetails(ctx, videoIDs)
		result.Quota.Detail += units

		events := ClassifyAll(raws)
		result.EventsFound = len(events)
		n, err := s.reconcile.Upsert(ctx, events)
		result.EventsUpdated = n
		if err != nil {
			return err
		}

		if detailErr != nil {
			if errors.Is(detailErr, errs.ErrQuotaExhausted) {
				result.Errors = append(result.Errors,
					"YouTube API quota exhausted - RSS fetch succeeded, but cannot check live status until quota resets")
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("Video details fetch failed: %v", detailErr))
			}
		}
	}

	if _, err := s.reconcile.ExpireStaleLive(ctx); err != nil {
		return err
	}
	return nil
}

// refreshBySearch searches the stalest channels by priority while budget
// lasts, then refreshes the status of known upcoming and live events.
func (s *RefreshService) refreshBySearch(ctx context.Context, opts RefreshOptions, result *model.RefreshResult) error {
	st, err := s.ledger.CheckQuota(ctx, 2*CostSearch)
	if err != nil {
		return fmt.Errorf("check quota: %w", err)
	}
	if !st.HasQuota {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Insufficient quota for refresh: %d units remaining, %d required", st.Remaining, 2*CostSearch))
		return errs.ErrInsufficientQuota
	}

	channels, err := s.selectChannels(ctx, opts)
	if err != nil {
		return err
	}

	for i, ch := range channels {
		if err := s.searchChannel(ctx, ch, result); err != nil {
			if errors.Is(err, errs.ErrQuotaExhausted) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("Quota exhausted after %d of %d channels", i, len(channels)))
				break
			}
			var scoped *channelError
			if errors.As(err, &scoped) {
				result.Errors = append(result.Errors, scoped.Error())
				continue
			}
			return err
		}
	}

	if err := s.refreshKnownStatuses(ctx, result); err != nil {
		return err
	}

	if _, err := s.reconcile.ExpireStaleLive(ctx); err != nil {
		return err
	}
	return nil
}

// selectChannels returns the stale channels by priority, or every active
// channel when forced, capped at MaxChannels.
func (s *RefreshService) selectChannels(ctx context.Context, opts RefreshOptions) ([]model.Channel, error) {
	if opts.Force {
		channels, err := s.channels.FindActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("load active channels: %w", err)
		}
		if len(channels) > s.cfg.MaxChannels {
			channels = channels[:s.cfg.MaxChannels]
		}
		return channels, nil
	}

	channels, err := s.channels.FindStale(ctx, s.now().Add(-s.cfg.StaleAfter), s.cfg.MaxChannels)
	if err != nil {
		return nil, fmt.Errorf("load stale channels: %w", err)
	}
	return channels, nil
}

// channelError is a failure scoped to one channel; the cycle moves on.
type channelError struct {
	title string
	err   error
}

func (e *channelError) Error() string {
	return fmt.Sprintf("Search failed for %s: %v", e.title, e.err)
}

func (e *channelError) Unwrap() error {
	return e.err
}

// searchChannel refreshes one channel. Quota errors are returned bare so
// the caller stops; other API errors come back as *channelError; store
// errors are fatal.
func (s *RefreshService) searchChannel(ctx context.Context, ch model.Channel, result *model.RefreshResult) error {
	ids, err := s.metered.SearchUpcoming(ctx, ch.ID)
	if err != nil {
		if errors.Is(err, errs.ErrQuotaExhausted) {
			return err
		}
		return &channelError{title: ch.Title, err: err}
	}
	result.Quota.Search += CostSearch

	raws, units, detailErr := s.metered.VideoDetails(ctx, ids)
	result.Quota.Detail += units

	events := ClassifyAll(raws)
	result.EventsFound += len(events)
	n, err := s.reconcile.Upsert(ctx, events)
	result.EventsUpdated += n
	if err != nil {
		return err
	}

	if detailErr != nil {
		if errors.Is(detailErr, errs.ErrQuotaExhausted) {
			return detailErr
		}
		return &channelError{title: ch.Title, err: detailErr}
	}

	if err := s.channels.MarkFetched(ctx, ch.ID, s.now()); err != nil {
		return fmt.Errorf("mark channel %s fetched: %w", ch.ID, err)
	}
	result.ChannelsSearched++
	return nil
}

// refreshKnownStatuses re-reads status and actual start of events still
// upcoming or live from two hours ago onward. Titles and thumbnails are
// left alone.
func (s *RefreshService) refreshKnownStatuses(ctx context.Context, result *model.RefreshResult) error {
	ids, err := s.reconcile.ActiveEventIDs(ctx, s.now().Add(-statusRefreshLookback))
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	raws, units, detailErr := s.metered.VideoDetails(ctx, ids)
	result.Quota.Detail += units

	updates := make([]model.ScheduledEvent, 0, len(raws))
	for _, raw := range raws {
		updates = append(updates, model.ScheduledEvent{
			ID:              raw.VideoID,
			Status:          ClassifyStatus(raw),
			ActualStartTime: raw.ActualStartTime,
		})
	}
	n, err := s.reconcile.RefreshStatus(ctx, updates)
	result.EventsRefreshed += n
	if err != nil {
		return err
	}

	if detailErr != nil {
		if errors.Is(detailErr, errs.ErrQuotaExhausted) {
			result.Errors = append(result.Errors,
				"YouTube API quota exhausted - status refresh of known events deferred until quota resets")
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("Status refresh failed: %v", detailErr))
		}
	}
	return nil
}

// Cleanup runs only the retention sweep.
func (s *RefreshService) Cleanup(ctx context.Context) (int64, error) {
	return s.reconcile.CleanupOldEvents(ctx)
}
