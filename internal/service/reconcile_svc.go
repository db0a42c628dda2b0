package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hippensteel/youtube-tv-guide/internal/metrics"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

const (
	LiveExpiry     = 12 * time.Hour
	EventRetention = 7 * 24 * time.Hour
)

var (
	activeStatuses   = []model.EventStatus{model.StatusUpcoming, model.StatusLive}
	finishedStatuses = []model.EventStatus{model.StatusCompleted, model.StatusCancelled}
)

// ReconcileService merges observed events into the store and runs the
// time-based sweeps. Every write commits on its own.
type ReconcileService struct {
	events EventStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewReconcileService(events EventStore, logger zerolog.Logger) *ReconcileService {
	return &ReconcileService{
		events: events,
		logger: logger.With().Str("component", "reconcile").Logger(),
		now:    time.Now,
	}
}

// Upsert stores each event and returns how many were written. The first
// store error aborts; events written before it stay committed.
func (s *ReconcileService) Upsert(ctx context.Context, events []model.ScheduledEvent) (int, error) {
	written := 0
	for _, ev := range events {
		if err := s.events.UpsertEvent(ctx, ev); err != nil {
			metrics.EventsUpserted(written)
			return written, fmt.Errorf("upsert event %s: %w", ev.ID, err)
		}
		written++
	}
	metrics.EventsUpserted(written)
	return written, nil
}

// RefreshStatus updates only status and actual start of known events.
// Unknown ids are skipped.
func (s *ReconcileService) RefreshStatus(ctx context.Context, events []model.ScheduledEvent) (int, error) {
	refreshed := 0
	for _, ev := range events {
		ok, err := s.events.UpdateStatusOnly(ctx, ev.ID, ev.Status, ev.ActualStartTime)
		if err != nil {
			return refreshed, fmt.Errorf("refresh status %s: %w", ev.ID, err)
		}
		if ok {
			refreshed++
		}
	}
	return refreshed, nil
}

// ActiveEventIDs returns ids of UPCOMING and LIVE events scheduled at or
// after since.
func (s *ReconcileService) ActiveEventIDs(ctx context.Context, since time.Time) ([]string, error) {
	ids, err := s.events.FindIDsByStatusSince(ctx, activeStatuses, since)
	if err != nil {
		return nil, fmt.Errorf("load active events: %w", err)
	}
	return ids, nil
}

// ExpireStaleLive completes LIVE events that started over 12 hours ago.
func (s *ReconcileService) ExpireStaleLive(ctx context.Context) (int64, error) {
	n, err := s.events.UpdateStatusWhere(ctx, model.StatusLive, s.now().Add(-LiveExpiry), model.StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("expire stale live events: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("events", n).Msg("expired stale live events")
	}
	return n, nil
}

// CleanupOldEvents deletes finished events scheduled over 7 days ago.
func (s *ReconcileService) CleanupOldEvents(ctx context.Context) (int64, error) {
	n, err := s.events.DeleteWhere(ctx, finishedStatuses, s.now().Add(-EventRetention))
	if err != nil {
		return 0, fmt.Errorf("cleanup old events: %w", err)
	}
	metrics.EventsDeleted(n)
	if n > 0 {
		s.logger.Info().Int64("events", n).Msg("deleted old events")
	}
	return n, nil
}
