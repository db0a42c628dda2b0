package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

const DefaultGridWindow = 24 * time.Hour

type EventService struct {
	events EventStore
	now    func() time.Time
}

func NewEventService(events EventStore) *EventService {
	return &EventService{events: events, now: time.Now}
}

// List returns grid rows. A zero Start means now, a zero End means 24h
// after Start, and no statuses means UPCOMING and LIVE.
func (s *EventService) List(ctx context.Context, q model.EventQuery) ([]model.EventWithChannel, error) {
	if q.Start.IsZero() {
		q.Start = s.now()
	}
	if q.End.IsZero() {
		q.End = q.Start.Add(DefaultGridWindow)
	}
	if q.End.Before(q.Start) {
		return nil, fmt.Errorf("end before start: %w", errs.ErrInvalidQuery)
	}
	if len(q.Statuses) == 0 {
		q.Statuses = activeStatuses
	}
	for _, st := range q.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("unknown status %q: %w", st, errs.ErrInvalidQuery)
		}
	}

	events, err := s.events.FindInWindow(ctx, q)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.EventWithChannel{}
	}
	return events, nil
}
