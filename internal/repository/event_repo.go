package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// UpsertEvent creates or refreshes an event.
//
// The update branch deliberately leaves event_type alone: the type seen on
// first observation sticks. Status only moves forward along
// UPCOMING -> LIVE -> COMPLETED, and COMPLETED/CANCELLED are never left
// (mirrors model.NextStatus).
func (r *EventRepo) UpsertEvent(ctx context.Context, ev model.ScheduledEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scheduled_events (
			id, channel_id, title, description, thumbnail_url,
			scheduled_start_time, scheduled_end_time, actual_start_time,
			event_type, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title                = EXCLUDED.title,
			description          = EXCLUDED.description,
			thumbnail_url        = EXCLUDED.thumbnail_url,
			scheduled_start_time = EXCLUDED.scheduled_start_time,
			scheduled_end_time   = EXCLUDED.scheduled_end_time,
			actual_start_time    = COALESCE(EXCLUDED.actual_start_time, scheduled_events.actual_start_time),
			status = CASE
				WHEN scheduled_events.status IN ('COMPLETED', 'CANCELLED') THEN scheduled_events.status
				WHEN scheduled_events.status = 'LIVE' AND EXCLUDED.status = 'UPCOMING' THEN scheduled_events.status
				ELSE EXCLUDED.status
			END,
			updated_at = NOW()`,
		ev.ID, ev.ChannelID, ev.Title, ev.Description, ev.ThumbnailURL,
		ev.ScheduledStartTime, ev.ScheduledEndTime, ev.ActualStartTime,
		string(ev.EventType), string(ev.Status))
	return err
}

// UpdateStatusOnly refreshes status and actual start of a known event,
// leaving every descriptive field untouched. Returns false if the event
// does not exist.
func (r *EventRepo) UpdateStatusOnly(ctx context.Context, id string, status model.EventStatus, actualStart *time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_events
		SET status = CASE
				WHEN status IN ('COMPLETED', 'CANCELLED') THEN status
				WHEN status = 'LIVE' AND $2 = 'UPCOMING' THEN status
				ELSE $2
			END,
			actual_start_time = COALESCE($3, actual_start_time),
			updated_at = NOW()
		WHERE id = $1`, id, string(status), actualStart)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindIDsByStatusSince returns ids of events in one of statuses whose
// scheduled start is at or after minStart.
func (r *EventRepo) FindIDsByStatusSince(ctx context.Context, statuses []model.EventStatus, minStart time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM scheduled_events
		WHERE status = ANY($1) AND scheduled_start_time >= $2
		ORDER BY scheduled_start_time ASC`, statusStrings(statuses), minStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteWhere removes events in one of statuses scheduled before cutoff.
func (r *EventRepo) DeleteWhere(ctx context.Context, statuses []model.EventStatus, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM scheduled_events
		WHERE status = ANY($1) AND scheduled_start_time < $2`, statusStrings(statuses), before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdateStatusWhere moves every event in status scheduled before cutoff
// to newStatus.
func (r *EventRepo) UpdateStatusWhere(ctx context.Context, status model.EventStatus, before time.Time, newStatus model.EventStatus) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_events
		SET status = $3, updated_at = NOW()
		WHERE status = $1 AND scheduled_start_time < $2`, string(status), before, string(newStatus))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FindInWindow returns grid rows for the query window, earliest first.
func (r *EventRepo) FindInWindow(ctx context.Context, q model.EventQuery) ([]model.EventWithChannel, error) {
	var channelFilter []string
	if len(q.ChannelIDs) > 0 {
		channelFilter = q.ChannelIDs
	}

	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.channel_id, e.title, e.description, e.thumbnail_url,
		       e.scheduled_start_time, e.scheduled_end_time, e.actual_start_time,
		       e.event_type, e.status,
		       c.id, c.title, c.handle, c.thumbnail_url
		FROM scheduled_events e
		JOIN channels c ON c.id = e.channel_id
		WHERE e.scheduled_start_time >= $1 AND e.scheduled_start_time <= $2
		  AND e.status = ANY($3)
		  AND ($4::text[] IS NULL OR e.channel_id = ANY($4))
		ORDER BY e.scheduled_start_time ASC`,
		q.Start, q.End, statusStrings(q.Statuses), channelFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.EventWithChannel{}
	for rows.Next() {
		var ev model.EventWithChannel
		var eventType, status string
		err := rows.Scan(
			&ev.ID, &ev.ChannelID, &ev.Title, &ev.Description, &ev.ThumbnailURL,
			&ev.ScheduledStartTime, &ev.ScheduledEndTime, &ev.ActualStartTime,
			&eventType, &status,
			&ev.Channel.ID, &ev.Channel.Title, &ev.Channel.Handle, &ev.Channel.ThumbnailURL,
		)
		if err != nil {
			return nil, err
		}
		ev.EventType = model.EventType(eventType)
		ev.Status = model.EventStatus(status)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func statusStrings(statuses []model.EventStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
