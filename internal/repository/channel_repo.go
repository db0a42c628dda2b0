package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

const channelColumns = `id, title, handle, thumbnail_url, subscriber_count,
	last_fetched_at, fetch_priority, is_active, created_at`

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

func scanChannel(row pgx.Row) (model.Channel, error) {
	var ch model.Channel
	err := row.Scan(
		&ch.ID, &ch.Title, &ch.Handle, &ch.ThumbnailURL, &ch.SubscriberCount,
		&ch.LastFetchedAt, &ch.FetchPriority, &ch.IsActive, &ch.CreatedAt,
	)
	return ch, err
}

func collectChannels(rows pgx.Rows) ([]model.Channel, error) {
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// FindActive returns every active channel, highest fetch priority first.
func (r *ChannelRepo) FindActive(ctx context.Context) ([]model.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE is_active = true
		ORDER BY fetch_priority DESC, last_fetched_at ASC NULLS FIRST`)
	if err != nil {
		return nil, err
	}
	return collectChannels(rows)
}

// FindByIDs returns the channels with the given ids, active or not.
func (r *ChannelRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE id = ANY($1)
		ORDER BY fetch_priority DESC`, ids)
	if err != nil {
		return nil, err
	}
	return collectChannels(rows)
}

// FindStale returns up to limit active channels never fetched or last
// fetched before threshold. Higher fetch priority wins; within a priority,
// never-fetched channels come first, then the oldest fetch.
func (r *ChannelRepo) FindStale(ctx context.Context, threshold time.Time, limit int) ([]model.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE is_active = true
		  AND (last_fetched_at IS NULL OR last_fetched_at < $1)
		ORDER BY fetch_priority DESC, last_fetched_at ASC NULLS FIRST
		LIMIT $2`, threshold, limit)
	if err != nil {
		return nil, err
	}
	return collectChannels(rows)
}

// FindByID returns a single channel; pgx.ErrNoRows if unknown.
func (r *ChannelRepo) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	ch, err := scanChannel(r.pool.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Create inserts a newly tracked channel with priority 1.
func (r *ChannelRepo) Create(ctx context.Context, s model.ChannelSummary) (*model.Channel, error) {
	ch, err := scanChannel(r.pool.QueryRow(ctx, `
		INSERT INTO channels (id, title, handle, thumbnail_url, subscriber_count, fetch_priority, is_active)
		VALUES ($1, $2, $3, $4, $5, 1, true)
		RETURNING `+channelColumns,
		s.ID, s.Title, s.Handle, s.ThumbnailURL, s.SubscriberCount))
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Reactivate marks a known channel active again and bumps its priority.
func (r *ChannelRepo) Reactivate(ctx context.Context, id string) (*model.Channel, error) {
	ch, err := scanChannel(r.pool.QueryRow(ctx, `
		UPDATE channels
		SET fetch_priority = fetch_priority + 1, is_active = true
		WHERE id = $1
		RETURNING `+channelColumns, id))
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Deactivate stops refreshing a channel; its events are kept.
func (r *ChannelRepo) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE channels SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChannelRepo) MarkFetched(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE channels SET last_fetched_at = $1 WHERE id = $2`, at, id)
	return err
}

// SearchCached matches tracked channels by title or handle, case-insensitively.
func (r *ChannelRepo) SearchCached(ctx context.Context, query string, limit int) ([]model.ChannelSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, handle, thumbnail_url, subscriber_count
		FROM channels
		WHERE title ILIKE '%' || $1 || '%' OR handle ILIKE '%' || $1 || '%'
		ORDER BY fetch_priority DESC
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChannelSummary
	for rows.Next() {
		var s model.ChannelSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Handle, &s.ThumbnailURL, &s.SubscriberCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
