package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

const dayLayout = "2006-01-02"

type QuotaRepo struct {
	pool *pgxpool.Pool
}

func NewQuotaRepo(pool *pgxpool.Pool) *QuotaRepo {
	return &QuotaRepo{pool: pool}
}

// SumUnits returns the units logged for the calendar day of day. The day is
// taken from day's own location, so callers pass a local-midnight time.
func (r *QuotaRepo) SumUnits(ctx context.Context, day time.Time) (int, error) {
	var used int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(units_used), 0)
		FROM quota_logs
		WHERE date = $1::date`, day.Format(dayLayout)).Scan(&used)
	return used, err
}

func (r *QuotaRepo) Insert(ctx context.Context, e model.QuotaLogEntry) error {
	var details any
	if len(e.Details) > 0 {
		details = string(e.Details)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quota_logs (date, units_used, operation, details)
		VALUES ($1::date, $2, $3, $4::jsonb)`,
		e.Date.Format(dayLayout), e.UnitsUsed, e.Operation, details)
	return err
}

// RecentForDay returns the newest entries of a day, newest first.
func (r *QuotaRepo) RecentForDay(ctx context.Context, day time.Time, limit int) ([]model.QuotaLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, units_used, operation, details, created_at
		FROM quota_logs
		WHERE date = $1::date
		ORDER BY created_at DESC
		LIMIT $2`, day.Format(dayLayout), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.QuotaLogEntry{}
	for rows.Next() {
		var e model.QuotaLogEntry
		var details []byte
		if err := rows.Scan(&e.ID, &e.Date, &e.UnitsUsed, &e.Operation, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Details = details
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
