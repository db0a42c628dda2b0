package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hippensteel/youtube-tv-guide/internal/metrics"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

// Quota unit costs of the Data API operations we use.
const (
	CostSearch       = 100
	CostVideosList   = 1
	CostChannelsList = 1

	DefaultDailyQuota = 10000
)

const recentLogLimit = 20

// QuotaLedger tracks units spent per local calendar day against a fixed
// daily budget. Entries are never edited or removed.
type QuotaLedger struct {
	store  QuotaStore
	limit  int
	logger zerolog.Logger
	now    func() time.Time
}

func NewQuotaLedger(store QuotaStore, dailyLimit int, logger zerolog.Logger) *QuotaLedger {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyQuota
	}
	return &QuotaLedger{
		store:  store,
		limit:  dailyLimit,
		logger: logger.With().Str("component", "quota").Logger(),
		now:    time.Now,
	}
}

func (l *QuotaLedger) DailyLimit() int {
	return l.limit
}

// today returns local midnight of the ledger clock's current day.
func (l *QuotaLedger) today() time.Time {
	t := l.now()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// UsageToday returns the units logged for the current day.
func (l *QuotaLedger) UsageToday(ctx context.Context) (int, error) {
	return l.store.SumUnits(ctx, l.today())
}

// CheckQuota reports whether required units still fit in today's budget.
// Exactly enough remaining passes.
func (l *QuotaLedger) CheckQuota(ctx context.Context, required int) (model.QuotaStatus, error) {
	used, err := l.UsageToday(ctx)
	if err != nil {
		return model.QuotaStatus{}, err
	}
	remaining := l.limit - used
	return model.QuotaStatus{
		HasQuota:  remaining >= required,
		Remaining: remaining,
		Used:      used,
	}, nil
}

// LogUsage appends one ledger entry dated today. A failed write is logged
// and counted but never returned: the provider has already billed the call.
func (l *QuotaLedger) LogUsage(ctx context.Context, operation string, units int, details any) {
	metrics.QuotaSpent(operation, units)

	entry := model.QuotaLogEntry{
		Date:      l.today(),
		UnitsUsed: units,
		Operation: operation,
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			l.logger.Warn().Err(err).Str("operation", operation).Msg("quota details not serializable")
		} else {
			entry.Details = b
		}
	}

	if err := l.store.Insert(ctx, entry); err != nil {
		metrics.QuotaLogFailed()
		l.logger.Error().Err(err).
			Str("operation", operation).
			Int("units", units).
			Msg("failed to log quota usage")
		return
	}

	l.logger.Debug().Str("operation", operation).Int("units", units).Msg("quota logged")
}

// Status returns today's totals and the most recent ledger entries.
func (l *QuotaLedger) Status(ctx context.Context) (*model.QuotaReport, error) {
	day := l.today()
	used, err := l.store.SumUnits(ctx, day)
	if err != nil {
		return nil, err
	}
	logs, err := l.store.RecentForDay(ctx, day, recentLogLimit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.QuotaLogEntry{}
	}

	remaining := l.limit - used
	return &model.QuotaReport{
		Used:      used,
		Remaining: remaining,
		Limit:     l.limit,
		HasQuota:  remaining > 0,
		Logs:      logs,
	}, nil
}
