package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
	"github.com/Hippensteel/youtube-tv-guide/internal/youtube"
)

// Ledger operation names.
const (
	OpSearchUpcoming = "search_upcoming"
	OpVideosList     = "videos_list"
	OpSearchChannels = "search_channels"
	OpChannelsList   = "channels_list"
)

type cycleIDKey struct{}

// WithCycleID tags ctx so ledger entries written during a refresh cycle
// can be traced back to it.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey{}, id)
}

func cycleIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(cycleIDKey{}).(string)
	return id
}

// MeteredService fronts the Data API with quota accounting: budget is
// checked before every call and the cost is logged after every
// successful one. Calls are made one at a time.
type MeteredService struct {
	api    MeteredAPI
	ledger *QuotaLedger
	logger zerolog.Logger
}

func NewMeteredService(api MeteredAPI, ledger *QuotaLedger, logger zerolog.Logger) *MeteredService {
	return &MeteredService{
		api:    api,
		ledger: ledger,
		logger: logger.With().Str("component", "metered").Logger(),
	}
}

// reserve fails with errs.ErrQuotaExhausted if cost no longer fits today.
func (m *MeteredService) reserve(ctx context.Context, operation string, cost int) error {
	st, err := m.ledger.CheckQuota(ctx, cost)
	if err != nil {
		return fmt.Errorf("check quota: %w", err)
	}
	if !st.HasQuota {
		return fmt.Errorf("%s needs %d units, %d remaining: %w", operation, cost, st.Remaining, errs.ErrQuotaExhausted)
	}
	return nil
}

func (m *MeteredService) charge(ctx context.Context, operation string, units int, details map[string]any) {
	if id := cycleIDFrom(ctx); id != "" {
		details["cycleId"] = id
	}
	m.ledger.LogUsage(ctx, operation, units, details)
}

// SearchUpcoming lists a channel's upcoming broadcast ids. Costs one search.
func (m *MeteredService) SearchUpcoming(ctx context.Context, channelID string) ([]string, error) {
	if err := m.reserve(ctx, OpSearchUpcoming, CostSearch); err != nil {
		return nil, err
	}
	ids, err := m.api.SearchUpcomingVideoIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}
	m.charge(ctx, OpSearchUpcoming, CostSearch, map[string]any{"channelId": channelID})
	return ids, nil
}

// VideoDetails fetches detail records in batches of 50, one videos.list
// unit per batch. It returns whatever the completed batches yielded and
// the units spent, together with the error that stopped it, if any.
func (m *MeteredService) VideoDetails(ctx context.Context, videoIDs []string) ([]model.RawEvent, int, error) {
	var (
		out   []model.RawEvent
		spent int
	)
	for start := 0; start < len(videoIDs); start += youtube.MaxDetailBatch {
		end := min(start+youtube.MaxDetailBatch, len(videoIDs))
		batch := videoIDs[start:end]

		if err := m.reserve(ctx, OpVideosList, CostVideosList); err != nil {
			return out, spent, err
		}
		raws, err := m.api.ListVideos(ctx, batch)
		if err != nil {
			return out, spent, err
		}
		m.charge(ctx, OpVideosList, CostVideosList, map[string]any{"count": len(batch)})
		spent += CostVideosList
		out = append(out, raws...)
	}
	return out, spent, nil
}

// DetailCost is the number of videos.list units needed for n ids.
func DetailCost(n int) int {
	return (n + youtube.MaxDetailBatch - 1) / youtube.MaxDetailBatch * CostVideosList
}

// SearchChannels runs a free-text channel search. Costs one search.
func (m *MeteredService) SearchChannels(ctx context.Context, query string) ([]model.ChannelSummary, error) {
	if err := m.reserve(ctx, OpSearchChannels, CostSearch); err != nil {
		return nil, err
	}
	channels, err := m.api.SearchChannels(ctx, query)
	if err != nil {
		return nil, err
	}
	m.charge(ctx, OpSearchChannels, CostSearch, map[string]any{"query": query})
	return channels, nil
}

// GetChannel looks up one channel by id; nil if YouTube does not know it.
func (m *MeteredService) GetChannel(ctx context.Context, channelID string) (*model.ChannelSummary, error) {
	if err := m.reserve(ctx, OpChannelsList, CostChannelsList); err != nil {
		return nil, err
	}
	ch, err := m.api.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	m.charge(ctx, OpChannelsList, CostChannelsList, map[string]any{"channelId": channelID})
	return ch, nil
}
