package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
	"github.com/Hippensteel/youtube-tv-guide/internal/youtube"
)

const (
	MinSearchQueryLen  = 2
	cachedSearchLimit  = 10
	SearchSourceAPI    = "youtube"
	SearchSourceCached = "cache"
)

type ChannelService struct {
	repo    ChannelStore
	metered *MeteredService
	ledger  *QuotaLedger
	cache   *CacheService
	logger  zerolog.Logger
}

func NewChannelService(repo ChannelStore, metered *MeteredService, ledger *QuotaLedger, cache *CacheService, logger zerolog.Logger) *ChannelService {
	return &ChannelService{
		repo:    repo,
		metered: metered,
		ledger:  ledger,
		cache:   cache,
		logger:  logger.With().Str("component", "channels").Logger(),
	}
}

// List returns the given channels, or every active channel by priority
// when ids is empty.
func (s *ChannelService) List(ctx context.Context, ids []string) ([]model.Channel, error) {
	var (
		channels []model.Channel
		err      error
	)
	if len(ids) > 0 {
		channels, err = s.repo.FindByIDs(ctx, ids)
	} else {
		channels, err = s.repo.FindActive(ctx)
	}
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []model.Channel{}
	}
	return channels, nil
}

// Add starts tracking a channel given its id or a channel URL. Adding a
// known channel re-activates it and raises its fetch priority by one.
func (s *ChannelService) Add(ctx context.Context, req model.AddChannelRequest) (*model.AddChannelResponse, error) {
	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" && strings.TrimSpace(req.ChannelURL) != "" {
		resolved, err := s.resolveURL(ctx, req.ChannelURL)
		if err != nil {
			return nil, err
		}
		channelID = resolved
	}
	if channelID == "" {
		return nil, fmt.Errorf("channelId or channelUrl required: %w", errs.ErrInvalidQuery)
	}

	if _, err := s.repo.FindByID(ctx, channelID); err == nil {
		ch, err := s.repo.Reactivate(ctx, channelID)
		if err != nil {
			return nil, err
		}
		return &model.AddChannelResponse{Channel: ch, Message: "Channel already tracked"}, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	summary, err := s.metered.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, errs.ErrChannelNotFound
	}

	ch, err := s.repo.Create(ctx, *summary)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("channel_id", ch.ID).Str("title", ch.Title).Msg("channel added")
	return &model.AddChannelResponse{Channel: ch, Created: true}, nil
}

// resolveURL extracts a channel id from a URL. Handle, custom and user
// URLs cost one search to resolve.
func (s *ChannelService) resolveURL(ctx context.Context, raw string) (string, error) {
	identifier, ok := youtube.ParseChannelURL(raw)
	if !ok {
		return "", errs.ErrChannelUnresolvable
	}
	if youtube.IsChannelID(identifier) {
		return identifier, nil
	}

	found, err := s.metered.SearchChannels(ctx, identifier)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", errs.ErrChannelUnresolvable
	}
	return found[0].ID, nil
}

// Deactivate stops refreshing a channel. Its events stay in the guide.
func (s *ChannelService) Deactivate(ctx context.Context, channelID string) error {
	if err := s.repo.Deactivate(ctx, channelID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrChannelNotFound
		}
		return err
	}
	return nil
}

// Search looks channels up on YouTube. Without quota, or if the API call
// fails, it falls back to tracked channels and flags the response.
func (s *ChannelService) Search(ctx context.Context, query string) (*model.ChannelSearchResponse, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinSearchQueryLen {
		return nil, fmt.Errorf("query must be at least %d characters: %w", MinSearchQueryLen, errs.ErrInvalidQuery)
	}

	if s.cache != nil {
		if channels, ok := s.cache.GetSearch(ctx, query); ok {
			return &model.ChannelSearchResponse{Channels: channels, Source: SearchSourceAPI}, nil
		}
	}

	st, err := s.ledger.CheckQuota(ctx, CostSearch)
	if err != nil {
		return nil, err
	}
	if !st.HasQuota {
		return s.searchCached(ctx, query)
	}

	channels, err := s.metered.SearchChannels(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("youtube search failed, using cached channels")
		return s.searchCached(ctx, query)
	}
	if channels == nil {
		channels = []model.ChannelSummary{}
	}
	if s.cache != nil {
		s.cache.SetSearch(ctx, query, channels)
	}
	return &model.ChannelSearchResponse{Channels: channels, Source: SearchSourceAPI}, nil
}

func (s *ChannelService) searchCached(ctx context.Context, query string) (*model.ChannelSearchResponse, error) {
	channels, err := s.repo.SearchCached(ctx, query, cachedSearchLimit)
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []model.ChannelSummary{}
	}
	return &model.ChannelSearchResponse{
		Channels:     channels,
		Source:       SearchSourceCached,
		QuotaWarning: true,
	}, nil
}
