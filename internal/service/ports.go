package service

import (
	"context"
	"time"

	"github.com/Hippensteel/youtube-tv-guide/internal/model"
	"github.com/Hippensteel/youtube-tv-guide/internal/repository"
	"github.com/Hippensteel/youtube-tv-guide/internal/youtube"
)

// ChannelStore persists tracked channels.
type ChannelStore interface {
	FindActive(ctx context.Context) ([]model.Channel, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Channel, error)
	FindStale(ctx context.Context, threshold time.Time, limit int) ([]model.Channel, error)
	FindByID(ctx context.Context, id string) (*model.Channel, error)
	Create(ctx context.Context, s model.ChannelSummary) (*model.Channel, error)
	Reactivate(ctx context.Context, id string) (*model.Channel, error)
	Deactivate(ctx context.Context, id string) error
	MarkFetched(ctx context.Context, id string, at time.Time) error
	SearchCached(ctx context.Context, query string, limit int) ([]model.ChannelSummary, error)
}

// EventStore persists scheduled events.
type EventStore interface {
	UpsertEvent(ctx context.Context, ev model.ScheduledEvent) error
	UpdateStatusOnly(ctx context.Context, id string, status model.EventStatus, actualStart *time.Time) (bool, error)
	FindIDsByStatusSince(ctx context.Context, statuses []model.EventStatus, minStart time.Time) ([]string, error)
	DeleteWhere(ctx context.Context, statuses []model.EventStatus, before time.Time) (int64, error)
	UpdateStatusWhere(ctx context.Context, status model.EventStatus, before time.Time, newStatus model.EventStatus) (int64, error)
	FindInWindow(ctx context.Context, q model.EventQuery) ([]model.EventWithChannel, error)
}

// QuotaStore is the append-only quota ledger.
type QuotaStore interface {
	SumUnits(ctx context.Context, day time.Time) (int, error)
	Insert(ctx context.Context, e model.QuotaLogEntry) error
	RecentForDay(ctx context.Context, day time.Time, limit int) ([]model.QuotaLogEntry, error)
}

// FeedSource returns a channel's recent uploads from the free feed.
type FeedSource interface {
	FetchRecent(ctx context.Context, channelID string) ([]model.FeedVideo, error)
}

// MeteredAPI is the raw YouTube Data API: one method call, one billed request.
type MeteredAPI interface {
	SearchUpcomingVideoIDs(ctx context.Context, channelID string) ([]string, error)
	ListVideos(ctx context.Context, videoIDs []string) ([]model.RawEvent, error)
	SearchChannels(ctx context.Context, query string) ([]model.ChannelSummary, error)
	GetChannel(ctx context.Context, channelID string) (*model.ChannelSummary, error)
}

var (
	_ ChannelStore = (*repository.ChannelRepo)(nil)
	_ EventStore   = (*repository.EventRepo)(nil)
	_ QuotaStore   = (*repository.QuotaRepo)(nil)
	_ FeedSource   = (*youtube.FeedClient)(nil)
	_ MeteredAPI   = (*youtube.Client)(nil)
)
