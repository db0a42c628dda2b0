package model

import "time"

// Channel is a tracked YouTube channel. Channels are never hard-deleted;
// removing one only clears IsActive.
type Channel struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Handle          *string    `json:"handle"`
	ThumbnailURL    *string    `json:"thumbnailUrl"`
	SubscriberCount *int64     `json:"subscriberCount"`
	LastFetchedAt   *time.Time `json:"lastFetchedAt"`
	FetchPriority   int        `json:"fetchPriority"`
	IsActive        bool       `json:"isActive"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ChannelSummary is the channel shape returned by YouTube lookups and by
// the channel search endpoint.
type ChannelSummary struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Handle          *string `json:"handle"`
	ThumbnailURL    *string `json:"thumbnailUrl"`
	SubscriberCount *int64  `json:"subscriberCount"`
}

// ChannelSearchResponse is the API response for GET /api/channels/search.
type ChannelSearchResponse struct {
	Channels     []ChannelSummary `json:"channels"`
	Source       string           `json:"source"` // "youtube" or "cache"
	QuotaWarning bool             `json:"quotaWarning,omitempty"`
}

// AddChannelRequest is the body of POST /api/channels.
type AddChannelRequest struct {
	ChannelID  string `json:"channelId"`
	ChannelURL string `json:"channelUrl"`
}

// AddChannelResponse is returned after adding (or re-adding) a channel.
type AddChannelResponse struct {
	Channel *Channel `json:"channel"`
	Message string   `json:"message,omitempty"`
	Created bool     `json:"-"`
}
