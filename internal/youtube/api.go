package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

// MaxDetailBatch is the most video ids videos.list accepts in one call.
const MaxDetailBatch = 50

var quotaReasons = map[string]bool{
	"quotaExceeded":      true,
	"dailyLimitExceeded": true,
	"rateLimitExceeded":  true,
}

// Client is a thin wrapper over the YouTube Data API v3. Each method is
// exactly one metered call; quota accounting is the caller's job.
type Client struct {
	svc *yt.Service
}

// NewClient builds a Data API client authenticated with an API key.
// endpoint overrides the Google base URL (used by tests); empty keeps the default.
func NewClient(ctx context.Context, apiKey, endpoint string) (*Client, error) {
	httpClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: &transport.APIKey{Key: apiKey, Transport: http.DefaultTransport},
	}
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube: new service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// SearchUpcomingVideoIDs runs search.list for a channel's upcoming broadcasts.
func (c *Client) SearchUpcomingVideoIDs(ctx context.Context, channelID string) ([]string, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		Type("video").
		EventType("upcoming").
		MaxResults(25).
		Order("date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("search upcoming", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	return ids, nil
}

// ListVideos runs one videos.list call for at most MaxDetailBatch ids.
func (c *Client) ListVideos(ctx context.Context, videoIDs []string) ([]model.RawEvent, error) {
	if len(videoIDs) > MaxDetailBatch {
		return nil, fmt.Errorf("youtube: videos list: %d ids exceeds batch limit %d", len(videoIDs), MaxDetailBatch)
	}
	resp, err := c.svc.Videos.List([]string{"snippet", "liveStreamingDetails"}).
		Id(videoIDs...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("videos list", err)
	}

	events := make([]model.RawEvent, 0, len(resp.Items))
	for _, v := range resp.Items {
		events = append(events, toRawEvent(v))
	}
	return events, nil
}

// SearchChannels runs search.list for channels matching a free-text query.
func (c *Client) SearchChannels(ctx context.Context, query string) ([]model.ChannelSummary, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(10).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("search channels", err)
	}

	channels := make([]model.ChannelSummary, 0, len(resp.Items))
	for _, item := range resp.Items {
		var id, title string
		var thumb *string
		if item.Snippet != nil {
			id = item.Snippet.ChannelId
			title = item.Snippet.Title
			if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
				thumb = strPtr(item.Snippet.Thumbnails.Default.Url)
			}
		}
		if id == "" && item.Id != nil {
			id = item.Id.ChannelId
		}
		channels = append(channels, model.ChannelSummary{
			ID:           id,
			Title:        title,
			ThumbnailURL: thumb,
		})
	}
	return channels, nil
}

// GetChannel runs channels.list for one id. A channel YouTube does not know
// yields (nil, nil).
func (c *Client) GetChannel(ctx context.Context, channelID string) (*model.ChannelSummary, error) {
	resp, err := c.svc.Channels.List([]string{"snippet", "statistics"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("channels list", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	ch := resp.Items[0]
	summary := &model.ChannelSummary{ID: ch.Id}
	if summary.ID == "" {
		summary.ID = channelID
	}
	if ch.Snippet != nil {
		summary.Title = ch.Snippet.Title
		summary.Handle = strPtr(ch.Snippet.CustomUrl)
		if ch.Snippet.Thumbnails != nil && ch.Snippet.Thumbnails.Default != nil {
			summary.ThumbnailURL = strPtr(ch.Snippet.Thumbnails.Default.Url)
		}
	}
	if ch.Statistics != nil && !ch.Statistics.HiddenSubscriberCount && ch.Statistics.SubscriberCount > 0 {
		n := int64(ch.Statistics.SubscriberCount)
		summary.SubscriberCount = &n
	}
	return summary, nil
}

func toRawEvent(v *yt.Video) model.RawEvent {
	ev := model.RawEvent{VideoID: v.Id}
	if s := v.Snippet; s != nil {
		ev.ChannelID = s.ChannelId
		ev.Title = s.Title
		ev.Description = s.Description
		if s.Thumbnails != nil {
			switch {
			case s.Thumbnails.Medium != nil:
				ev.ThumbnailURL = s.Thumbnails.Medium.Url
			case s.Thumbnails.Default != nil:
				ev.ThumbnailURL = s.Thumbnails.Default.Url
			}
		}
	}
	if d := v.LiveStreamingDetails; d != nil {
		ev.ScheduledStartTime = parseTime(d.ScheduledStartTime)
		ev.ScheduledEndTime = parseTime(d.ScheduledEndTime)
		ev.ActualStartTime = parseTime(d.ActualStartTime)
		ev.ActualEndTime = parseTime(d.ActualEndTime)
	}
	return ev
}

// IsQuotaError reports whether err is a quota exhaustion reported by the API.
func IsQuotaError(err error) bool {
	return errors.Is(err, errs.ErrQuotaExhausted)
}

func wrapErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		for _, item := range gerr.Errors {
			if quotaReasons[item.Reason] {
				return fmt.Errorf("youtube: %s: %w: %w", op, errs.ErrQuotaExhausted, err)
			}
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "quota") {
		return fmt.Errorf("youtube: %s: %w: %w", op, errs.ErrQuotaExhausted, err)
	}
	return fmt.Errorf("youtube: %s: %w", op, err)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
