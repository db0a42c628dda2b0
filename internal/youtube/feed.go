package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

const maxFeedBytes = 2 << 20

// FeedClient reads the public per-channel video feed. The feed costs no API
// quota but carries no live-streaming metadata.
type FeedClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewFeedClient creates a feed client. ratePerSecond bounds outgoing feed
// requests; zero or less disables pacing.
func NewFeedClient(baseURL string, httpClient *http.Client, ratePerSecond float64, logger zerolog.Logger) *FeedClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &FeedClient{
		baseURL: baseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// FetchRecent returns the channel's recent uploads, newest first as served
// by YouTube. A non-2xx response yields an empty list rather than an error.
func (f *FeedClient) FetchRecent(ctx context.Context, channelID string) ([]model.FeedVideo, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := f.baseURL + "?channel_id=" + url.QueryEscape(channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: new request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml, application/xml")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn().Str("channel_id", channelID).Int("status", resp.StatusCode).Msg("feed fetch failed")
		return []model.FeedVideo{}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("feed: read body: %w", err)
	}
	return ParseFeed(body, channelID)
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	VideoID   string     `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string     `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string     `xml:"title"`
	Published string     `xml:"published"`
	Group     mediaGroup `xml:"http://search.yahoo.com/mrss/ group"`
}

type mediaGroup struct {
	Title     string         `xml:"http://search.yahoo.com/mrss/ title"`
	Thumbnail mediaThumbnail `xml:"http://search.yahoo.com/mrss/ thumbnail"`
}

type mediaThumbnail struct {
	URL string `xml:"url,attr"`
}

// ParseFeed decodes a YouTube Atom video feed. Entries without a resolvable
// video id are skipped.
func ParseFeed(data []byte, channelID string) ([]model.FeedVideo, error) {
	var root atomFeed
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: parse atom: %w", err)
	}

	videos := make([]model.FeedVideo, 0, len(root.Entries))
	for _, e := range root.Entries {
		videoID := strings.TrimSpace(e.VideoID)
		if videoID == "" {
			videoID = strings.TrimPrefix(strings.TrimSpace(e.ID), "yt:video:")
			if videoID == strings.TrimSpace(e.ID) {
				videoID = ""
			}
		}
		if videoID == "" {
			continue
		}

		title := strings.TrimSpace(e.Title)
		if title == "" {
			title = strings.TrimSpace(e.Group.Title)
		}

		published, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published))
		if err != nil {
			published = time.Now()
		}

		thumb := strings.TrimSpace(e.Group.Thumbnail.URL)
		if thumb == "" {
			thumb = "https://i.ytimg.com/vi/" + videoID + "/mqdefault.jpg"
		}

		videos = append(videos, model.FeedVideo{
			VideoID:      videoID,
			ChannelID:    channelID,
			Title:        title,
			Published:    published,
			ThumbnailURL: thumb,
		})
	}
	return videos, nil
}
