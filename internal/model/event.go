package model

import "time"

// EventType distinguishes live streams from premieres.
type EventType string

const (
	EventTypeLiveStream EventType = "LIVE_STREAM"
	EventTypePremiere   EventType = "PREMIERE"
)

// EventStatus is the lifecycle state of a scheduled event.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "UPCOMING"
	StatusLive      EventStatus = "LIVE"
	StatusCompleted EventStatus = "COMPLETED"
	StatusCancelled EventStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s EventStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s EventStatus) rank() int {
	switch s {
	case StatusUpcoming:
		return 0
	case StatusLive:
		return 1
	default:
		return 2
	}
}

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// NextStatus returns the status to store when observed is seen for an
// event currently in current. The lattice UPCOMING -> LIVE -> COMPLETED
// only moves forward; CANCELLED is reachable from UPCOMING and LIVE; a
// terminal status is kept as is.
func NextStatus(current, observed EventStatus) EventStatus {
	if current.Terminal() {
		return current
	}
	if observed.rank() < current.rank() {
		return current
	}
	return observed
}

// ScheduledEvent is one live stream or premiere of a tracked channel.
type ScheduledEvent struct {
	ID                 string      `json:"id"`
	ChannelID          string      `json:"channelId"`
	Title              string      `json:"title"`
	Description        *string     `json:"description"`
	ThumbnailURL       *string     `json:"thumbnailUrl"`
	ScheduledStartTime time.Time   `json:"scheduledStartTime"`
	ScheduledEndTime   *time.Time  `json:"scheduledEndTime"`
	ActualStartTime    *time.Time  `json:"actualStartTime"`
	EventType          EventType   `json:"eventType"`
	Status             EventStatus `json:"status"`
}

// RawEvent is a video as reported by the metered API, before classification.
type RawEvent struct {
	VideoID            string
	ChannelID          string
	Title              string
	Description        string
	ThumbnailURL       string
	ScheduledStartTime *time.Time
	ScheduledEndTime   *time.Time
	ActualStartTime    *time.Time
	ActualEndTime      *time.Time
	// Cancelled is set only when the provider explicitly reports the
	// broadcast as cancelled. No current source sets it.
	Cancelled bool
}

// FeedVideo is one entry of a channel's public video feed.
type FeedVideo struct {
	VideoID      string    `json:"videoId"`
	ChannelID    string    `json:"channelId"`
	Title        string    `json:"title"`
	Published    time.Time `json:"published"`
	ThumbnailURL string    `json:"thumbnailUrl"`
}

// EventChannel is the channel summary embedded in grid responses.
type EventChannel struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Handle       *string `json:"handle"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// EventWithChannel is a grid row.
type EventWithChannel struct {
	ScheduledEvent
	Channel EventChannel `json:"channel"`
}

// EventQuery filters the grid query.
type EventQuery struct {
	ChannelIDs []string
	Start      time.Time
	End        time.Time
	Statuses   []EventStatus
}

// EventsResponse is the API response for GET /api/events.
type EventsResponse struct {
	Events []EventWithChannel `json:"events"`
}
