package service

import (
	"time"

	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

// premiereMaxDuration is the exclusive upper bound of a scheduled slot that
// is treated as a premiere. YouTube does not flag premieres explicitly.
const premiereMaxDuration = 4 * time.Hour

// ClassifyStatus derives the lifecycle status from the broadcast timestamps.
func ClassifyStatus(raw model.RawEvent) model.EventStatus {
	switch {
	case raw.Cancelled:
		return model.StatusCancelled
	case raw.ActualEndTime != nil:
		return model.StatusCompleted
	case raw.ActualStartTime != nil:
		return model.StatusLive
	default:
		return model.StatusUpcoming
	}
}

// ClassifyEventType guesses premiere vs live stream from the scheduled slot.
func ClassifyEventType(raw model.RawEvent) model.EventType {
	if raw.ScheduledStartTime != nil && raw.ScheduledEndTime != nil {
		if raw.ScheduledEndTime.Sub(*raw.ScheduledStartTime) < premiereMaxDuration {
			return model.EventTypePremiere
		}
	}
	return model.EventTypeLiveStream
}

// Classify turns a raw API record into a storable event. Records without a
// scheduled start are ordinary uploads and are rejected.
func Classify(raw model.RawEvent) (model.ScheduledEvent, bool) {
	if raw.ScheduledStartTime == nil || raw.VideoID == "" {
		return model.ScheduledEvent{}, false
	}

	ev := model.ScheduledEvent{
		ID:                 raw.VideoID,
		ChannelID:          raw.ChannelID,
		Title:              raw.Title,
		ScheduledStartTime: *raw.ScheduledStartTime,
		ScheduledEndTime:   raw.ScheduledEndTime,
		ActualStartTime:    raw.ActualStartTime,
		EventType:          ClassifyEventType(raw),
		Status:             ClassifyStatus(raw),
	}
	if raw.Description != "" {
		d := raw.Description
		ev.Description = &d
	}
	if raw.ThumbnailURL != "" {
		u := raw.ThumbnailURL
		ev.ThumbnailURL = &u
	}
	return ev, true
}

// ClassifyAll classifies a batch, dropping records that are not events.
func ClassifyAll(raws []model.RawEvent) []model.ScheduledEvent {
	events := make([]model.ScheduledEvent, 0, len(raws))
	for _, raw := range raws {
		if ev, ok := Classify(raw); ok {
			events = append(events, ev)
		}
	}
	return events
}
