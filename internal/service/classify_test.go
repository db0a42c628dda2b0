package service

import (
	"testing"
	"time"

	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

func TestClassifyStatus(t *testing.T) {
	start := testNow.Add(time.Hour)
	tests := []struct {
		name string
		raw  model.RawEvent
		want model.EventStatus
	}{
		{"future, nothing observed", model.RawEvent{ScheduledStartTime: &start}, model.StatusUpcoming},
		{"started", model.RawEvent{ScheduledStartTime: &start, ActualStartTime: ptrTime(testNow)}, model.StatusLive},
		{"ended", model.RawEvent{ScheduledStartTime: &start, ActualStartTime: ptrTime(testNow), ActualEndTime: ptrTime(testNow)}, model.StatusCompleted},
		{"ended without start", model.RawEvent{ActualEndTime: ptrTime(testNow)}, model.StatusCompleted},
		{"explicit cancellation", model.RawEvent{ScheduledStartTime: &start, Cancelled: true}, model.StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStatus(tt.raw); got != tt.want {
				t.Errorf("ClassifyStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyEventType(t *testing.T) {
	tests := []struct {
		name string
		dur  time.Duration
		want model.EventType
	}{
		{"no scheduled end", 0, model.EventTypeLiveStream},
		{"two hours", 2 * time.Hour, model.EventTypePremiere},
		{"just under four hours", 4*time.Hour - time.Second, model.EventTypePremiere},
		{"exactly four hours", 4 * time.Hour, model.EventTypeLiveStream},
		{"five hours", 5 * time.Hour, model.EventTypeLiveStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := scheduledRaw("v1", "UC1", testNow, tt.dur)
			if got := ClassifyEventType(raw); got != tt.want {
				t.Errorf("ClassifyEventType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	raw := scheduledRaw("vid", "UCchan", testNow, time.Hour)
	raw.Description = "desc"
	raw.ThumbnailURL = "https://img/t.jpg"

	ev, ok := Classify(raw)
	if !ok {
		t.Fatal("Classify rejected a scheduled record")
	}
	if ev.ID != "vid" || ev.ChannelID != "UCchan" || !ev.ScheduledStartTime.Equal(testNow) {
		t.Errorf("event = %+v", ev)
	}
	if ev.Description == nil || *ev.Description != "desc" {
		t.Errorf("Description = %v", ev.Description)
	}
	if ev.ThumbnailURL == nil || *ev.ThumbnailURL != "https://img/t.jpg" {
		t.Errorf("ThumbnailURL = %v", ev.ThumbnailURL)
	}
	if ev.EventType != model.EventTypePremiere || ev.Status != model.StatusUpcoming {
		t.Errorf("type/status = %s/%s", ev.EventType, ev.Status)
	}
}

func TestClassify_DropsOrdinaryUploads(t *testing.T) {
	if _, ok := Classify(model.RawEvent{VideoID: "upload"}); ok {
		t.Error("record without scheduled start was accepted")
	}

	events := ClassifyAll([]model.RawEvent{
		{VideoID: "upload"},
		scheduledRaw("live", "UC1", testNow, 0),
	})
	if len(events) != 1 || events[0].ID != "live" {
		t.Errorf("ClassifyAll = %+v", events)
	}
}
