package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const channelFeedSample = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
  <id>yt:channel:UCuAXFkgsw1L7xaCfnd5JJOw</id>
  <title>Example Channel</title>
  <entry>
    <id>yt:video:vid00000001</id>
    <yt:videoId>vid00000001</yt:videoId>
    <yt:channelId>UCuAXFkgsw1L7xaCfnd5JJOw</yt:channelId>
    <title>Launch stream &amp; Q&amp;A</title>
    <published>2026-02-24T08:00:00+00:00</published>
    <media:group>
      <media:title>Launch stream &amp; Q&amp;A</media:title>
      <media:thumbnail url="https://i1.ytimg.com/vi/vid00000001/hqdefault.jpg" width="480" height="360"/>
    </media:group>
  </entry>
  <entry>
    <id>yt:video:vid00000002</id>
    <title>No videoId element</title>
    <published>2026-02-23T12:00:00+00:00</published>
  </entry>
  <entry>
    <id>urn:something-else</id>
    <title>Not a video</title>
  </entry>
</feed>`

func TestParseFeed(t *testing.T) {
	videos, err := ParseFeed([]byte(channelFeedSample), "UCuAXFkgsw1L7xaCfnd5JJOw")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("videos: got %d, want 2", len(videos))
	}

	v := videos[0]
	if v.VideoID != "vid00000001" {
		t.Errorf("video id: got %q", v.VideoID)
	}
	if v.Title != "Launch stream & Q&A" {
		t.Errorf("title entities not decoded: got %q", v.Title)
	}
	if v.ThumbnailURL != "https://i1.ytimg.com/vi/vid00000001/hqdefault.jpg" {
		t.Errorf("thumbnail: got %q", v.ThumbnailURL)
	}
	want := time.Date(2026, 2, 24, 8, 0, 0, 0, time.UTC)
	if !v.Published.Equal(want) {
		t.Errorf("published: got %s, want %s", v.Published, want)
	}

	// Falls back to the atom id and a derived thumbnail.
	v = videos[1]
	if v.VideoID != "vid00000002" {
		t.Errorf("fallback video id: got %q", v.VideoID)
	}
	if v.ThumbnailURL != "https://i.ytimg.com/vi/vid00000002/mqdefault.jpg" {
		t.Errorf("fallback thumbnail: got %q", v.ThumbnailURL)
	}
}

func TestParseFeed_Malformed(t *testing.T) {
	if _, err := ParseFeed([]byte("<feed><entry>"), "UC"); err == nil {
		t.Fatal("expected error for malformed xml")
	}
}

func TestFeedClient_FetchRecent(t *testing.T) {
	var gotChannel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotChannel = r.URL.Query().Get("channel_id")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(channelFeedSample))
	}))
	defer srv.Close()

	fc := NewFeedClient(srv.URL, srv.Client(), 0, zerolog.Nop())
	videos, err := fc.FetchRecent(context.Background(), "UCuAXFkgsw1L7xaCfnd5JJOw")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotChannel != "UCuAXFkgsw1L7xaCfnd5JJOw" {
		t.Errorf("channel_id query: got %q", gotChannel)
	}
	if len(videos) != 2 {
		t.Errorf("videos: got %d, want 2", len(videos))
	}
}

func TestFeedClient_NonOKIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fc := NewFeedClient(srv.URL, srv.Client(), 0, zerolog.Nop())
	videos, err := fc.FetchRecent(context.Background(), "UCgone")
	if err != nil {
		t.Fatalf("expected no error on 404, got %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("videos: got %d, want 0", len(videos))
	}
}
