package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/Hippensteel/youtube-tv-guide/internal/handler"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
	"github.com/Hippensteel/youtube-tv-guide/internal/service"
)

type stubChannels struct{}

func (stubChannels) List(context.Context, []string) ([]model.Channel, error) {
	return []model.Channel{}, nil
}
func (stubChannels) Add(context.Context, model.AddChannelRequest) (*model.AddChannelResponse, error) {
	return &model.AddChannelResponse{}, nil
}
func (stubChannels) Deactivate(context.Context, string) error { return nil }
func (stubChannels) Search(context.Context, string) (*model.ChannelSearchResponse, error) {
	return &model.ChannelSearchResponse{}, nil
}

type stubEvents struct{}

func (stubEvents) List(context.Context, model.EventQuery) ([]model.EventWithChannel, error) {
	return []model.EventWithChannel{}, nil
}

type stubQuota struct{}

func (stubQuota) Status(context.Context) (*model.QuotaReport, error) {
	return &model.QuotaReport{Limit: 10000, Remaining: 10000, HasQuota: true}, nil
}

type stubRefresher struct{ calls int }

func (s *stubRefresher) RefreshAndCleanup(context.Context, service.RefreshOptions) (*model.RefreshResult, error) {
	s.calls++
	return &model.RefreshResult{Strategy: "rss", Errors: []string{}}, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestApp(opts Options) (*fiber.App, *stubRefresher) {
	refresher := &stubRefresher{}
	app := fiber.New()
	Setup(app, &Handlers{
		Channel: handler.NewChannelHandler(stubChannels{}),
		Event:   handler.NewEventHandler(stubEvents{}),
		Quota:   handler.NewQuotaHandler(stubQuota{}),
		Refresh: handler.NewRefreshHandler(refresher),
		Health:  handler.NewHealthHandler(okPinger{}, nil, "rss", "test"),
	}, opts)
	return app, refresher
}

func TestSetup_Routes(t *testing.T) {
	app, _ := newTestApp(Options{CORSOrigins: "*"})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/api/channels", http.StatusOK},
		{http.MethodGet, "/api/channels/search?q=lofi", http.StatusOK},
		{http.MethodGet, "/api/events", http.StatusOK},
		{http.MethodGet, "/api/quota", http.StatusOK},
		{http.MethodPost, "/api/sync", http.StatusOK},
		{http.MethodGet, "/api/cron/refresh", http.StatusOK},
		{http.MethodPost, "/api/cron/refresh", http.StatusOK},
		{http.MethodDelete, "/api/channels/UC1234567890abcdefghijkl", http.StatusOK},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestSetup_CronRequiresSecretWhenEnforced(t *testing.T) {
	app, refresher := newTestApp(Options{CORSOrigins: "*", CronSecret: "s3cret", EnforceCron: true})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/cron/refresh", nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}
	if refresher.calls != 0 {
		t.Errorf("refresh ran %d times without auth", refresher.calls)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/cron/refresh", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", resp.StatusCode)
	}
	if refresher.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", refresher.calls)
	}
}
