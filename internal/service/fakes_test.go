package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func ptrTime(t time.Time) *time.Time { return &t }

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// --- quota store ---

type fakeQuotaStore struct {
	mu        sync.Mutex
	entries   []model.QuotaLogEntry
	insertErr error
	sumErr    error
}

func (f *fakeQuotaStore) SumUnits(_ context.Context, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sumErr != nil {
		return 0, f.sumErr
	}
	total := 0
	for _, e := range f.entries {
		if sameDay(e.Date, day) {
			total += e.UnitsUsed
		}
	}
	return total, nil
}

func (f *fakeQuotaStore) Insert(_ context.Context, e model.QuotaLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	e.ID = int64(len(f.entries) + 1)
	e.CreatedAt = testNow
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeQuotaStore) RecentForDay(_ context.Context, day time.Time, limit int) ([]model.QuotaLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.QuotaLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if sameDay(f.entries[i].Date, day) {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeQuotaStore) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Operation
	}
	return out
}

// seed logs units on testNow's day.
func (f *fakeQuotaStore) seed(units int) {
	f.entries = append(f.entries, model.QuotaLogEntry{Date: testNow, UnitsUsed: units, Operation: "seed"})
}

// --- channel store ---

type fakeChannelStore struct {
	channels map[string]*model.Channel
	markErr  error
	fetched  []string
}

func newFakeChannelStore(chs ...model.Channel) *fakeChannelStore {
	f := &fakeChannelStore{channels: make(map[string]*model.Channel)}
	for i := range chs {
		ch := chs[i]
		f.channels[ch.ID] = &ch
	}
	return f
}

// sorted orders by priority desc, never-fetched first, then oldest fetch.
func (f *fakeChannelStore) sorted(keep func(*model.Channel) bool) []model.Channel {
	var out []model.Channel
	for _, ch := range f.channels {
		if keep(ch) {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FetchPriority != b.FetchPriority {
			return a.FetchPriority > b.FetchPriority
		}
		if (a.LastFetchedAt == nil) != (b.LastFetchedAt == nil) {
			return a.LastFetchedAt == nil
		}
		if a.LastFetchedAt != nil && !a.LastFetchedAt.Equal(*b.LastFetchedAt) {
			return a.LastFetchedAt.Before(*b.LastFetchedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func (f *fakeChannelStore) FindActive(_ context.Context) ([]model.Channel, error) {
	return f.sorted(func(c *model.Channel) bool { return c.IsActive }), nil
}

func (f *fakeChannelStore) FindByIDs(_ context.Context, ids []string) ([]model.Channel, error) {
	want := make(map[string]bool)
	for _, id := range ids {
		want[id] = true
	}
	return f.sorted(func(c *model.Channel) bool { return want[c.ID] }), nil
}

func (f *fakeChannelStore) FindStale(_ context.Context, threshold time.Time, limit int) ([]model.Channel, error) {
	out := f.sorted(func(c *model.Channel) bool {
		return c.IsActive && (c.LastFetchedAt == nil || c.LastFetchedAt.Before(threshold))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeChannelStore) FindByID(_ context.Context, id string) (*model.Channel, error) {
	ch, ok := f.channels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *ch
	return &c, nil
}

func (f *fakeChannelStore) Create(_ context.Context, s model.ChannelSummary) (*model.Channel, error) {
	ch := &model.Channel{
		ID: s.ID, Title: s.Title, Handle: s.Handle, ThumbnailURL: s.ThumbnailURL,
		SubscriberCount: s.SubscriberCount, FetchPriority: 1, IsActive: true, CreatedAt: testNow,
	}
	f.channels[ch.ID] = ch
	c := *ch
	return &c, nil
}

func (f *fakeChannelStore) Reactivate(_ context.Context, id string) (*model.Channel, error) {
	ch, ok := f.channels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ch.FetchPriority++
	ch.IsActive = true
	c := *ch
	return &c, nil
}

func (f *fakeChannelStore) Deactivate(_ context.Context, id string) error {
	ch, ok := f.channels[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ch.IsActive = false
	return nil
}

func (f *fakeChannelStore) MarkFetched(_ context.Context, id string, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	if ch, ok := f.channels[id]; ok {
		ch.LastFetchedAt = &at
	}
	f.fetched = append(f.fetched, id)
	return nil
}

func (f *fakeChannelStore) SearchCached(_ context.Context, query string, limit int) ([]model.ChannelSummary, error) {
	q := strings.ToLower(query)
	var out []model.ChannelSummary
	for _, ch := range f.sorted(func(*model.Channel) bool { return true }) {
		handle := ""
		if ch.Handle != nil {
			handle = *ch.Handle
		}
		if strings.Contains(strings.ToLower(ch.Title), q) || strings.Contains(strings.ToLower(handle), q) {
			out = append(out, model.ChannelSummary{ID: ch.ID, Title: ch.Title, Handle: ch.Handle})
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- event store ---

// fakeEventStore applies the same update rules as the SQL upsert.
type fakeEventStore struct {
	events    map[string]model.ScheduledEvent
	upsertErr error
}

func newFakeEventStore(evs ...model.ScheduledEvent) *fakeEventStore {
	f := &fakeEventStore{events: make(map[string]model.ScheduledEvent)}
	for _, ev := range evs {
		f.events[ev.ID] = ev
	}
	return f
}

func (f *fakeEventStore) UpsertEvent(_ context.Context, ev model.ScheduledEvent) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cur, ok := f.events[ev.ID]
	if !ok {
		f.events[ev.ID] = ev
		return nil
	}
	actual := ev.ActualStartTime
	if actual == nil {
		actual = cur.ActualStartTime
	}
	ev.EventType = cur.EventType
	ev.Status = model.NextStatus(cur.Status, ev.Status)
	ev.ActualStartTime = actual
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeEventStore) UpdateStatusOnly(_ context.Context, id string, status model.EventStatus, actualStart *time.Time) (bool, error) {
	cur, ok := f.events[id]
	if !ok {
		return false, nil
	}
	cur.Status = model.NextStatus(cur.Status, status)
	if actualStart != nil {
		cur.ActualStartTime = actualStart
	}
	f.events[id] = cur
	return true, nil
}

func hasStatus(statuses []model.EventStatus, s model.EventStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (f *fakeEventStore) FindIDsByStatusSince(_ context.Context, statuses []model.EventStatus, minStart time.Time) ([]string, error) {
	var ids []string
	for id, ev := range f.events {
		if hasStatus(statuses, ev.Status) && !ev.ScheduledStartTime.Before(minStart) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeEventStore) DeleteWhere(_ context.Context, statuses []model.EventStatus, before time.Time) (int64, error) {
	var n int64
	for id, ev := range f.events {
		if hasStatus(statuses, ev.Status) && ev.ScheduledStartTime.Before(before) {
			delete(f.events, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeEventStore) UpdateStatusWhere(_ context.Context, status model.EventStatus, before time.Time, newStatus model.EventStatus) (int64, error) {
	var n int64
	for id, ev := range f.events {
		if ev.Status == status && ev.ScheduledStartTime.Before(before) {
			ev.Status = newStatus
			f.events[id] = ev
			n++
		}
	}
	return n, nil
}

func (f *fakeEventStore) FindInWindow(_ context.Context, q model.EventQuery) ([]model.EventWithChannel, error) {
	var out []model.EventWithChannel
	for _, ev := range f.events {
		if ev.ScheduledStartTime.Before(q.Start) || ev.ScheduledStartTime.After(q.End) {
			continue
		}
		if !hasStatus(q.Statuses, ev.Status) {
			continue
		}
		out = append(out, model.EventWithChannel{ScheduledEvent: ev, Channel: model.EventChannel{ID: ev.ChannelID}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStartTime.Before(out[j].ScheduledStartTime) })
	return out, nil
}

// --- feed ---

type fakeFeed struct {
	videos map[string][]model.FeedVideo
	errs   map[string]error
	calls  int
}

func (f *fakeFeed) FetchRecent(_ context.Context, channelID string) ([]model.FeedVideo, error) {
	f.calls++
	if err := f.errs[channelID]; err != nil {
		return nil, err
	}
	return f.videos[channelID], nil
}

func feedVideos(channelID string, ids ...string) []model.FeedVideo {
	out := make([]model.FeedVideo, len(ids))
	for i, id := range ids {
		out[i] = model.FeedVideo{VideoID: id, ChannelID: channelID}
	}
	return out
}

// --- metered api ---

type fakeAPI struct {
	upcoming     map[string][]string
	searchErrs   map[string]error
	videos       map[string]model.RawEvent
	listErr      error
	listFailFrom int // 1-based call number from which ListVideos fails; 0 = never
	channels     map[string]model.ChannelSummary
	searchResult []model.ChannelSummary
	searchErr    error

	searchCalls  []string
	listCalls    [][]string
	getCalls     int
	channelQuery []string
}

func (f *fakeAPI) SearchUpcomingVideoIDs(_ context.Context, channelID string) ([]string, error) {
	f.searchCalls = append(f.searchCalls, channelID)
	if err := f.searchErrs[channelID]; err != nil {
		return nil, err
	}
	return f.upcoming[channelID], nil
}

func (f *fakeAPI) ListVideos(_ context.Context, ids []string) ([]model.RawEvent, error) {
	f.listCalls = append(f.listCalls, ids)
	if f.listErr != nil && (f.listFailFrom == 0 || len(f.listCalls) >= f.listFailFrom) {
		return nil, f.listErr
	}
	var out []model.RawEvent
	for _, id := range ids {
		if raw, ok := f.videos[id]; ok {
			out = append(out, raw)
		}
	}
	return out, nil
}

func (f *fakeAPI) SearchChannels(_ context.Context, query string) ([]model.ChannelSummary, error) {
	f.channelQuery = append(f.channelQuery, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

func (f *fakeAPI) GetChannel(_ context.Context, channelID string) (*model.ChannelSummary, error) {
	f.getCalls++
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func scheduledRaw(id, channelID string, start time.Time, dur time.Duration) model.RawEvent {
	raw := model.RawEvent{VideoID: id, ChannelID: channelID, Title: "Event " + id, ScheduledStartTime: ptrTime(start)}
	if dur > 0 {
		raw.ScheduledEndTime = ptrTime(start.Add(dur))
	}
	return raw
}

// --- wiring ---

type testEnv struct {
	quota    *fakeQuotaStore
	channels *fakeChannelStore
	events   *fakeEventStore
	feed     *fakeFeed
	api      *fakeAPI

	ledger    *QuotaLedger
	metered   *MeteredService
	reconcile *ReconcileService
}

func newTestEnv(chs ...model.Channel) *testEnv {
	env := &testEnv{
		quota:    &fakeQuotaStore{},
		channels: newFakeChannelStore(chs...),
		events:   newFakeEventStore(),
		feed:     &fakeFeed{videos: map[string][]model.FeedVideo{}, errs: map[string]error{}},
		api: &fakeAPI{
			upcoming:   map[string][]string{},
			searchErrs: map[string]error{},
			videos:     map[string]model.RawEvent{},
			channels:   map[string]model.ChannelSummary{},
		},
	}
	logger := zerolog.Nop()
	env.ledger = NewQuotaLedger(env.quota, DefaultDailyQuota, logger)
	env.ledger.now = fixedClock
	env.metered = NewMeteredService(env.api, env.ledger, logger)
	env.reconcile = NewReconcileService(env.events, logger)
	env.reconcile.now = fixedClock
	return env
}

func (env *testEnv) refreshService(strategy Strategy, locker CycleLocker) *RefreshService {
	svc := NewRefreshService(env.channels, env.feed, env.metered, env.ledger, env.reconcile, locker,
		RefreshConfig{Strategy: strategy}, zerolog.Nop())
	svc.now = fixedClock
	return svc
}

var errBoom = errors.New("boom")
