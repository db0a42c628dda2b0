package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/metrics"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
	"github.com/Hippensteel/youtube-tv-guide/pkg/hash"
)

const (
	DefaultFeedCacheTTL = 5 * time.Minute
	SearchCacheTTL      = 10 * time.Minute
	RefreshLockTTL      = 10 * time.Minute

	refreshLockKey     = "refresh:lock"
	searchKeyDigestLen = 16
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// CacheService provides a Redis cache-aside layer for feed pulls and
// channel searches, plus the refresh cycle lock. With no Redis the caches
// are no-ops and the lock is held in process.
type CacheService struct {
	rdb       *redis.Client
	logger    zerolog.Logger
	localLock sync.Mutex
}

// NewCacheService connects to Redis. If redisURL is empty or the
// connection fails, it returns a CacheService with a nil client.
func NewCacheService(redisURL string, logger zerolog.Logger) *CacheService {
	logger = logger.With().Str("component", "redis").Logger()
	if redisURL == "" {
		logger.Info().Msg("no URL configured, caching disabled")
		return &CacheService{logger: logger}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid URL, caching disabled")
		return &CacheService{logger: logger}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{logger: logger}
	}

	logger.Info().Msg("connected, caching enabled")
	return &CacheService{rdb: rdb, logger: logger}
}

// NewCacheServiceWithClient wraps an existing client; rdb may be nil.
func NewCacheServiceWithClient(rdb *redis.Client, logger zerolog.Logger) *CacheService {
	return &CacheService{rdb: rdb, logger: logger}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

func (c *CacheService) getJSON(ctx context.Context, cache, key string, dst any) bool {
	if c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		metrics.CacheMiss(cache)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheMiss(cache)
		return false
	}
	metrics.CacheHit(cache)
	return true
}

func (c *CacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// GetFeed returns a cached feed pull for a channel.
func (c *CacheService) GetFeed(ctx context.Context, channelID string) ([]model.FeedVideo, bool) {
	var videos []model.FeedVideo
	ok := c.getJSON(ctx, "feed", feedKey(channelID), &videos)
	return videos, ok
}

func (c *CacheService) SetFeed(ctx context.Context, channelID string, videos []model.FeedVideo, ttl time.Duration) {
	c.setJSON(ctx, feedKey(channelID), videos, ttl)
}

// GetSearch returns cached channel search results for a query.
func (c *CacheService) GetSearch(ctx context.Context, query string) ([]model.ChannelSummary, bool) {
	var channels []model.ChannelSummary
	ok := c.getJSON(ctx, "search", searchKey(query), &channels)
	return channels, ok
}

func (c *CacheService) SetSearch(ctx context.Context, query string, channels []model.ChannelSummary) {
	c.setJSON(ctx, searchKey(query), channels, SearchCacheTTL)
}

// AcquireRefreshLock takes the deployment-wide refresh cycle lock. It
// returns errs.ErrRefreshInProgress if another cycle holds it. The
// returned func releases the lock.
func (c *CacheService) AcquireRefreshLock(ctx context.Context, ttl time.Duration) (func(), error) {
	if c.rdb != nil {
		token := uuid.NewString()
		ok, err := c.rdb.SetNX(ctx, refreshLockKey, token, ttl).Result()
		if err == nil {
			if !ok {
				return nil, errs.ErrRefreshInProgress
			}
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := releaseScript.Run(ctx, c.rdb, []string{refreshLockKey}, token).Err(); err != nil {
					c.logger.Warn().Err(err).Msg("refresh lock release failed")
				}
			}, nil
		}
		c.logger.Warn().Err(err).Msg("refresh lock unavailable in redis, using local lock")
	}

	if !c.localLock.TryLock() {
		return nil, errs.ErrRefreshInProgress
	}
	return c.localLock.Unlock, nil
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func feedKey(channelID string) string {
	return fmt.Sprintf("feed:%s", channelID)
}

func searchKey(query string) string {
	return hash.NormalizedKey("search", query, searchKeyDigestLen)
}

// CachedFeed serves feed pulls from Redis when fresh and falls through to
// the live feed otherwise. Only successful pulls are cached.
type CachedFeed struct {
	src   FeedSource
	cache *CacheService
	ttl   time.Duration
}

func NewCachedFeed(src FeedSource, cache *CacheService, ttl time.Duration) *CachedFeed {
	if ttl <= 0 {
		ttl = DefaultFeedCacheTTL
	}
	return &CachedFeed{src: src, cache: cache, ttl: ttl}
}

func (f *CachedFeed) FetchRecent(ctx context.Context, channelID string) ([]model.FeedVideo, error) {
	if videos, ok := f.cache.GetFeed(ctx, channelID); ok {
		return videos, nil
	}
	videos, err := f.src.FetchRecent(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if len(videos) > 0 {
		f.cache.SetFeed(ctx, channelID, videos, f.ttl)
	}
	return videos, nil
}
