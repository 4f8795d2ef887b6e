// Package core holds the ports of the planning client and the small services built directly on them.
package core

import (
	"context"
	"strconv"
	"time"

	"github.com/campus-tools/adeplanning/internal/domain/model"
)

// FeedCacheService caches raw calendar feed bodies per resource and date range.
// Normalization still runs on every read; only the remote fetch is skipped.
type FeedCacheService struct {
	cache CacheRepository
	ttl   time.Duration
}

// FeedCacheConfig holds configuration for feed caching.
type FeedCacheConfig struct {
	TTL time.Duration `json:"ttl"`
}

// FeedCacheServiceOptions bundles dependencies for NewFeedCacheService.
type FeedCacheServiceOptions struct {
	Cache  CacheRepository
	Config FeedCacheConfig
}

// DefaultFeedCacheConfig returns a FeedCacheConfig with sensible defaults.
func DefaultFeedCacheConfig() FeedCacheConfig {
	return FeedCacheConfig{
		TTL: 15 * time.Minute,
	}
}

// NewFeedCacheService creates a new FeedCacheService.
func NewFeedCacheService(opts FeedCacheServiceOptions) *FeedCacheService {
	ttl := opts.Config.TTL
	if ttl <= 0 {
		ttl = DefaultFeedCacheConfig().TTL
	}
	return &FeedCacheService{cache: opts.Cache, ttl: ttl}
}

// Get returns the cached feed body, or nil when not cached.
func (s *FeedCacheService) Get(ctx context.Context, resourceID int, dates model.DateRange) ([]byte, error) {
	return s.cache.Get(ctx, feedKey(resourceID, dates))
}

// Put stores a feed body. Empty bodies are not cached.
func (s *FeedCacheService) Put(ctx context.Context, resourceID int, dates model.DateRange, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	return s.cache.Set(ctx, feedKey(resourceID, dates), body, s.ttl)
}

// Invalidate removes a cached feed body.
func (s *FeedCacheService) Invalidate(ctx context.Context, resourceID int, dates model.DateRange) error {
	_, err := s.cache.Delete(ctx, feedKey(resourceID, dates))
	return err
}

// feedKey generates a cache key for a feed body.
func feedKey(resourceID int, dates model.DateRange) string {
	return "feed:" + strconv.Itoa(resourceID) + ":" + dates.FirstDate() + ":" + dates.LastDate()
}
