package dataprocessing

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"labpulse/pkg/contracts/domain"
)

// View names a cached aggregation.
type View string

const (
	ViewProfileSummary View = "profile_summary"
	ViewLotSummary     View = "lot_summary"
	ViewTrend          View = "trend"
	ViewWeeklyByLab    View = "weekly_by_lab"
)

// CacheKey identifies one aggregation result.
type CacheKey struct {
	Version string
	View    View
	Profile string
	Lab     string
}

// NewCacheKey builds a key with a normalized filter so that "" and the
// sentinel values share an entry.
func NewCacheKey(version string, view View, f domain.Filter) CacheKey {
	f = f.Normalize()
	return CacheKey{Version: version, View: view, Profile: f.Profile, Lab: f.Lab}
}

// CacheEntry is a cached aggregation result.
type CacheEntry struct {
	Value     any
	CachedAt  time.Time
	ExpiresAt time.Time
	HitCount  int
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxSize    int     `json:"max_size"`
	HitCount   int64   `json:"hit_count"`
	MissCount  int64   `json:"miss_count"`
	HitRatio   float64 `json:"hit_ratio"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// ResultCache memoizes aggregation results per dataset version.
type ResultCache struct {
	entries   map[CacheKey]CacheEntry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once

	hits   metric.Int64Counter
	misses metric.Int64Counter
}

// CacheOption configures a ResultCache.
type CacheOption func(*ResultCache)

// WithCacheMeter records hits and misses as counters on meter.
func WithCacheMeter(meter metric.Meter) CacheOption {
	return func(c *ResultCache) {
		if meter == nil {
			return
		}
		c.hits, _ = meter.Int64Counter("labpulse_cache_hits_total",
			metric.WithDescription("Aggregation cache hits"))
		c.misses, _ = meter.Int64Counter("labpulse_cache_misses_total",
			metric.WithDescription("Aggregation cache misses"))
	}
}

const defaultCleanupInterval = 5 * time.Minute

// NewResultCache creates a cache and starts its cleanup goroutine. Call Stop
// to release it.
func NewResultCache(ttl time.Duration, maxSize int, opts ...CacheOption) *ResultCache {
	return newResultCache(ttl, maxSize, defaultCleanupInterval, opts...)
}

func newResultCache(ttl time.Duration, maxSize int, interval time.Duration, opts ...CacheOption) *ResultCache {
	cache := &ResultCache{
		entries:  make(map[CacheKey]CacheEntry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanup(interval)

	return cache
}

// Get retrieves a result.
func (c *ResultCache) Get(ctx context.Context, key CacheKey) (any, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		c.missCount++
		c.count(ctx, c.misses, key)
		return nil, false
	}

	entry.HitCount++
	c.entries[key] = entry
	c.hitCount++
	c.count(ctx, c.hits, key)

	return entry.Value, true
}

// Set stores a result.
func (c *ResultCache) Set(key CacheKey, value any) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	c.entries[key] = CacheEntry{
		Value:     value,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
}

// InvalidateVersion removes every entry of a dataset version.
func (c *ResultCache) InvalidateVersion(version string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key := range c.entries {
		if key.Version == version {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *ResultCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return CacheStats{
		Entries:    len(c.entries),
		MaxSize:    c.maxSize,
		HitCount:   c.hitCount,
		MissCount:  c.missCount,
		HitRatio:   hitRatio,
		TTLSeconds: c.ttl.Seconds(),
	}
}

func (c *ResultCache) count(ctx context.Context, counter metric.Int64Counter, key CacheKey) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("view", string(key.View))))
}

func (c *ResultCache) evictOldest() {
	var oldestKey CacheKey
	var oldestTime time.Time
	found := false

	for key, entry := range c.entries {
		if !found || entry.CachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CachedAt
			found = true
		}
	}

	if found {
		delete(c.entries, oldestKey)
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *ResultCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.ExpiresAt) {
					delete(c.entries, key)
				}
			}
			c.mutex.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
