package dataprocessing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"labpulse/pkg/contracts/domain"
)

func TestNewCacheKey_Normalizes(t *testing.T) {
	a := NewCacheKey("v1", ViewTrend, domain.Filter{})
	b := NewCacheKey("v1", ViewTrend, domain.Filter{Profile: domain.AllProfiles, Lab: domain.AllLabs})
	c := NewCacheKey("v1", ViewTrend, domain.Filter{Profile: "P1"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, NewCacheKey("v1", ViewWeeklyByLab, domain.Filter{}))
	assert.NotEqual(t, a, NewCacheKey("v2", ViewTrend, domain.Filter{}))
}

func TestResultCache_GetSet(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cache := NewResultCache(time.Minute, 10)
	defer cache.Stop()

	key := NewCacheKey("v1", ViewLotSummary, domain.NewFilter("P1", ""))

	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	cache.Set(key, "value")
	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "value", got)

	// a different lab is a different entry
	_, ok = cache.Get(ctx, NewCacheKey("v1", ViewLotSummary, domain.NewFilter("P1", "A")))
	assert.False(t, ok)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(2), stats.MissCount)
	assert.InDelta(t, 1.0/3.0, stats.HitRatio, 0.0001)
	assert.Equal(t, 60.0, stats.TTLSeconds)
}

func TestResultCache_Expiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cache := newResultCache(20*time.Millisecond, 10, 10*time.Millisecond)
	defer cache.Stop()

	key := NewCacheKey("v1", ViewTrend, domain.Filter{})
	cache.Set(key, 1)

	assert.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 10*time.Millisecond)
	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)
}

func TestResultCache_EvictsOldest(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cache := NewResultCache(time.Minute, 2)
	defer cache.Stop()

	k1 := NewCacheKey("v1", ViewTrend, domain.NewFilter("P1", ""))
	k2 := NewCacheKey("v1", ViewTrend, domain.NewFilter("P2", ""))
	k3 := NewCacheKey("v1", ViewTrend, domain.NewFilter("P3", ""))

	cache.Set(k1, 1)
	time.Sleep(2 * time.Millisecond)
	cache.Set(k2, 2)
	time.Sleep(2 * time.Millisecond)
	cache.Set(k3, 3)

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(ctx, k1)
	assert.False(t, ok)
	_, ok = cache.Get(ctx, k3)
	assert.True(t, ok)

	// overwriting an existing key does not evict
	cache.Set(k3, 4)
	assert.Equal(t, 2, cache.Len())
}

func TestResultCache_ZeroSize(t *testing.T) {
	defer goleak.VerifyNone(t)

	cache := NewResultCache(time.Minute, 0)
	defer cache.Stop()

	cache.Set(NewCacheKey("v1", ViewTrend, domain.Filter{}), 1)
	assert.Equal(t, 0, cache.Len())
}

func TestResultCache_InvalidateVersion(t *testing.T) {
	defer goleak.VerifyNone(t)

	cache := NewResultCache(time.Minute, 100)
	defer cache.Stop()

	for i := 0; i < 3; i++ {
		cache.Set(NewCacheKey("old", ViewTrend, domain.NewFilter(fmt.Sprintf("P%d", i), "")), i)
	}
	cache.Set(NewCacheKey("new", ViewTrend, domain.Filter{}), 9)

	assert.Equal(t, 3, cache.InvalidateVersion("old"))
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 0, cache.InvalidateVersion("old"))
}

func TestResultCache_StopTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	cache := NewResultCache(time.Minute, 1)
	cache.Stop()
	assert.NotPanics(t, cache.Stop)
}
