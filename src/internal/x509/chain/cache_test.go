// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by terms
// of License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyOutcomeCached(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	v := newTestVerifier(t, pki)

	first, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err, "first verification should succeed")

	second, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err, "second verification should succeed")
	assert.Same(t, first, second, "identical inputs within a bucket should return the memoized outcome")

	metrics := v.CacheMetrics()
	assert.Equal(t, int64(1), metrics.Misses, "expected exactly one computation")
	assert.Equal(t, int64(1), metrics.Hits, "expected the second call to hit")
	assert.Equal(t, int64(1), metrics.Size, "expected a single cached outcome")
}

func TestVerifyFailureOutcomeCached(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{omitLeafMarker: true})
	v := newTestVerifier(t, pki)

	_, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.ErrorIs(t, err, ErrInvalidExtension)

	_, err = v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.ErrorIs(t, err, ErrInvalidExtension, "cached failures must replay the same error class")

	metrics := v.CacheMetrics()
	assert.Equal(t, int64(1), metrics.Misses, "failures are memoized like successes")
	assert.Equal(t, int64(1), metrics.Hits)
}

func TestVerifyCacheTimeBuckets(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	v := newTestVerifier(t, pki)

	// testEffectiveDate sits exactly on a 15 minute boundary, so one minute
	// later is still the same bucket and a whole bucket later is not.
	_, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err)

	_, err = v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate.Add(time.Minute))
	require.NoError(t, err)

	metrics := v.CacheMetrics()
	assert.Equal(t, int64(1), metrics.Misses, "same bucket should not recompute")
	assert.Equal(t, int64(1), metrics.Hits)

	_, err = v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate.Add(15*time.Minute))
	require.NoError(t, err)

	metrics = v.CacheMetrics()
	assert.Equal(t, int64(2), metrics.Misses, "a new bucket derives a new key")
	assert.Equal(t, int64(2), metrics.Size)
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	other := newTestPKI(t, testPKIConfig{})
	bucket := testEffectiveDate.Truncate(15 * time.Minute)

	base := cacheKeyFor(pki.leafDER, pki.intermediateDER, bucket)

	assert.NotEqual(t, base, cacheKeyFor(other.leafDER, pki.intermediateDER, bucket),
		"a different leaf must derive a different key")
	assert.NotEqual(t, base, cacheKeyFor(pki.leafDER, other.intermediateDER, bucket),
		"a different intermediate must derive a different key")
	assert.NotEqual(t, base, cacheKeyFor(pki.leafDER, pki.intermediateDER, bucket.Add(15*time.Minute)),
		"a different bucket must derive a different key")
	assert.Equal(t, base, cacheKeyFor(pki.leafDER, pki.intermediateDER, bucket),
		"identical inputs must derive the same key")
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	c := newVerificationCache(nil)
	bucket := testEffectiveDate.Truncate(15 * time.Minute)

	var computations int64
	outcome := &TrustedKey{Raw: []byte("spki")}

	const goroutines = 16
	results := make([]*TrustedKey, goroutines)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(goroutines)

	for i := range goroutines {
		go func(slot int) {
			defer done.Done()
			start.Wait()
			key, err := c.getOrCompute("shared", bucket, func() (*TrustedKey, error) {
				atomic.AddInt64(&computations, 1)
				time.Sleep(50 * time.Millisecond)
				return outcome, nil
			})
			assert.NoError(t, err)
			results[slot] = key
		}(i)
	}

	start.Done()
	done.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&computations), "expected exactly one computation per key")
	for i, key := range results {
		assert.Same(t, outcome, key, fmt.Sprintf("goroutine %d should observe the single computed outcome", i))
	}

	metrics := c.Metrics()
	assert.Equal(t, int64(1), metrics.Misses, "one computation means one miss")
	assert.Equal(t, int64(goroutines-1), metrics.Hits, "coalesced callers count as hits")
}

func TestCacheLRUAccessOrder(t *testing.T) {
	c := newVerificationCache(&CacheConfig{MaxSize: 3})
	bucket := testEffectiveDate.Truncate(15 * time.Minute)

	fill := func(key string) {
		_, err := c.getOrCompute(key, bucket, func() (*TrustedKey, error) {
			return &TrustedKey{Raw: []byte(key)}, nil
		})
		require.NoError(t, err, fmt.Sprintf("failed to fill key %s", key))
	}

	// cached probes the store without inserting, so checks cannot shift the
	// access order or trigger evictions of their own.
	cached := func(key string) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, ok := c.entries[key]
		return ok
	}

	fill("a")
	fill("b")
	fill("c")

	// Touch a so b becomes the least recently used entry.
	_, err := c.getOrCompute("a", bucket, func() (*TrustedKey, error) {
		t.Fatal("a should still be cached")
		return nil, nil
	})
	require.NoError(t, err)

	fill("d")

	assert.False(t, cached("b"), "expected b to be evicted (LRU)")
	assert.True(t, cached("a"), "expected a to survive")
	assert.True(t, cached("c"), "expected c to survive")
	assert.True(t, cached("d"), "expected d to survive")

	metrics := c.Metrics()
	assert.Equal(t, int64(1), metrics.Evictions, "expected exactly one eviction")
	assert.Equal(t, int64(3), metrics.Size, "cache size exceeds max size")
}

func TestCacheUnlimitedWhenZero(t *testing.T) {
	c := newVerificationCache(&CacheConfig{MaxSize: 0})
	bucket := testEffectiveDate.Truncate(15 * time.Minute)

	for i := range 50 {
		key := fmt.Sprintf("key-%d", i)
		_, err := c.getOrCompute(key, bucket, func() (*TrustedKey, error) {
			return &TrustedKey{Raw: []byte(key)}, nil
		})
		require.NoError(t, err)
	}

	metrics := c.Metrics()
	assert.Equal(t, int64(50), metrics.Size, "expected 50 items in unlimited cache")
	assert.Equal(t, int64(0), metrics.Evictions, "unlimited cache never evicts")
}

func TestCacheConfigNormalization(t *testing.T) {
	c := newVerificationCache(&CacheConfig{MaxSize: -5, Bucket: -time.Minute, CleanupInterval: 0})
	config := c.Config()

	assert.Equal(t, 0, config.MaxSize, "negative max size normalizes to unlimited")
	assert.Equal(t, 15*time.Minute, config.Bucket, "non-positive bucket falls back to the default")
	assert.Equal(t, time.Hour, config.CleanupInterval, "non-positive interval falls back to the default")

	defaults := newVerificationCache(nil).Config()
	assert.Equal(t, 32, defaults.MaxSize)
	assert.Equal(t, 15*time.Minute, defaults.Bucket)
	assert.Equal(t, time.Hour, defaults.CleanupInterval)
}

func TestCacheCleanupExpiredBuckets(t *testing.T) {
	c := newVerificationCache(&CacheConfig{MaxSize: 10})
	now := testEffectiveDate

	stale := now.Add(-2 * time.Hour).Truncate(15 * time.Minute)
	fresh := now.Truncate(15 * time.Minute)

	for i := range 3 {
		key := fmt.Sprintf("stale-%d", i)
		_, err := c.getOrCompute(key, stale, func() (*TrustedKey, error) {
			return nil, errors.New("memoized failure")
		})
		require.Error(t, err)
	}
	_, err := c.getOrCompute("fresh", fresh, func() (*TrustedKey, error) {
		return &TrustedKey{Raw: []byte("fresh")}, nil
	})
	require.NoError(t, err)

	c.cleanupExpired(now)

	metrics := c.Metrics()
	assert.Equal(t, int64(1), metrics.Size, "only the fresh bucket survives the sweep")
	assert.Equal(t, int64(3), metrics.Cleanups, "each removed entry counts as a cleanup")
}

func TestStartCacheCleanup(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	v := newTestVerifier(t, pki, WithCacheConfig(&CacheConfig{CleanupInterval: 10 * time.Millisecond}))

	ctx, cancel := context.WithCancel(context.Background())
	v.StartCacheCleanup(ctx)
	v.StartCacheCleanup(ctx) // second call is a no-op while one is running

	assert.Equal(t, int32(1), atomic.LoadInt32(&v.cache.cleanupRunning), "exactly one sweeper may run")

	cancel()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&v.cache.cleanupRunning) == 0
	}, time.Second, 10*time.Millisecond, "sweeper should exit on context cancellation")
}

func TestClearCache(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	v := newTestVerifier(t, pki)

	_, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err)
	require.Equal(t, int64(1), v.CacheMetrics().Size)

	v.ClearCache()

	metrics := v.CacheMetrics()
	assert.Equal(t, int64(0), metrics.Size, "clear should drop all entries")
	assert.Equal(t, int64(0), metrics.Hits, "clear should reset metrics")
	assert.Equal(t, int64(0), metrics.Misses, "clear should reset metrics")
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := newVerificationCache(&CacheConfig{MaxSize: 16})
	bucket := testEffectiveDate.Truncate(15 * time.Minute)

	const goroutines = 8
	const iterations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := range goroutines {
		go func(goroutineID int) {
			defer wg.Done()
			for i := range iterations {
				key := fmt.Sprintf("key-%d", (goroutineID+i)%24)
				_, err := c.getOrCompute(key, bucket, func() (*TrustedKey, error) {
					return &TrustedKey{Raw: []byte(key)}, nil
				})
				assert.NoError(t, err, fmt.Sprintf("goroutine %d: unexpected cache error", goroutineID))
			}
		}(g)
	}

	wg.Wait()

	metrics := c.Metrics()
	assert.LessOrEqual(t, metrics.Size, int64(16), "cache size exceeds max size")
	assert.True(t, metrics.Hits > 0 || metrics.Misses > 0, "expected some cache activity")
}

func TestCacheStatsFormat(t *testing.T) {
	pki := newTestPKI(t, testPKIConfig{})
	v := newTestVerifier(t, pki)

	_, err := v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err)
	_, err = v.VerifyAt(pki.leafDER, pki.intermediateDER, testEffectiveDate)
	require.NoError(t, err)

	stats := v.CacheStats()
	assert.Contains(t, stats, "Verification Cache Statistics:")
	assert.Contains(t, stats, "Hit Rate: 50.0% (1 hits, 1 misses)")
	assert.Contains(t, stats, "Size: 1/32 entries")
	assert.Contains(t, stats, "Time Bucket: 15m0s")
	t.Logf("Stats:\n%s", stats)
}
