// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// cacheEntry holds one memoized verification outcome. Exactly one of key and
// err is set.
type cacheEntry struct {
	key    *TrustedKey
	err    error
	bucket time.Time // Start of the time bucket the outcome belongs to
}

// isExpired checks whether the entry's time bucket has fully elapsed; keys
// embed the bucket, so an elapsed bucket can never be requested again.
func (entry *cacheEntry) isExpired(now time.Time, bucket time.Duration) bool {
	return now.After(entry.bucket.Add(bucket))
}

// inflightCall tracks a verification in progress so concurrent callers with
// the same key wait for the first result instead of recomputing it.
type inflightCall struct {
	done chan struct{}
	key  *TrustedKey
	err  error
}

// CacheConfig holds configuration for the verification outcome cache
type CacheConfig struct {
	MaxSize         int           // Maximum number of outcomes to cache (0 = unlimited, but not recommended)
	Bucket          time.Duration // Time-bucket granularity for keys and expiry (default: 15 minutes)
	CleanupInterval time.Duration // How often StartCacheCleanup sweeps elapsed buckets (default: 1 hour)
}

// CacheMetrics tracks cache performance and usage
type CacheMetrics struct {
	Size        int64 // Current number of cached outcomes
	Hits        int64 // Outcomes served without running a verification, including callers coalesced onto an in-flight computation
	Misses      int64 // Verifications actually computed
	Evictions   int64 // Number of LRU evictions
	Cleanups    int64 // Number of elapsed-bucket removals
	TotalMemory int64 // Approximate memory usage in bytes
}

// Default verification cache configuration
var defaultCacheConfig = CacheConfig{
	MaxSize:         32,
	Bucket:          15 * time.Minute,
	CleanupInterval: 1 * time.Hour,
}

// verificationCache is a bounded LRU cache of verification outcomes owned by
// a single Verifier. Outcomes are keyed by SHA-256 of the leaf DER, the
// intermediate DER, and the time bucket, so both successes and failures are
// memoized deterministically within a bucket.
type verificationCache struct {
	mu             sync.Mutex
	entries        map[string]*cacheEntry
	order          []string // Maintains access order for LRU eviction
	inflight       map[string]*inflightCall
	config         atomic.Value // Stores *CacheConfig
	metrics        CacheMetrics
	cleanupRunning int32 // Atomic flag to ensure only one cleanup goroutine
}

// newVerificationCache creates a cache from the given configuration, applying
// defaults for unset or invalid fields. A nil config uses the defaults.
func newVerificationCache(config *CacheConfig) *verificationCache {
	cfg := &CacheConfig{
		MaxSize:         defaultCacheConfig.MaxSize,
		Bucket:          defaultCacheConfig.Bucket,
		CleanupInterval: defaultCacheConfig.CleanupInterval,
	}

	if config != nil {
		cfg.MaxSize = config.MaxSize
		cfg.Bucket = config.Bucket
		cfg.CleanupInterval = config.CleanupInterval
	}

	// Validate configuration
	if cfg.MaxSize < 0 {
		cfg.MaxSize = 0 // 0 means unlimited, but not recommended
	}
	if cfg.Bucket <= 0 {
		cfg.Bucket = defaultCacheConfig.Bucket
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCacheConfig.CleanupInterval
	}

	c := &verificationCache{
		entries:  make(map[string]*cacheEntry),
		inflight: make(map[string]*inflightCall),
	}
	c.config.Store(cfg)

	return c
}

// Config returns a copy of the cache configuration.
func (c *verificationCache) Config() *CacheConfig {
	config := c.config.Load().(*CacheConfig)
	// Return a copy to prevent external mutation
	return &CacheConfig{
		MaxSize:         config.MaxSize,
		Bucket:          config.Bucket,
		CleanupInterval: config.CleanupInterval,
	}
}

// cacheKeyFor derives the cache key from the certificate pair and the start
// of the time bucket the effective date falls into.
func cacheKeyFor(leafDER, intermediateDER []byte, bucket time.Time) string {
	h := sha256.New()
	h.Write(leafDER)
	h.Write(intermediateDER)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(bucket.Unix()))
	h.Write(ts[:])

	return hex.EncodeToString(h.Sum(nil))
}

// getOrCompute returns the cached outcome for key, or runs compute exactly
// once and caches its result. Concurrent callers with the same key block on
// the first caller's computation; eviction only ever touches completed
// entries, never in-flight work.
func (c *verificationCache) getOrCompute(key string, bucket time.Time, compute func() (*TrustedKey, error)) (*TrustedKey, error) {
	c.mu.Lock()

	if entry, ok := c.entries[key]; ok {
		atomic.AddInt64(&c.metrics.Hits, 1)
		c.updateOrder(key)
		c.mu.Unlock()
		return entry.key, entry.err
	}

	if call, ok := c.inflight[key]; ok {
		atomic.AddInt64(&c.metrics.Hits, 1)
		c.mu.Unlock()
		<-call.done
		return call.key, call.err
	}

	atomic.AddInt64(&c.metrics.Misses, 1)
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	call.key, call.err = compute()
	close(call.done)

	c.mu.Lock()
	delete(c.inflight, key)
	c.store(key, &cacheEntry{key: call.key, err: call.err, bucket: bucket})
	c.mu.Unlock()

	return call.key, call.err
}

// store inserts an entry, evicting least recently used entries first when the
// cache is full. Callers must hold c.mu.
func (c *verificationCache) store(key string, entry *cacheEntry) {
	config := c.Config()

	// Evict least recently used entries if the cache is full
	for len(c.entries) >= config.MaxSize && config.MaxSize > 0 {
		if len(c.order) == 0 {
			break // No more entries to evict
		}
		lru := c.order[0]
		delete(c.entries, lru)
		c.order = c.order[1:]
		atomic.AddInt64(&c.metrics.Evictions, 1)
	}

	c.entries[key] = entry
	c.updateOrder(key)
}

// updateOrder updates the access order for LRU eviction. Callers must hold
// c.mu.
func (c *verificationCache) updateOrder(key string) {
	// Remove from current position
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	// Add to end (most recently used)
	c.order = append(c.order, key)
}

// startCleanup starts a background goroutine sweeping elapsed buckets until
// the context is canceled. At most one goroutine runs per cache.
func (c *verificationCache) startCleanup(ctx context.Context) {
	// Only start if not already running
	if !atomic.CompareAndSwapInt32(&c.cleanupRunning, 0, 1) {
		return
	}

	go func() {
		defer atomic.StoreInt32(&c.cleanupRunning, 0)

		ticker := time.NewTicker(c.Config().CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cleanupExpired(time.Now())
			}
		}
	}()
}

// cleanupExpired removes entries whose time bucket has fully elapsed.
func (c *verificationCache) cleanupExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := c.Config().Bucket

	var expired []string
	for key, entry := range c.entries {
		if entry.isExpired(now, bucket) {
			expired = append(expired, key)
		}
	}

	for _, key := range expired {
		delete(c.entries, key)
		// Also remove from access order
		for i, k := range c.order {
			if k == key {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}

	if len(expired) > 0 {
		atomic.AddInt64(&c.metrics.Cleanups, int64(len(expired)))
	}
}

// clear removes all entries and resets metrics (useful for testing).
func (c *verificationCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = nil

	// Reset metrics
	atomic.StoreInt64(&c.metrics.Hits, 0)
	atomic.StoreInt64(&c.metrics.Misses, 0)
	atomic.StoreInt64(&c.metrics.Evictions, 0)
	atomic.StoreInt64(&c.metrics.Cleanups, 0)
}

// Metrics returns current cache metrics.
func (c *verificationCache) Metrics() CacheMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Approximate memory usage from the cached key material
	var totalMemory int64
	for key, entry := range c.entries {
		totalMemory += int64(len(key)) + 96 // Approximate per-entry overhead
		if entry.key != nil {
			totalMemory += int64(len(entry.key.Raw))
		}
	}

	metrics := c.metrics
	metrics.Size = int64(len(c.entries))
	metrics.TotalMemory = totalMemory

	return metrics
}

// CacheMetrics returns current metrics for the verifier's outcome cache.
func (v *Verifier) CacheMetrics() CacheMetrics {
	return v.cache.Metrics()
}

// CacheConfig returns a copy of the verifier's cache configuration.
func (v *Verifier) CacheConfig() *CacheConfig {
	return v.cache.Config()
}

// ClearCache removes all cached outcomes and resets cache metrics.
func (v *Verifier) ClearCache() {
	v.cache.clear()
}

// StartCacheCleanup starts the verifier's background cache sweeper. The
// goroutine exits when the context is canceled; repeated calls while one is
// running are no-ops.
func (v *Verifier) StartCacheCleanup(ctx context.Context) {
	v.cache.startCleanup(ctx)
}

// CacheStats returns a formatted string with cache statistics
func (v *Verifier) CacheStats() string {
	metrics := v.cache.Metrics()
	config := v.cache.Config()

	hitRate := float64(0)
	totalRequests := metrics.Hits + metrics.Misses
	if totalRequests > 0 {
		hitRate = float64(metrics.Hits) / float64(totalRequests) * 100
	}

	return fmt.Sprintf("Verification Cache Statistics:\n"+
		"  Size: %d/%d entries\n"+
		"  Memory Usage: %.2f KB\n"+
		"  Hit Rate: %.1f%% (%d hits, %d misses)\n"+
		"  Evictions: %d\n"+
		"  Cleanups: %d\n"+
		"  Time Bucket: %v\n"+
		"  Cleanup Interval: %v",
		metrics.Size, config.MaxSize,
		float64(metrics.TotalMemory)/1024,
		hitRate, metrics.Hits, metrics.Misses,
		metrics.Evictions,
		metrics.Cleanups,
		config.Bucket,
		config.CleanupInterval)
}
