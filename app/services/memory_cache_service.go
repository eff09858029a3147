package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/address-simplifier/app/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCacheService in-process LRU cache with per-entry expiry
type MemoryCacheService struct {
	cache *expirable.LRU[string, *models.LookupCacheEntry]
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryCacheService creates a cache holding at most size entries for ttl
func NewMemoryCacheService(size int, ttl time.Duration) *MemoryCacheService {
	return &MemoryCacheService{
		cache: expirable.NewLRU[string, *models.LookupCacheEntry](size, nil, ttl),
		ttl:   ttl,
	}
}

// Get returns the entry for key
func (mcs *MemoryCacheService) Get(ctx context.Context, key string) (*models.LookupCacheEntry, bool, error) {
	entry, ok := mcs.cache.Get(key)
	if !ok {
		mcs.misses.Add(1)
		return nil, false, nil
	}
	mcs.hits.Add(1)
	return entry, true, nil
}

// Set stores entry
func (mcs *MemoryCacheService) Set(ctx context.Context, key string, entry *models.LookupCacheEntry) error {
	mcs.cache.Add(key, entry)
	return nil
}

// Delete removes key
func (mcs *MemoryCacheService) Delete(ctx context.Context, key string) error {
	mcs.cache.Remove(key)
	return nil
}

// Clear empties the cache and resets counters
func (mcs *MemoryCacheService) Clear(ctx context.Context) error {
	mcs.cache.Purge()
	mcs.hits.Store(0)
	mcs.misses.Store(0)
	return nil
}

// GetStats returns counters and the live entry count
func (mcs *MemoryCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := mcs.hits.Load(), mcs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(mcs.cache.Len()),
	}, nil
}

// Close is a no-op for the in-memory cache
func (mcs *MemoryCacheService) Close() error {
	return nil
}
