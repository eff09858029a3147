package services

import (
	"context"

	"github.com/address-simplifier/app/models"
)

// CacheStats cache counters
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService stores lookup answers keyed by shortened address
type ICacheService interface {
	// Get returns the entry for key, found is false on a miss
	Get(ctx context.Context, key string) (*models.LookupCacheEntry, bool, error)

	// Set stores entry under key
	Set(ctx context.Context, key string, entry *models.LookupCacheEntry) error

	// Delete removes key
	Delete(ctx context.Context, key string) error

	// Clear removes every entry
	Clear(ctx context.Context) error

	// GetStats returns hit/miss counters
	GetStats(ctx context.Context) (*CacheStats, error)

	// Close releases connections
	Close() error
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
