package services

import (
	"context"
	"errors"

	"github.com/address-simplifier/app/models"
	"go.uber.org/zap"
)

// HybridCacheService in-process L1 in front of a shared L2
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

// NewHybridCacheService combines l1 (fast, per instance) with l2 (shared)
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		l1:     l1,
		l2:     l2,
		logger: logger,
	}
}

// Get tries L1 then L2, promoting L2 hits into L1
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.LookupCacheEntry, bool, error) {
	entry, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("L1 cache error, falling back to L2", zap.Error(err))
	} else if found {
		return entry, true, nil
	}

	entry, found, err = hcs.l2.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	if err := hcs.l1.Set(ctx, key, entry); err != nil {
		hcs.logger.Warn("Failed to promote entry to L1", zap.Error(err), zap.String("key", key))
	}
	return entry, true, nil
}

// Set writes both levels in parallel
func (hcs *HybridCacheService) Set(ctx context.Context, key string, entry *models.LookupCacheEntry) error {
	return hcs.both(func(c ICacheService) error { return c.Set(ctx, key, entry) })
}

// Delete removes key from both levels
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) })
}

// Clear empties both levels
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return err
	}
	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

// GetStats sums the counters of both levels. Items come from L2 since L1
// only holds a subset of it.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1, l1Err := hcs.l1.GetStats(ctx)
	l2, l2Err := hcs.l2.GetStats(ctx)

	switch {
	case l1Err != nil && l2Err != nil:
		return nil, errors.Join(l1Err, l2Err)
	case l2Err != nil:
		return l1, nil
	case l1Err != nil:
		return l2, nil
	}

	// an L2 lookup only happens after an L1 miss
	hits := l1.TotalHits + l2.TotalHits
	misses := l2.TotalMiss
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: max(l1.TotalItems, l2.TotalItems),
	}, nil
}

// Close closes both levels
func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() })
}

func (hcs *HybridCacheService) both(op func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.l1, hcs.l2} {
		go func(c ICacheService) {
			errCh <- op(c)
		}(c)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
