package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/address-simplifier/app/models"
	"github.com/address-simplifier/internal/metrics"
	"github.com/address-simplifier/internal/normalizer"
	"github.com/address-simplifier/internal/oracle"
	"go.uber.org/zap"
)

// DefaultCityPrefix is prepended to every matched address
const DefaultCityPrefix = "桃園市"

// AddressService turns a raw address into its simplified forms: split,
// look up the shortened part, then rebuild and format the answer
type AddressService struct {
	oracle     oracle.Oracle
	normalizer *normalizer.AddressNormalizer
	cache      ICacheService
	metrics    *metrics.Metrics
	cityPrefix string
	logger     *zap.Logger
	startTime  time.Time
}

// NewAddressService creates the service. cache and m may be nil.
func NewAddressService(o oracle.Oracle, n *normalizer.AddressNormalizer, cache ICacheService, m *metrics.Metrics, cityPrefix string, logger *zap.Logger) *AddressService {
	if n == nil {
		n = normalizer.Default()
	}
	if cityPrefix == "" {
		cityPrefix = DefaultCityPrefix
	}
	return &AddressService{
		oracle:     o,
		normalizer: n,
		cache:      cache,
		metrics:    m,
		cityPrefix: cityPrefix,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// SearchAddress looks up raw and builds the response fields
func (as *AddressService) SearchAddress(ctx context.Context, raw string) (*models.SearchResult, error) {
	address := strings.TrimSpace(raw)
	if address == "" {
		return nil, ErrInvalidAddress
	}

	split := as.normalizer.SimplifyAddress(address)
	as.logger.Debug("Address split",
		zap.String("address", address),
		zap.String("shortened", split.Shortened),
		zap.String("suffix", split.Suffix))

	lookup, err := as.lookup(ctx, split.Shortened)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", split.Shortened, err)
	}

	result := as.buildResult(split, lookup)
	as.logger.Info("Address searched",
		zap.String("address", address),
		zap.String("status", result.Status),
		zap.String("simplified", result.SimplifiedAddress))
	return result, nil
}

func (as *AddressService) buildResult(split normalizer.SplitAddress, lookup oracle.LookupResult) *models.SearchResult {
	result := &models.SearchResult{
		Original:  split.Original,
		Shortened: split.Shortened,
		Suffix:    split.Suffix,
	}

	if !lookup.Found {
		result.SimplifiedAddress = as.normalizer.ProcessNoResultAddress(split.Original)
		result.FormattedSimplifiedAddress = as.normalizer.FormatSimplifiedAddress(result.SimplifiedAddress)
		result.Status = models.StatusNoResult
		return result
	}

	full := normalizer.FullwidthToHalfwidth(as.cityPrefix + lookup.Matched + split.Suffix)
	result.Matched = lookup.Matched
	result.SimplifiedAddress = as.normalizer.RemoveLingWithCondition(full)
	// formatted from the full prefixed address, not from the simplified one
	result.FormattedSimplifiedAddress = as.normalizer.FormatSimplifiedAddress(full)
	result.Status = models.StatusSuccess
	return result
}

// lookup answers from the cache when it can, otherwise asks the oracle and
// remembers the answer. Errors are never cached.
func (as *AddressService) lookup(ctx context.Context, shortened string) (oracle.LookupResult, error) {
	if as.cache != nil {
		entry, found, err := as.cache.Get(ctx, shortened)
		if err != nil {
			as.logger.Warn("Cache read failed", zap.String("shortened", shortened), zap.Error(err))
		}
		as.metrics.ObserveCache(found)
		if found {
			return entry.Result(), nil
		}
	}

	start := time.Now()
	result, err := as.oracle.Lookup(ctx, shortened)
	elapsed := time.Since(start)
	if err != nil {
		as.metrics.ObserveLookup("error", elapsed)
		return oracle.LookupResult{}, err
	}

	outcome := models.StatusNoResult
	if result.Found {
		outcome = models.StatusSuccess
	}
	as.metrics.ObserveLookup(outcome, elapsed)
	as.logger.Debug("Lookup finished",
		zap.String("shortened", shortened),
		zap.Bool("found", result.Found),
		zap.Duration("duration", elapsed))

	if as.cache != nil {
		if err := as.cache.Set(ctx, shortened, models.NewLookupCacheEntry(result)); err != nil {
			as.logger.Warn("Cache write failed", zap.String("shortened", shortened), zap.Error(err))
		}
	}
	return result, nil
}

// GetStartTime returns when the service was created
func (as *AddressService) GetStartTime() time.Time {
	return as.startTime
}
