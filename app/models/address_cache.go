package models

import (
	"time"

	"github.com/address-simplifier/internal/oracle"
)

// LookupCacheEntry is a lookup answer kept in the cache, keyed by the
// shortened address that was sent to the lookup page
type LookupCacheEntry struct {
	Query    string    `json:"query"`
	Matched  string    `json:"matched,omitempty"`
	Found    bool      `json:"found"`
	CachedAt time.Time `json:"cached_at"`
}

// NewLookupCacheEntry wraps a lookup result for caching
func NewLookupCacheEntry(result oracle.LookupResult) *LookupCacheEntry {
	return &LookupCacheEntry{
		Query:    result.Query,
		Matched:  result.Matched,
		Found:    result.Found,
		CachedAt: time.Now(),
	}
}

// Result converts the entry back to a lookup result
func (e *LookupCacheEntry) Result() oracle.LookupResult {
	return oracle.LookupResult{Query: e.Query, Matched: e.Matched, Found: e.Found}
}
