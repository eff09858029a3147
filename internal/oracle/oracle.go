// Package oracle wraps the Ministry of the Interior address lookup page.
//
// The page is driven through a headless browser. Everything site specific
// (URL, element selectors, CSS classes) is configuration, and callers only
// see the Oracle interface so the browser can be swapped for a stub.
package oracle

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means no browser session could be created
	ErrUnavailable = errors.New("lookup session unavailable")
	// ErrTimeout means the page did not reach the expected state in time
	ErrTimeout = errors.New("lookup page timed out")
)

// LookupResult is the answer for one query. Found is false when the page
// showed no result row.
type LookupResult struct {
	Query   string `json:"query"`
	Matched string `json:"matched,omitempty"`
	Found   bool   `json:"found"`
}

// NotFound builds the not-found result for query
func NotFound(query string) LookupResult {
	return LookupResult{Query: query}
}

// Matched builds a found result
func Matched(query, matched string) LookupResult {
	return LookupResult{Query: query, Matched: matched, Found: true}
}

// Oracle resolves a shortened address to the official address text
type Oracle interface {
	Lookup(ctx context.Context, address string) (LookupResult, error)
}

// Func adapts a plain function to Oracle
type Func func(ctx context.Context, address string) (LookupResult, error)

// Lookup calls f
func (f Func) Lookup(ctx context.Context, address string) (LookupResult, error) {
	return f(ctx, address)
}
