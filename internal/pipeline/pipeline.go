// Package pipeline holds the small shared pieces every data pipeline is
// built from: ordered fallback over upstream sources, best-candidate
// selection for ambiguous lookups, first-wins deduplication, and flagged
// text truncation.
package pipeline

import (
	"context"

	"github.com/klaud-0x/klaud-api/internal/apierr"
)

// Source is one upstream candidate in a fallback chain.
type Source[T any] struct {
	// Name identifies the upstream in meta.source.
	Name string
	// Fetch runs the upstream call.
	Fetch func(ctx context.Context) (T, error)
	// Usable reports whether a parsed response is good enough to win the
	// chain. A nil Usable accepts any non-error response.
	Usable func(T) bool
}

// FirstUsable tries sources in order and returns the first usable result
// together with the name of the source that produced it. Transport errors
// and unusable responses are soft failures; only exhausting the whole chain
// is an error.
func FirstUsable[T any](ctx context.Context, sources []Source[T]) (T, string, error) {
	var zero T
	var lastErr error
	for _, s := range sources {
		v, err := s.Fetch(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if s.Usable != nil && !s.Usable(v) {
			continue
		}
		return v, s.Name, nil
	}
	return zero, "", apierr.Upstreamf(lastErr, "all upstream sources failed")
}

// BestBy picks the candidate the first matching predicate accepts.
// Predicates are ordered by priority: the first predicate that matches any
// candidate decides, and among candidates matching it the earliest wins.
// When no predicate matches, the first candidate is returned. Exactly one
// candidate comes back; callers guarantee candidates is non-empty.
func BestBy[T any](candidates []T, predicates ...func(T) bool) T {
	for _, pred := range predicates {
		for _, c := range candidates {
			if pred(c) {
				return c
			}
		}
	}
	return candidates[0]
}

// DedupBy walks items in order, keeps the first occurrence of each key,
// and stops once limit unique items are collected. Order is preserved.
func DedupBy[T any](items []T, limit int, key func(T) string) []T {
	seen := make(map[string]bool, limit)
	out := make([]T, 0, limit)
	for _, it := range items {
		k := key(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Truncate cuts s at max characters and reports whether anything was cut.
// A string at or under the cap is returned unchanged and unflagged.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	return s[:max], true
}
