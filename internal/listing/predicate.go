// Package listing is the generalized list engine behind every console
// screen: predicate filtering, page windowing and the browse state machine
// each screen configures instead of reimplementing.
package listing

import "strings"

// Predicate is a pure membership test for one filter key.
type Predicate[T any] func(rec T, value string) bool

// FilterSet maps filter keys to predicates. The combined test is the logical
// AND over every filter whose active value is non-empty; with no active
// filters every record passes.
type FilterSet[T any] struct {
	predicates map[string]Predicate[T]
}

// NewFilterSet constructs an empty FilterSet.
func NewFilterSet[T any]() *FilterSet[T] {
	return &FilterSet[T]{predicates: make(map[string]Predicate[T])}
}

// Define registers a predicate under a filter key. Chainable.
func (fs *FilterSet[T]) Define(key string, p Predicate[T]) *FilterSet[T] {
	fs.predicates[key] = p
	return fs
}

// Defined reports whether a filter key has a predicate.
func (fs *FilterSet[T]) Defined(key string) bool {
	if fs == nil {
		return false
	}
	_, ok := fs.predicates[key]
	return ok
}

// Match applies the combined test. Active keys without a registered
// predicate are ignored; they belong to the upstream (coarse) filters.
func (fs *FilterSet[T]) Match(rec T, active map[string]string) bool {
	if fs == nil {
		return true
	}
	for key, value := range active {
		if value == "" {
			continue
		}
		p, ok := fs.predicates[key]
		if !ok {
			continue
		}
		if !p(rec, value) {
			return false
		}
	}
	return true
}

// Apply returns the subset of items matching the active filters.
func (fs *FilterSet[T]) Apply(items []T, active map[string]string) []T {
	out := make([]T, 0, len(items))
	for _, rec := range items {
		if fs.Match(rec, active) {
			out = append(out, rec)
		}
	}
	return out
}

// Equals builds a predicate matching a field case-insensitively.
func Equals[T any](field func(T) string) Predicate[T] {
	return func(rec T, value string) bool {
		return strings.EqualFold(field(rec), value)
	}
}

// TextSearch builds a predicate that matches when ANY of the given fields
// contains the search term as a case-insensitive substring.
func TextSearch[T any](fields ...func(T) string) Predicate[T] {
	return func(rec T, value string) bool {
		term := strings.ToLower(strings.TrimSpace(value))
		if term == "" {
			return true
		}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(rec)), term) {
				return true
			}
		}
		return false
	}
}
