package foundation

import (
	"fmt"
	"slices"
	"strings"
)

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer parses user supplied strings into a closed set of values.
// Matching ignores case and surrounding whitespace.
type Normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
}

// NewNormalizer creates a normalizer over the given string to value pairs.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = v
	}
	return &Normalizer[T]{validValues: normalized, defaultValue: defaultValue}
}

// Normalize returns the matching value or the default for unknown input.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.validValues[normalizeKey(raw)]; ok {
		return value
	}
	return n.defaultValue
}

// Parse returns the matching value or an error naming the accepted spellings.
// Unlike Normalize it never falls back to a default.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if value, ok := n.validValues[normalizeKey(raw)]; ok {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q (expected one of %s)", raw, strings.Join(n.Keys(), ", "))
}

// Keys returns the accepted spellings in sorted order.
func (n *Normalizer[T]) Keys() []string {
	keys := make([]string, 0, len(n.validValues))
	for k := range n.validValues {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
