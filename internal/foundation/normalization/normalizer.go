// Package normalization maps free-form config strings onto typed enum
// values. Config files reach us hand-edited, so casing and stray
// whitespace must never change meaning.
package normalization

import (
	"sort"
	"strings"
)

// Normalizer converts raw strings into values of an enum type. Unrecognized
// input maps to a fixed fallback instead of an error; config loading decides
// separately whether unknown values are worth rejecting.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
	keys     []string
}

// NewNormalizer builds a normalizer from canonical key to value pairs.
// Keys are matched case-insensitively with surrounding whitespace ignored.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	cleaned := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		key := canonical(k)
		cleaned[key] = v
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return &Normalizer[T]{values: cleaned, fallback: fallback, keys: keys}
}

// Normalize returns the value for raw, or the fallback when raw is not a
// known key.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[canonical(raw)]; ok {
		return v
	}
	return n.fallback
}

// ValidKeys lists the accepted keys in sorted order, for error messages.
func (n *Normalizer[T]) ValidKeys() []string {
	keys := make([]string, len(n.keys))
	copy(keys, n.keys)
	return keys
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
