package types

import (
	"iter"
	"maps"
	"slices"
)

// Set is a mutable hash set over comparable elements.
type Set[T comparable] map[T]struct{}

// NewSet builds a Set seeded with the given elements.
func NewSet[T comparable](data ...T) Set[T] {
	set := make(Set[T], len(data))
	set.Add(data...)
	return set
}

// Add inserts the given elements.
func (s Set[T]) Add(values ...T) {
	for _, val := range values {
		s[val] = struct{}{}
	}
}

// Delete removes the given elements.
func (s Set[T]) Delete(values ...T) {
	for _, val := range values {
		delete(s, val)
	}
}

// Contains reports membership of val.
func (s Set[T]) Contains(val T) bool {
	_, ok := s[val]
	return ok
}

// ToIter iterates over the elements in unspecified order.
func (s Set[T]) ToIter() iter.Seq[T] {
	return maps.Keys(s)
}

// ToSlice collects the elements into a slice, order unspecified.
func (s Set[T]) ToSlice() []T {
	return slices.Collect(s.ToIter())
}
