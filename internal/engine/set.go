package engine

import (
	"fmt"
	"strings"
)

// Set is an insertion-ordered, deduplicated collection of permissions.
// Ordering only affects how members are rendered in deny reasons;
// membership is decided by equality alone.
type Set[P comparable] struct {
	items []P
	index map[P]struct{}
}

// NewSet builds a Set from values, dropping duplicates but keeping the
// position of the first occurrence.
func NewSet[P comparable](values ...P) Set[P] {
	s := Set[P]{index: make(map[P]struct{}, len(values))}
	for _, v := range values {
		s.add(v)
	}
	return s
}

func (s *Set[P]) add(v P) {
	if s.index == nil {
		s.index = make(map[P]struct{})
	}
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
}

// Has reports whether v is a member of the set.
func (s Set[P]) Has(v P) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of distinct members.
func (s Set[P]) Len() int { return len(s.items) }

// Items returns a copy of the members in insertion order.
func (s Set[P]) Items() []P {
	out := make([]P, len(s.items))
	copy(out, s.items)
	return out
}

// Minus returns the members of s that are not in other.
func (s Set[P]) Minus(other Set[P]) Set[P] {
	return s.Filter(func(v P) bool { return !other.Has(v) })
}

// Intersect returns the members of s that are also in other, in the
// order they appear in s.
func (s Set[P]) Intersect(other Set[P]) Set[P] {
	return s.Filter(other.Has)
}

// Filter returns the members of s for which keep returns true.
func (s Set[P]) Filter(keep func(P) bool) Set[P] {
	out := NewSet[P]()
	for _, v := range s.items {
		if keep(v) {
			out.add(v)
		}
	}
	return out
}

// Join renders the members with fmt's %v verb separated by sep.
func (s Set[P]) Join(sep string) string {
	parts := make([]string, len(s.items))
	for i, v := range s.items {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, sep)
}
