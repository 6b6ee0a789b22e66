package models

import (
	"cmp"
	"encoding/json"
	"slices"
)

type Set[T cmp.Ordered] map[T]struct{}

func NewSet[T cmp.Ordered](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(value T) {
	s[value] = struct{}{}
}

func (s Set[T]) Contains(value T) bool {
	_, ok := s[value]
	return ok
}

func (s Set[T]) Remove(value T) bool {
	_, ok := s[value]
	delete(s, value)
	return ok
}

func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (s Set[T]) Intersect(other Set[T]) Set[T] {
	out := make(Set[T])
	for v := range s {
		if other.Contains(v) {
			out.Add(v)
		}
	}
	return out
}

func (s Set[T]) Union(other Set[T]) Set[T] {
	out := s.Clone()
	for v := range other {
		out.Add(v)
	}
	return out
}

func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

func (s *Set[T]) UnmarshalJSON(bytes []byte) error {
	var values []T
	if err := json.Unmarshal(bytes, &values); err != nil {
		return err
	}

	*s = NewSet(values...)
	return nil
}

func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}
