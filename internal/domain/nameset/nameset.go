// Package nameset provides an ordered collection of unique scene names.
package nameset

import (
	"slices"

	"github.com/younwookim/sceneflow/internal/domain/scene"
)

// Set is an insertion-ordered list of unique names.
// The zero value is an empty set ready to use.
type Set struct {
	names []scene.Name
}

// New creates a set seeded with names, dropping duplicates
func New(names ...scene.Name) *Set {
	s := &Set{}
	for _, n := range names {
		s.AddUnique(n)
	}
	return s
}

// AddUnique appends name unless it is already present
func (s *Set) AddUnique(name scene.Name) *Set {
	if !s.Contains(name) {
		s.names = append(s.names, name)
	}
	return s
}

// RemoveUnique removes name if present
func (s *Set) RemoveUnique(name scene.Name) *Set {
	if i := slices.Index(s.names, name); i >= 0 {
		s.names = slices.Delete(s.names, i, i+1)
	}
	return s
}

// Contains reports whether name is in the set
func (s *Set) Contains(name scene.Name) bool {
	return slices.Contains(s.names, name)
}

// Len returns the number of names
func (s *Set) Len() int {
	return len(s.names)
}

// Names returns a copy of the names in insertion order
func (s *Set) Names() []scene.Name {
	return slices.Clone(s.names)
}

// Clear empties the set
func (s *Set) Clear() *Set {
	s.names = s.names[:0]
	return s
}
