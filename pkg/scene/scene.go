// Package scene holds the named parts produced by evaluating a kerf
// program. Each part is a tree of shape operations; the tessellator turns
// those trees into solids with whichever geometry kernel it is handed.
package scene

import (
	"errors"
	"fmt"
)

// ErrDuplicatePart is returned when a part name is defined twice.
var ErrDuplicatePart = errors.New("scene: duplicate part name")

// Part is a named shape tree.
type Part struct {
	Name string `json:"name"`
	Root *Node  `json:"root"`
}

// Scene is the top-level structure produced by evaluation. Parts keep their
// definition order.
type Scene struct {
	parts []*Part
	index map[string]int
}

// New creates an empty Scene.
func New() *Scene {
	return &Scene{index: make(map[string]int)}
}

// AddPart registers a part. Names must be unique and non-empty.
func (s *Scene) AddPart(name string, root *Node) (*Part, error) {
	if name == "" {
		return nil, fmt.Errorf("scene: part name must not be empty")
	}
	if _, ok := s.index[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePart, name)
	}
	p := &Part{Name: name, Root: root}
	s.index[name] = len(s.parts)
	s.parts = append(s.parts, p)
	return p, nil
}

// Lookup returns the part with the given name, or nil.
func (s *Scene) Lookup(name string) *Part {
	i, ok := s.index[name]
	if !ok {
		return nil
	}
	return s.parts[i]
}

// MustLookup returns the part with the given name, or panics.
func (s *Scene) MustLookup(name string) *Part {
	p := s.Lookup(name)
	if p == nil {
		panic(fmt.Sprintf("scene: no part named %q", name))
	}
	return p
}

// Parts returns all parts in definition order.
func (s *Scene) Parts() []*Part {
	return append([]*Part(nil), s.parts...)
}

// PartCount returns the number of parts.
func (s *Scene) PartCount() int {
	return len(s.parts)
}
