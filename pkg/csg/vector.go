// Package csg implements constructive solid geometry on polygon meshes
// using a BSP tree, along with a mesh optimizer that removes T-junctions
// and merges coplanar fragments back into larger polygons.
//
// Polygons are expected to be convex and planar. Trees are single-writer:
// a Node may fan work out internally, but it must not be mutated from
// several goroutines at once.
package csg

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector is a 3-component double precision vector.
type Vector = mgl64.Vec3

const (
	// VertexEpsilon is the per-coordinate tolerance for vertex identity.
	VertexEpsilon = 1e-5

	// EdgeEpsilon is the point-to-edge distance tolerance used by the
	// T-junction and merge passes. It must not be smaller than VertexEpsilon.
	EdgeEpsilon = 1e-4
)

// CompareVectors orders a and b lexicographically by x, y, then z.
// Coordinates within eps of each other compare equal.
//
// Equality within eps is not transitive, so this is not a strict weak
// ordering. A binary search over positions sorted with it can miss a point
// whose x is within eps of the target when points with x in between sort
// ahead of it, and VertexSet may then keep two positions closer than eps.
func CompareVectors(a, b Vector, eps float64) int {
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		if math.Abs(d) <= eps {
			continue
		}
		if d < 0 {
			return -1
		}
		return 1
	}
	return 0
}

// SameVector reports whether a and b are the same vertex position.
func SameVector(a, b Vector) bool {
	return CompareVectors(a, b, VertexEpsilon) == 0
}

// DistanceToSegment returns the distance from p to segment ab and the
// projection parameter of p onto the line through a and b.
func DistanceToSegment(p, a, b Vector) (dist, t float64) {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Len(), 0
	}
	t = p.Sub(a).Dot(ab) / l2
	c := mgl64.Clamp(t, 0, 1)
	return p.Sub(a.Add(ab.Mul(c))).Len(), t
}

// OnOpenSegment reports whether p lies within eps of segment ab without
// touching either endpoint.
func OnOpenSegment(p, a, b Vector, eps float64) bool {
	if CompareVectors(p, a, VertexEpsilon) == 0 || CompareVectors(p, b, VertexEpsilon) == 0 {
		return false
	}
	d, t := DistanceToSegment(p, a, b)
	return d < eps && t > 0 && t < 1
}

// VertexSet is an ordered set of positions deduplicated with
// CompareVectors at VertexEpsilon.
type VertexSet struct {
	items []Vector
}

// NewVertexSet returns a set holding the given positions.
func NewVertexSet(positions ...Vector) *VertexSet {
	s := &VertexSet{}
	for _, p := range positions {
		s.Add(p)
	}
	return s
}

func (s *VertexSet) search(p Vector) int {
	return sort.Search(len(s.items), func(i int) bool {
		return CompareVectors(s.items[i], p, VertexEpsilon) >= 0
	})
}

// Add inserts p and reports whether it was not already present.
func (s *VertexSet) Add(p Vector) bool {
	i := s.search(p)
	if i < len(s.items) && CompareVectors(s.items[i], p, VertexEpsilon) == 0 {
		return false
	}
	s.items = append(s.items, Vector{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = p
	return true
}

// AddPolygon inserts every vertex of p.
func (s *VertexSet) AddPolygon(p *Polygon) {
	for _, v := range p.Vertices {
		s.Add(v.Pos)
	}
}

// Contains reports whether p is in the set.
func (s *VertexSet) Contains(p Vector) bool {
	if s == nil {
		return false
	}
	i := s.search(p)
	return i < len(s.items) && CompareVectors(s.items[i], p, VertexEpsilon) == 0
}

// Len returns the number of distinct positions.
func (s *VertexSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Positions returns the positions in set order. The slice must not be modified.
func (s *VertexSet) Positions() []Vector {
	if s == nil {
		return nil
	}
	return s.items
}

// EdgeIsClean reports whether no position in the set lies on the open
// segment ab.
func (s *VertexSet) EdgeIsClean(a, b Vector, eps float64) bool {
	for _, w := range s.Positions() {
		if OnOpenSegment(w, a, b, eps) {
			return false
		}
	}
	return true
}
