package csg

import (
	"math"
	"testing"
)

const tol = 1e-9

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func mustPolygon(t *testing.T, vs ...Vertex) *Polygon {
	t.Helper()
	p, err := NewPolygon(vs, nil)
	if err != nil {
		t.Fatalf("NewPolygon: %v", err)
	}
	return p
}

// xy builds a polygon in the z=0 plane from (x, y) pairs.
func xy(t *testing.T, coords ...float64) *Polygon {
	t.Helper()
	vs := make([]Vertex, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		vs = append(vs, V(coords[i], coords[i+1], 0))
	}
	return mustPolygon(t, vs...)
}

func unitCube() []*Polygon {
	return Cuboid(Vector{0, 0, 0}, Vector{1, 1, 1}, nil)
}

func totalArea(polygons []*Polygon) float64 {
	var sum float64
	for _, p := range polygons {
		sum += p.Area()
	}
	return sum
}

// volume is the enclosed volume of a closed outward-facing surface, by the
// divergence theorem.
func volume(polygons []*Polygon) float64 {
	var sum float64
	for _, p := range polygons {
		sum += p.Area() * p.Plane.W / 3
	}
	return sum
}

func positions(p *Polygon) []Vector {
	out := make([]Vector, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = v.Pos
	}
	return out
}
