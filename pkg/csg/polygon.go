package csg

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// collinearEpsilon is the largest sine of the turning angle at a vertex for
// it to count as lying on a straight run.
const collinearEpsilon = 1e-6

// ErrDegeneratePolygon is returned for loops with fewer than three vertices.
var ErrDegeneratePolygon = errors.New("csg: polygon needs at least three vertices")

// Polygon is a convex, planar vertex loop. Winding follows the right-hand
// rule around Plane.Normal. Shared is opaque host data (material, part
// reference) copied onto every fragment derived from the polygon.
type Polygon struct {
	Vertices []Vertex
	Plane    Plane
	Shared   any
}

// NewPolygon builds a polygon from a vertex loop, deriving its plane.
// Loops that are too short or whose plane is ill-conditioned are rejected.
func NewPolygon(vertices []Vertex, shared any) (*Polygon, error) {
	if len(vertices) < 3 {
		return nil, ErrDegeneratePolygon
	}
	plane, err := PlaneFromVertices(vertices)
	if err != nil {
		return nil, fmt.Errorf("csg: new polygon: %w", err)
	}
	vs := make([]Vertex, len(vertices))
	copy(vs, vertices)
	return &Polygon{Vertices: vs, Plane: plane, Shared: shared}, nil
}

// derive returns a polygon on the same plane with the same shared data.
func (p *Polygon) derive(vertices []Vertex) *Polygon {
	return &Polygon{Vertices: vertices, Plane: p.Plane, Shared: p.Shared}
}

// Clone returns a deep copy of the vertex loop. Attributes are shared.
func (p *Polygon) Clone() *Polygon {
	vs := make([]Vertex, len(p.Vertices))
	copy(vs, p.Vertices)
	return p.derive(vs)
}

// Flip reverses the winding and the plane in place.
func (p *Polygon) Flip() {
	for i, j := 0, len(p.Vertices)-1; i < j; i, j = i+1, j-1 {
		p.Vertices[i], p.Vertices[j] = p.Vertices[j], p.Vertices[i]
	}
	p.Plane.Flip()
}

// Area returns the area of the polygon.
func (p *Polygon) Area() float64 {
	var sum Vector
	o := p.Vertices[0].Pos
	for i := 1; i+1 < len(p.Vertices); i++ {
		a := p.Vertices[i].Pos.Sub(o)
		b := p.Vertices[i+1].Pos.Sub(o)
		sum = sum.Add(a.Cross(b))
	}
	return 0.5 * sum.Dot(p.Plane.Normal)
}

// Transform returns a copy of p with every position mapped through m.
// The plane is recomputed from the transformed loop.
func (p *Polygon) Transform(m mgl64.Mat4) (*Polygon, error) {
	vs := make([]Vertex, len(p.Vertices))
	for i, v := range p.Vertices {
		vs[i] = Vertex{Pos: mgl64.TransformCoordinate(v.Pos, m), Attr: v.Attr}
	}
	return NewPolygon(vs, p.Shared)
}

func (p *Polygon) indexOf(pos Vector) int {
	for i, v := range p.Vertices {
		if SameVector(v.Pos, pos) {
			return i
		}
	}
	return -1
}

// turn returns the sine of the turning angle at vertex i, signed by the
// plane normal, and whether the walk continues forward through it.
func (p *Polygon) turn(i int) (sine float64, forward bool) {
	n := len(p.Vertices)
	prev := p.Vertices[(i+n-1)%n].Pos
	cur := p.Vertices[i].Pos
	next := p.Vertices[(i+1)%n].Pos
	d1, d2 := cur.Sub(prev), next.Sub(cur)
	l := d1.Len() * d2.Len()
	if l == 0 {
		return 0, true
	}
	return d1.Cross(d2).Dot(p.Plane.Normal) / l, d1.Dot(d2) > 0
}

func (p *Polygon) isInterpolated(i int) bool {
	s, forward := p.turn(i)
	return forward && s < collinearEpsilon && s > -collinearEpsilon
}

// IsConvex reports whether no vertex turns against the winding.
func (p *Polygon) IsConvex() bool {
	for i := range p.Vertices {
		if s, _ := p.turn(i); s < -collinearEpsilon {
			return false
		}
	}
	return true
}

// FindAndFixTJunction looks for a vertex of other that lies on an edge of
// p without being one of p's vertices. If one is found and splicing it in
// keeps the edge from the edge's start vertex to the new vertex clean
// against every known vertex, a copy of p with the vertex inserted is
// returned. A nil known set checks against other's vertices only.
//
// A nil result means there is nothing to fix. Callers iterate to a fixed
// point because each call inserts at most one vertex.
func (p *Polygon) FindAndFixTJunction(other *Polygon, known *VertexSet) *Polygon {
	if known == nil {
		known = NewVertexSet()
		known.AddPolygon(other)
	}
	n := len(p.Vertices)
	for _, ov := range other.Vertices {
		if p.indexOf(ov.Pos) >= 0 {
			continue
		}
		for i := 0; i < n; i++ {
			a, b := p.Vertices[i], p.Vertices[(i+1)%n]
			if !OnOpenSegment(ov.Pos, a.Pos, b.Pos, EdgeEpsilon) {
				continue
			}
			if !known.EdgeIsClean(a.Pos, ov.Pos, EdgeEpsilon) {
				continue
			}
			_, t := DistanceToSegment(ov.Pos, a.Pos, b.Pos)
			inserted := a.Lerp(b, t)
			inserted.Pos = ov.Pos

			vs := make([]Vertex, 0, n+1)
			vs = append(vs, p.Vertices[:i+1]...)
			vs = append(vs, inserted)
			vs = append(vs, p.Vertices[i+1:]...)
			return p.derive(vs)
		}
	}
	return nil
}

// Unify merges p and other when they share a plane and exactly one edge,
// traversed in opposite directions, and their union is convex. The merged
// polygon keeps p's shared data. A nil result means they cannot be merged.
func (p *Polygon) Unify(other *Polygon) *Polygon {
	if ComparePlanes(p.Plane, other.Plane, EdgeEpsilon) != 0 {
		return nil
	}
	n, m := len(p.Vertices), len(other.Vertices)
	edges, pi, oj := 0, -1, -1
	for i := 0; i < n; i++ {
		a, b := p.Vertices[i].Pos, p.Vertices[(i+1)%n].Pos
		for j := 0; j < m; j++ {
			c, d := other.Vertices[j].Pos, other.Vertices[(j+1)%m].Pos
			if SameVector(a, d) && SameVector(b, c) {
				edges++
				pi, oj = i, j
			}
		}
	}
	if edges != 1 {
		return nil
	}

	merged := make([]Vertex, 0, n+m-2)
	for k := 1; k <= n; k++ {
		merged = append(merged, p.Vertices[(pi+k)%n])
	}
	for k := 2; k < m; k++ {
		merged = append(merged, other.Vertices[(oj+k)%m])
	}

	seen := NewVertexSet()
	for _, v := range merged {
		if !seen.Add(v.Pos) {
			return nil
		}
	}
	out := p.derive(merged)
	if !out.IsConvex() {
		return nil
	}
	return out
}

// RemoveInterpolatedPoints drops vertices that lie on a straight line
// between their neighbours and returns how many were removed. A polygon is
// never reduced below three vertices.
func (p *Polygon) RemoveInterpolatedPoints() int {
	return p.removeInterpolated(nil)
}

// removeInterpolated is RemoveInterpolatedPoints that keeps any vertex in
// pinned.
func (p *Polygon) removeInterpolated(pinned *VertexSet) int {
	removed := 0
	for len(p.Vertices) > 3 {
		idx := -1
		for i := range p.Vertices {
			if p.isInterpolated(i) && !pinned.Contains(p.Vertices[i].Pos) {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		p.Vertices = append(p.Vertices[:idx], p.Vertices[idx+1:]...)
		removed++
	}
	return removed
}

// corners adds every vertex of p that is not on a straight run to set.
func (p *Polygon) corners(set *VertexSet) {
	for i, v := range p.Vertices {
		if !p.isInterpolated(i) {
			set.Add(v.Pos)
		}
	}
}
