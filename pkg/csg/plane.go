package csg

import (
	"errors"
	"math"
)

// PlaneEpsilon is the thickness of a plane for classification. Vertices
// closer than this are coplanar.
const PlaneEpsilon = 1e-5

// minNormalLength is the shortest raw normal accepted before normalizing.
const minNormalLength = 1e-12

// ErrDegeneratePlane is returned when points do not span a plane.
var ErrDegeneratePlane = errors.New("csg: points do not define a plane")

// Classification is the side of a plane a vertex or polygon lies on.
// Polygon classifications are the bitwise OR of their vertices'.
type Classification int

const (
	Coplanar Classification = 0
	Front    Classification = 1
	Back     Classification = 2
	Spanning Classification = Front | Back
)

func (c Classification) String() string {
	switch c {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	default:
		return "unknown"
	}
}

// Plane is an oriented plane: points p with Normal·p == W lie on it.
// Normal is unit length.
type Plane struct {
	Normal Vector
	W      float64
}

// PlaneFromPoints returns the plane through a, b and c, oriented by the
// right-hand rule.
func PlaneFromPoints(a, b, c Vector) (Plane, error) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < minNormalLength {
		return Plane{}, ErrDegeneratePlane
	}
	n = n.Normalize()
	return Plane{Normal: n, W: n.Dot(a)}, nil
}

// PlaneFromVertices returns the best-fit plane of a vertex loop using
// Newell's method, which stays well conditioned when the first few
// vertices are nearly collinear.
func PlaneFromVertices(vs []Vertex) (Plane, error) {
	if len(vs) < 3 {
		return Plane{}, ErrDegeneratePlane
	}
	var n, centroid Vector
	for i, v := range vs {
		w := vs[(i+1)%len(vs)].Pos
		p := v.Pos
		n[0] += (p[1] - w[1]) * (p[2] + w[2])
		n[1] += (p[2] - w[2]) * (p[0] + w[0])
		n[2] += (p[0] - w[0]) * (p[1] + w[1])
		centroid = centroid.Add(p)
	}
	if n.Len() < minNormalLength {
		return Plane{}, ErrDegeneratePlane
	}
	n = n.Normalize()
	centroid = centroid.Mul(1 / float64(len(vs)))
	return Plane{Normal: n, W: n.Dot(centroid)}, nil
}

// Flip reverses the orientation of the plane.
func (p *Plane) Flip() {
	p.Normal = p.Normal.Mul(-1)
	p.W = -p.W
}

// Flipped returns a copy of p with reversed orientation.
func (p Plane) Flipped() Plane {
	p.Flip()
	return p
}

// Distance is the signed distance from v to the plane.
func (p Plane) Distance(v Vector) float64 {
	return p.Normal.Dot(v) - p.W
}

// Classify returns which side of the plane v lies on.
func (p Plane) Classify(v Vertex) Classification {
	d := p.Distance(v.Pos)
	switch {
	case d < -PlaneEpsilon:
		return Back
	case d > PlaneEpsilon:
		return Front
	default:
		return Coplanar
	}
}

// ClassifyPolygon classifies every vertex of poly and returns the per-vertex
// types together with their union.
func (p Plane) ClassifyPolygon(poly *Polygon) ([]Classification, Classification) {
	types := make([]Classification, len(poly.Vertices))
	var all Classification
	for i, v := range poly.Vertices {
		types[i] = p.Classify(v)
		all |= types[i]
	}
	return types, all
}

// SplitForBuild routes poly into exactly one of coplanar, front or back,
// or cuts it into a front and a back piece when it spans the plane.
// Coplanar polygons go to coplanar regardless of facing, since a node keeps
// every polygon lying in its plane.
func (p Plane) SplitForBuild(poly *Polygon, types []Classification, polyType Classification, coplanar, front, back *[]*Polygon) {
	switch polyType {
	case Coplanar:
		*coplanar = append(*coplanar, poly)
	case Front:
		*front = append(*front, poly)
	case Back:
		*back = append(*back, poly)
	default:
		p.cut(poly, types, front, back)
	}
}

// SplitForClip is SplitForBuild without a coplanar bucket: coplanar
// polygons are kept on the front side.
func (p Plane) SplitForClip(poly *Polygon, types []Classification, polyType Classification, front, back *[]*Polygon) {
	switch polyType {
	case Coplanar, Front:
		*front = append(*front, poly)
	case Back:
		*back = append(*back, poly)
	default:
		p.cut(poly, types, front, back)
	}
}

// cut splits a spanning polygon. Each crossing vertex is computed once and
// shared by both halves. Halves with fewer than three vertices are dropped.
func (p Plane) cut(poly *Polygon, types []Classification, front, back *[]*Polygon) {
	n := len(poly.Vertices)
	f := make([]Vertex, 0, n+1)
	b := make([]Vertex, 0, n+1)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		ti, tj := types[i], types[j]
		vi, vj := poly.Vertices[i], poly.Vertices[j]
		if ti != Back {
			f = append(f, vi)
		}
		if ti != Front {
			b = append(b, vi)
		}
		if ti|tj == Spanning {
			t := (p.W - p.Normal.Dot(vi.Pos)) / p.Normal.Dot(vj.Pos.Sub(vi.Pos))
			v := vi.Lerp(vj, t)
			f = append(f, v)
			b = append(b, v)
		}
	}
	if len(f) >= 3 {
		*front = append(*front, poly.derive(f))
	}
	if len(b) >= 3 {
		*back = append(*back, poly.derive(b))
	}
}

// ComparePlanes is a total order over planes used to bucket polygons by
// supporting plane. Planes within eps in every component compare equal.
func ComparePlanes(a, b Plane, eps float64) int {
	if c := CompareVectors(a.Normal, b.Normal, eps); c != 0 {
		return c
	}
	d := a.W - b.W
	if math.Abs(d) <= eps {
		return 0
	}
	if d < 0 {
		return -1
	}
	return 1
}
