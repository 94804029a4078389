package csg

import "math"

// cuboidFaces lists the corners of each face. Corner i has x = i&1,
// y = i&2, z = i&4 set to the max side. Loops wind outward.
var cuboidFaces = [6][4]int{
	{0, 4, 6, 2}, // -x
	{1, 3, 7, 5}, // +x
	{0, 1, 5, 4}, // -y
	{2, 6, 7, 3}, // +y
	{0, 2, 3, 1}, // -z
	{4, 5, 7, 6}, // +z
}

// Cuboid returns the six outward-facing quads of the axis-aligned box
// spanning min to max.
func Cuboid(min, max Vector, shared any) []*Polygon {
	corner := func(i int) Vertex {
		v := min
		if i&1 != 0 {
			v[0] = max[0]
		}
		if i&2 != 0 {
			v[1] = max[1]
		}
		if i&4 != 0 {
			v[2] = max[2]
		}
		return Vertex{Pos: v}
	}
	polygons := make([]*Polygon, 0, len(cuboidFaces))
	for _, face := range cuboidFaces {
		vs := make([]Vertex, 4)
		for k, i := range face {
			vs[k] = corner(i)
		}
		if p, err := NewPolygon(vs, shared); err == nil {
			polygons = append(polygons, p)
		}
	}
	return polygons
}

// Cylinder returns a closed, faceted cylinder centred on the origin with
// its axis along Z. Fewer than three segments are raised to three.
func Cylinder(height, radius float64, segments int, shared any) []*Polygon {
	segments = max(segments, 3)
	h := height / 2
	ring := make([]Vector, segments)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / float64(segments)
		ring[i] = Vector{radius * math.Cos(a), radius * math.Sin(a), 0}
	}
	at := func(i int, z float64) Vertex {
		p := ring[i%segments]
		p[2] = z
		return Vertex{Pos: p}
	}

	var polygons []*Polygon
	add := func(vs []Vertex) {
		if p, err := NewPolygon(vs, shared); err == nil {
			polygons = append(polygons, p)
		}
	}

	top := make([]Vertex, segments)
	bottom := make([]Vertex, segments)
	for i := 0; i < segments; i++ {
		top[i] = at(i, h)
		bottom[i] = at(segments-1-i, -h)
	}
	add(bottom)
	add(top)
	for i := 0; i < segments; i++ {
		add([]Vertex{at(i, -h), at(i+1, -h), at(i+1, h), at(i, h)})
	}
	return polygons
}
