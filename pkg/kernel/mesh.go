package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`           // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`            // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`            // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"`           // which scene part this came from
	Warnings []string  `json:"warnings,omitempty"` // non-fatal problems met while building
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// AppendFlat adds a triangle with its own three vertices, all carrying the
// given face normal. Flat shading needs unshared vertices.
func (m *Mesh) AppendFlat(a, b, c, normal [3]float64) {
	base := uint32(m.VertexCount())
	for _, v := range [3][3]float64{a, b, c} {
		m.Vertices = append(m.Vertices, float32(v[0]), float32(v[1]), float32(v[2]))
		m.Normals = append(m.Normals, float32(normal[0]), float32(normal[1]), float32(normal[2]))
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// AppendTriangle is AppendFlat with the normal derived from the winding.
// Triangles with no area get a zero normal.
func (m *Mesh) AppendTriangle(a, b, c [3]float64) {
	m.AppendFlat(a, b, c, FaceNormal(a, b, c))
}

// FaceNormal returns the unit normal of triangle abc by the right-hand rule,
// or the zero vector when the triangle has no area.
func FaceNormal(a, b, c [3]float64) [3]float64 {
	u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float64{}
	}
	return [3]float64{n[0] / l, n[1] / l, n[2] / l}
}

// BoundingBox returns the axis-aligned bounds of the mesh vertices. An
// empty mesh returns zero bounds.
func (m *Mesh) BoundingBox() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for i := 0; i < 3; i++ {
		min[i] = float64(m.Vertices[i])
		max[i] = min[i]
	}
	for j := 0; j+2 < len(m.Vertices); j += 3 {
		for i := 0; i < 3; i++ {
			v := float64(m.Vertices[j+i])
			min[i] = math.Min(min[i], v)
			max[i] = math.Max(max[i], v)
		}
	}
	return min, max
}

// SurfaceArea returns the total area of the mesh triangles.
func (m *Mesh) SurfaceArea() float64 {
	var sum float64
	at := func(i uint32) [3]float64 {
		return [3]float64{float64(m.Vertices[3*i]), float64(m.Vertices[3*i+1]), float64(m.Vertices[3*i+2])}
	}
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := at(m.Indices[t]), at(m.Indices[t+1]), at(m.Indices[t+2])
		u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		v := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		x := u[1]*v[2] - u[2]*v[1]
		y := u[2]*v[0] - u[0]*v[2]
		z := u[0]*v[1] - u[1]*v[0]
		sum += 0.5 * math.Sqrt(x*x+y*y+z*z)
	}
	return sum
}
