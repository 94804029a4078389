package csg

// Attributes is host data attached to a vertex (texture coordinates,
// normals, colours). The core never inspects it; it only interpolates it
// when an edge is cut.
type Attributes interface {
	Lerp(other Attributes, t float64) Attributes
}

// Vertex is a position plus optional interpolatable attributes.
type Vertex struct {
	Pos  Vector
	Attr Attributes
}

// V is shorthand for a vertex with no attributes.
func V(x, y, z float64) Vertex {
	return Vertex{Pos: Vector{x, y, z}}
}

// Lerp returns the vertex a fraction t of the way from v to other.
func (v Vertex) Lerp(other Vertex, t float64) Vertex {
	out := Vertex{Pos: v.Pos.Add(other.Pos.Sub(v.Pos).Mul(t))}
	if v.Attr != nil && other.Attr != nil {
		out.Attr = v.Attr.Lerp(other.Attr, t)
	}
	return out
}
