package scene

// Vec3 is a 3D vector. Lengths are in mm, angles in degrees.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// NodeKind enumerates the operations a shape node performs.
type NodeKind int

const (
	NodeBox          NodeKind = iota // axis-aligned box, min corner at origin
	NodeCylinder                     // Z-axis cylinder centred on origin
	NodeUnion                        // union of all children
	NodeDifference                   // first child minus the rest
	NodeIntersection                 // intersection of all children
	NodeTransform                    // rotation then translation of one child
)

func (k NodeKind) String() string {
	switch k {
	case NodeBox:
		return "box"
	case NodeCylinder:
		return "cylinder"
	case NodeUnion:
		return "union"
	case NodeDifference:
		return "difference"
	case NodeIntersection:
		return "intersection"
	case NodeTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// IsBoolean reports whether k combines several children.
func (k NodeKind) IsBoolean() bool {
	return k == NodeUnion || k == NodeDifference || k == NodeIntersection
}

// Node is one operation in a part's shape tree. Nodes are immutable once
// handed to a Scene.
type Node struct {
	Kind     NodeKind `json:"kind"`
	Children []*Node  `json:"children,omitempty"`
	Data     NodeData `json:"data,omitempty"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// BoxData sizes a box.
type BoxData struct {
	Size Vec3 `json:"size"`
}

func (BoxData) nodeData() {}

// CylinderData sizes a cylinder. Segments is a facet hint; smooth kernels
// ignore it.
type CylinderData struct {
	Height   float64 `json:"height"`
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

func (CylinderData) nodeData() {}

// TransformData moves a child. Rotation is applied before Translation.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// DefaultSegments is the cylinder facet count used when none is given.
const DefaultSegments = 32

// Box returns a box node.
func Box(size Vec3) *Node {
	return &Node{Kind: NodeBox, Data: BoxData{Size: size}}
}

// Cylinder returns a cylinder node. A segments value of zero means
// DefaultSegments.
func Cylinder(height, radius float64, segments int) *Node {
	if segments == 0 {
		segments = DefaultSegments
	}
	return &Node{Kind: NodeCylinder, Data: CylinderData{Height: height, Radius: radius, Segments: segments}}
}

// Union returns a node covering all children.
func Union(children ...*Node) *Node {
	return &Node{Kind: NodeUnion, Children: children}
}

// Difference returns a node covering the first child minus all others.
func Difference(children ...*Node) *Node {
	return &Node{Kind: NodeDifference, Children: children}
}

// Intersection returns a node covering what all children share.
func Intersection(children ...*Node) *Node {
	return &Node{Kind: NodeIntersection, Children: children}
}

// Translate returns child moved by v.
func Translate(child *Node, v Vec3) *Node {
	return &Node{Kind: NodeTransform, Children: []*Node{child}, Data: TransformData{Translation: &v}}
}

// Rotate returns child rotated by Euler angles v (degrees).
func Rotate(child *Node, v Vec3) *Node {
	return &Node{Kind: NodeTransform, Children: []*Node{child}, Data: TransformData{Rotation: &v}}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	c := 1
	for _, child := range n.Children {
		c += child.Count()
	}
	return c
}
