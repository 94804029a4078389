package scene

import "fmt"

// ValidationError describes a single structural problem in a part.
type ValidationError struct {
	Part    string // part the problem was found in
	Path    string // slash-separated node kinds from the root
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("part %q at %s: %s", e.Part, e.Path, e.Message)
}

// Validate checks every part's shape tree and returns the problems found.
// An empty slice means the scene can be tessellated. Validate never mutates
// the scene.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, p := range s.parts {
		if p.Root == nil {
			errs = append(errs, ValidationError{Part: p.Name, Path: "/", Message: "part has no shape"})
			continue
		}
		errs = append(errs, validateNode(p.Name, p.Root, p.Root.Kind.String())...)
	}
	return errs
}

func validateNode(part string, n *Node, path string) []ValidationError {
	var errs []ValidationError
	fail := func(format string, args ...any) {
		errs = append(errs, ValidationError{Part: part, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch n.Kind {
	case NodeBox:
		d, ok := n.Data.(BoxData)
		if !ok {
			fail("box node has unexpected data type %T", n.Data)
			break
		}
		if d.Size.X <= 0 || d.Size.Y <= 0 || d.Size.Z <= 0 {
			fail("box dimensions must be positive, got %vx%vx%v", d.Size.X, d.Size.Y, d.Size.Z)
		}
	case NodeCylinder:
		d, ok := n.Data.(CylinderData)
		if !ok {
			fail("cylinder node has unexpected data type %T", n.Data)
			break
		}
		if d.Height <= 0 || d.Radius <= 0 {
			fail("cylinder height and radius must be positive, got %v and %v", d.Height, d.Radius)
		}
		if d.Segments < 0 {
			fail("cylinder segments must not be negative, got %d", d.Segments)
		}
	case NodeUnion, NodeDifference, NodeIntersection:
		if len(n.Children) == 0 {
			fail("%s needs at least one operand", n.Kind)
		}
	case NodeTransform:
		if _, ok := n.Data.(TransformData); !ok {
			fail("transform node has unexpected data type %T", n.Data)
		}
		if len(n.Children) != 1 {
			fail("transform needs exactly one child, got %d", len(n.Children))
		}
	default:
		fail("unknown node kind %v", n.Kind)
	}

	if !n.Kind.IsBoolean() && n.Kind != NodeTransform && len(n.Children) > 0 {
		fail("%s node must not have children", n.Kind)
	}
	for i, c := range n.Children {
		if c == nil {
			fail("child %d is nil", i)
			continue
		}
		errs = append(errs, validateNode(part, c, fmt.Sprintf("%s/%d:%s", path, i, c.Kind))...)
	}
	return errs
}
