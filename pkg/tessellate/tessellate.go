// Package tessellate walks a scene and produces triangle meshes using a
// geometry kernel. One mesh is produced per part.
package tessellate

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/scene"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidScene is returned when a scene fails validation.
var ErrInvalidScene = errors.New("tessellate: invalid scene")

type options struct {
	workers int
}

// Option configures Tessellate.
type Option func(*options)

// WithWorkers bounds how many parts are built at once. Values below 1
// mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Tessellate builds every part of the scene and returns one triangle mesh
// per part, in definition order. The scene is validated first and never
// mutated. Parts are built concurrently, so the kernel must tolerate
// concurrent calls on independent solids.
func Tessellate(s *scene.Scene, k kernel.Kernel, opts ...Option) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	if errs := scene.Validate(s); len(errs) > 0 {
		msgs := lo.Map(errs, func(e scene.ValidationError, _ int) string { return e.Error() })
		return nil, fmt.Errorf("%w: %s", ErrInvalidScene, strings.Join(msgs, "; "))
	}

	parts := s.Parts()
	meshes := make([]*kernel.Mesh, len(parts))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, p := range parts {
		g.Go(func() error {
			solid, err := Build(p.Root, k)
			if err != nil {
				return fmt.Errorf("tessellate: part %q: %w", p.Name, err)
			}
			mesh, err := k.ToMesh(solid)
			if err != nil {
				return fmt.Errorf("tessellate: ToMesh failed for part %q: %w", p.Name, err)
			}
			mesh.PartName = p.Name
			meshes[i] = mesh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}

// Build turns a shape tree into a kernel solid. Booleans fold left over
// their children; transforms apply rotation first, then translation.
func Build(n *scene.Node, k kernel.Kernel) (kernel.Solid, error) {
	if n == nil {
		return nil, fmt.Errorf("nil node")
	}
	switch n.Kind {
	case scene.NodeBox:
		d, ok := n.Data.(scene.BoxData)
		if !ok {
			return nil, fmt.Errorf("box node has unexpected data type %T", n.Data)
		}
		return k.Box(d.Size.X, d.Size.Y, d.Size.Z), nil

	case scene.NodeCylinder:
		d, ok := n.Data.(scene.CylinderData)
		if !ok {
			return nil, fmt.Errorf("cylinder node has unexpected data type %T", n.Data)
		}
		segments := d.Segments
		if segments == 0 {
			segments = scene.DefaultSegments
		}
		return k.Cylinder(d.Height, d.Radius, segments), nil

	case scene.NodeUnion, scene.NodeDifference, scene.NodeIntersection:
		return buildBoolean(n, k)

	case scene.NodeTransform:
		return buildTransform(n, k)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func buildBoolean(n *scene.Node, k kernel.Kernel) (kernel.Solid, error) {
	if len(n.Children) == 0 {
		return nil, fmt.Errorf("%s has no operands", n.Kind)
	}
	acc, err := Build(n.Children[0], k)
	if err != nil {
		return nil, err
	}
	for _, child := range n.Children[1:] {
		next, err := Build(child, k)
		if err != nil {
			return nil, err
		}
		switch n.Kind {
		case scene.NodeUnion:
			acc = k.Union(acc, next)
		case scene.NodeDifference:
			acc = k.Difference(acc, next)
		default:
			acc = k.Intersection(acc, next)
		}
	}
	return acc, nil
}

func buildTransform(n *scene.Node, k kernel.Kernel) (kernel.Solid, error) {
	td, ok := n.Data.(scene.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node has unexpected data type %T", n.Data)
	}
	if len(n.Children) != 1 {
		return nil, fmt.Errorf("transform needs exactly one child, got %d", len(n.Children))
	}
	solid, err := Build(n.Children[0], k)
	if err != nil {
		return nil, err
	}
	if r := td.Rotation; r != nil && !r.IsZero() {
		solid = k.Rotate(solid, r.X, r.Y, r.Z)
	}
	if t := td.Translation; t != nil && !t.IsZero() {
		solid = k.Translate(solid, t.X, t.Y, t.Z)
	}
	return solid, nil
}
