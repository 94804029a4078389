// Package bsp implements the kernel.Kernel interface on the polygon BSP
// engine in package csg. Solids are exact polygon boundaries, so booleans
// keep sharp edges and meshes carry no marching-cubes faceting.
package bsp

import (
	"fmt"
	"io"
	"log"
	"math"
	"runtime"

	"github.com/chazu/kerf/pkg/csg"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/meshrepair"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// minTriangleArea is the area below which a fan triangle is skipped. Such
// triangles come from straight-run vertices; the repair pass restores them.
const minTriangleArea = 1e-12

// Config configures a Kernel.
type Config struct {
	Workers            int               // goroutines for tree work; <1 means GOMAXPROCS
	MaxBuildIterations int               // per-tree build cap; <1 means csg default
	Repair             meshrepair.Config // triangle-level T-junction repair in ToMesh
	Logger             *log.Logger       // degraded-result reports; nil discards
}

// DefaultConfig returns the settings New uses for zero fields.
func DefaultConfig() Config {
	return Config{
		Workers:            runtime.GOMAXPROCS(0),
		MaxBuildIterations: csg.DefaultMaxBuildIterations,
		Repair:             meshrepair.DefaultConfig(),
	}
}

// solid is a closed polygon boundary plus any warnings picked up while
// building it.
type solid struct {
	polygons []*csg.Polygon
	warnings []string
}

// BoundingBox returns the axis-aligned bounding box.
func (s *solid) BoundingBox() (min, max [3]float64) {
	first := true
	for _, p := range s.polygons {
		for _, v := range p.Vertices {
			for i := 0; i < 3; i++ {
				if first {
					min[i], max[i] = v.Pos[i], v.Pos[i]
					continue
				}
				min[i] = math.Min(min[i], v.Pos[i])
				max[i] = math.Max(max[i], v.Pos[i])
			}
			first = false
		}
	}
	return min, max
}

// Warnings returns non-fatal problems met while building the solid.
func (s *solid) Warnings() []string {
	return s.warnings
}

// Kernel implements kernel.Kernel on csg BSP trees.
type Kernel struct {
	cfg  Config
	opts []csg.Option
}

// New returns a Kernel. Zero fields of cfg take their DefaultConfig values.
func New(cfg Config) *Kernel {
	def := DefaultConfig()
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.MaxBuildIterations < 1 {
		cfg.MaxBuildIterations = def.MaxBuildIterations
	}
	if cfg.Repair == (meshrepair.Config{}) {
		cfg.Repair = def.Repair
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Kernel{
		cfg: cfg,
		opts: []csg.Option{
			csg.WithWorkers(cfg.Workers),
			csg.WithMaxBuildIterations(cfg.MaxBuildIterations),
			csg.WithLogger(cfg.Logger),
		},
	}
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *solid {
	return s.(*solid)
}

// Polygons returns the boundary polygons of a solid made by a bsp Kernel.
// The polygons must not be modified.
func Polygons(s kernel.Solid) []*csg.Polygon {
	return unwrap(s).polygons
}

// Box creates a box with the given dimensions and its minimum corner at
// the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return &solid{polygons: csg.Cuboid(csg.Vector{}, csg.Vector{x, y, z}, nil)}
}

// Cylinder creates a faceted cylinder centered on the origin along Z.
// Fewer than three segments are raised to three.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	return &solid{polygons: csg.Cylinder(height, radius, segments, nil)}
}

type booleanOp func(a, b []*csg.Polygon, opts ...csg.Option) ([]*csg.Polygon, error)

func (k *Kernel) boolean(name string, op booleanOp, a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	polygons, err := op(sa.polygons, sb.polygons, k.opts...)
	out := &solid{
		polygons: polygons,
		warnings: lo.Uniq(append(append([]string(nil), sa.warnings...), sb.warnings...)),
	}
	if err != nil {
		k.cfg.Logger.Printf("bsp: %s: %v", name, err)
		out.warnings = append(out.warnings, fmt.Sprintf("%s: %v", name, err))
	}
	return out
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return k.boolean("union", csg.Union, a, b)
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return k.boolean("difference", csg.Subtract, a, b)
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return k.boolean("intersection", csg.Intersect, a, b)
}

func (k *Kernel) transform(s kernel.Solid, m mgl64.Mat4) kernel.Solid {
	src := unwrap(s)
	out := &solid{warnings: src.warnings}
	for _, p := range src.polygons {
		q, err := p.Transform(m)
		if err != nil {
			k.cfg.Logger.Printf("bsp: transform dropped a polygon: %v", err)
			continue
		}
		out.polygons = append(out.polygons, q)
	}
	return out
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.transform(s, mgl64.Translate3D(x, y, z))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
// X is applied first, then Y, then Z.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := mgl64.Rotate3DZ(mgl64.DegToRad(z)).
		Mul3(mgl64.Rotate3DY(mgl64.DegToRad(y))).
		Mul3(mgl64.Rotate3DX(mgl64.DegToRad(x)))
	return k.transform(s, m.Mat4())
}

// ToMesh merges coplanar fragments, fan-triangulates every polygon, splits
// triangles at T-junctions with coplanar neighbours and emits a flat-shaded
// mesh. Junctions between triangles in different planes are not repaired,
// so the mesh can still have open edges where a face meets a curved wall.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	if err := k.cfg.Repair.Validate(); err != nil {
		return nil, fmt.Errorf("bsp: to mesh: %w", err)
	}
	src := unwrap(s)
	polygons := csg.OptimizePolygons(src.polygons, k.opts...)
	tris := lo.FlatMap(polygons, func(p *csg.Polygon, _ int) []meshrepair.Triangle {
		return fan(p)
	})
	tris, stats := meshrepair.RepairTriangles(tris, k.cfg.Repair)

	mesh := &kernel.Mesh{Warnings: append([]string(nil), src.warnings...)}
	if stats.Capped {
		msg := fmt.Sprintf("mesh repair stopped after %d passes", stats.Passes)
		k.cfg.Logger.Printf("bsp: %s", msg)
		mesh.Warnings = append(mesh.Warnings, msg)
	}
	for _, t := range tris {
		n, _ := t.Shared.(csg.Vector)
		mesh.AppendFlat(t.Vertices[0], t.Vertices[1], t.Vertices[2], n)
	}
	return mesh, nil
}

// fan triangulates a convex polygon from its first vertex. Each triangle
// carries the polygon's normal for shading.
func fan(p *csg.Polygon) []meshrepair.Triangle {
	var tris []meshrepair.Triangle
	v := p.Vertices
	for i := 1; i+1 < len(v); i++ {
		a, b, c := v[0].Pos, v[i].Pos, v[i+1].Pos
		if b.Sub(a).Cross(c.Sub(a)).Len()/2 < minTriangleArea {
			continue
		}
		tris = append(tris, meshrepair.Triangle{
			Vertices: [3]csg.Vector{a, b, c},
			Shared:   p.Plane.Normal,
		})
	}
	return tris
}
