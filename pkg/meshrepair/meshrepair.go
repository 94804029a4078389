// Package meshrepair removes T-junctions from triangle soups.
//
// It is independent of the BSP tree in package csg and is meant for final
// export or render meshes: triangles are grouped by supporting plane and,
// within each group, any triangle with a vertex of the group lying on one of
// its edges is split in two at that vertex. The tolerance is far coarser
// than the one used during tree construction.
//
// Junctions are only found between triangles sharing a plane. A vertex that
// lies on an edge of a triangle in a different plane is left alone, so the
// output is not guaranteed to be watertight.
package meshrepair

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/chazu/kerf/pkg/csg"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultEpsilon is the default point-to-edge distance for a vertex to
	// count as lying on an edge.
	DefaultEpsilon = 0.1

	// DefaultMaxPasses bounds the number of full passes over a group.
	DefaultMaxPasses = 1000
)

// ErrInvalidConfig is matched by errors returned from Config.Validate.
var ErrInvalidConfig = errors.New("meshrepair: invalid config")

// Triangle is one face of a mesh. Shared is carried unchanged onto both
// halves when the triangle is split.
type Triangle struct {
	Vertices [3]csg.Vector
	Shared   any
}

// Group is a set of triangles with a common supporting plane.
type Group struct {
	Plane     csg.Plane
	Triangles []Triangle
}

// Config controls a repair run.
type Config struct {
	Epsilon   float64
	MaxPasses int
}

// DefaultConfig returns the default repair settings.
func DefaultConfig() Config {
	return Config{Epsilon: DefaultEpsilon, MaxPasses: DefaultMaxPasses}
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if !(c.Epsilon > 0) || math.IsInf(c.Epsilon, 0) {
		return fmt.Errorf("%w: epsilon must be positive and finite, got %v", ErrInvalidConfig, c.Epsilon)
	}
	if c.MaxPasses <= 0 {
		return fmt.Errorf("%w: max passes must be positive, got %d", ErrInvalidConfig, c.MaxPasses)
	}
	return nil
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.Epsilon <= 0 {
		c.Epsilon = DefaultEpsilon
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = DefaultMaxPasses
	}
	return c
}

// Stats summarizes a repair run.
type Stats struct {
	Passes int  // most passes any group needed, including the final clean pass
	Splits int  // triangles split
	Capped bool // some group still had fixes left when MaxPasses ran out
}

func (s *Stats) merge(o Stats) {
	s.Passes = max(s.Passes, o.Passes)
	s.Splits += o.Splits
	s.Capped = s.Capped || o.Capped
}

// GroupByPlane buckets triangles by supporting plane, in the order each
// plane is first seen. Triangles whose corners do not span a plane are
// returned separately.
func GroupByPlane(tris []Triangle) (groups []Group, degenerate []Triangle) {
	var sorted []int // indices into groups ordered by plane
	for _, tri := range tris {
		plane, err := csg.PlaneFromPoints(tri.Vertices[0], tri.Vertices[1], tri.Vertices[2])
		if err != nil {
			degenerate = append(degenerate, tri)
			continue
		}
		i := sort.Search(len(sorted), func(i int) bool {
			return csg.ComparePlanes(groups[sorted[i]].Plane, plane, csg.EdgeEpsilon) >= 0
		})
		if i < len(sorted) && csg.ComparePlanes(groups[sorted[i]].Plane, plane, csg.EdgeEpsilon) == 0 {
			g := &groups[sorted[i]]
			g.Triangles = append(g.Triangles, tri)
			continue
		}
		groups = append(groups, Group{Plane: plane, Triangles: []Triangle{tri}})
		sorted = append(sorted, 0)
		copy(sorted[i+1:], sorted[i:])
		sorted[i] = len(groups) - 1
	}
	return groups, degenerate
}

// RepairGroup splits triangles of g at T-junctions until a full pass finds
// nothing to fix. Each pass applies at most one split per triangle. The
// input group is not modified.
func RepairGroup(g Group, cfg Config) (Group, Stats) {
	cfg = cfg.withDefaults()
	known := csg.NewVertexSet()
	for _, tri := range g.Triangles {
		for _, v := range tri.Vertices {
			known.Add(v)
		}
	}

	var stats Stats
	tris := append([]Triangle(nil), g.Triangles...)
	for {
		if stats.Passes >= cfg.MaxPasses {
			stats.Capped = true
			break
		}
		stats.Passes++
		out := make([]Triangle, 0, len(tris))
		fixed := 0
		for _, tri := range tris {
			if a, b, ok := splitTriangle(tri, known, cfg.Epsilon); ok {
				out = append(out, a, b)
				fixed++
				continue
			}
			out = append(out, tri)
		}
		tris = out
		if fixed == 0 {
			break
		}
		stats.Splits += fixed
	}
	return Group{Plane: g.Plane, Triangles: tris}, stats
}

// Repair runs RepairGroup over every group concurrently. Output groups are
// in input order.
func Repair(groups []Group, cfg Config) ([]Group, Stats) {
	out := make([]Group, len(groups))
	stats := make([]Stats, len(groups))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, g := range groups {
		eg.Go(func() error {
			out[i], stats[i] = RepairGroup(g, cfg)
			return nil
		})
	}
	_ = eg.Wait()

	var total Stats
	for _, s := range stats {
		total.merge(s)
	}
	return out, total
}

// RepairTriangles groups tris by plane, repairs every group and returns the
// flattened result. Degenerate triangles are passed through at the end.
func RepairTriangles(tris []Triangle, cfg Config) ([]Triangle, Stats) {
	groups, degenerate := GroupByPlane(tris)
	repaired, stats := Repair(groups, cfg)
	out := make([]Triangle, 0, len(tris)+stats.Splits)
	for _, g := range repaired {
		out = append(out, g.Triangles...)
	}
	return append(out, degenerate...), stats
}

// splitTriangle looks for a known vertex strictly inside one of tri's edges
// and splits tri there. The split is rejected when either new edge from the
// vertex (back to the edge start, or across to the opposite corner) would
// itself pass through another known vertex, and when the halves would not
// tile tri: the vertex must not lie beyond the edge, and both halves must
// keep tri's winding.
func splitTriangle(tri Triangle, known *csg.VertexSet, eps float64) (Triangle, Triangle, bool) {
	for _, v := range known.Positions() {
		if isCorner(tri, v) {
			continue
		}
		for i := 0; i < 3; i++ {
			p0, p1, p2 := tri.Vertices[i], tri.Vertices[(i+1)%3], tri.Vertices[(i+2)%3]
			if !onEdge(v, p0, p1, eps) || !tiles(v, p0, p1, p2) {
				continue
			}
			if !edgeIsClean(known, p0, v, eps) || !edgeIsClean(known, v, p2, eps) {
				continue
			}
			a := Triangle{Vertices: [3]csg.Vector{p0, v, p2}, Shared: tri.Shared}
			b := Triangle{Vertices: [3]csg.Vector{v, p1, p2}, Shared: tri.Shared}
			return a, b, true
		}
	}
	return Triangle{}, Triangle{}, false
}

// tiles reports whether splitting triangle (p0, p1, p2) at v on edge p0p1
// gives two halves that cover it without folding. v may sit at most
// csg.EdgeEpsilon outside the edge.
func tiles(v, p0, p1, p2 csg.Vector) bool {
	e := p1.Sub(p0)
	n := e.Cross(p2.Sub(p0))
	if v.Sub(p0).Cross(p2.Sub(p0)).Dot(n) <= 0 || p1.Sub(v).Cross(p2.Sub(v)).Dot(n) <= 0 {
		return false
	}
	in := n.Cross(e)
	return v.Sub(p0).Dot(in) >= -csg.EdgeEpsilon*in.Len()
}

func isCorner(tri Triangle, v csg.Vector) bool {
	for _, c := range tri.Vertices {
		if csg.SameVector(c, v) {
			return true
		}
	}
	return false
}

// onEdge reports whether v is within eps of segment ab and more than eps
// from both endpoints.
func onEdge(v, a, b csg.Vector, eps float64) bool {
	if v.Sub(a).Len() <= eps || v.Sub(b).Len() <= eps {
		return false
	}
	d, _ := csg.DistanceToSegment(v, a, b)
	return d < eps
}

func edgeIsClean(known *csg.VertexSet, a, b csg.Vector, eps float64) bool {
	for _, w := range known.Positions() {
		if onEdge(w, a, b, eps) {
			return false
		}
	}
	return true
}
