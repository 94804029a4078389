package csg

import (
	"sort"

	"github.com/samber/lo"
)

// OptimizePolygons runs the AllPolygonsOptimized cleanup on an arbitrary
// polygon list. The input polygons are not modified.
func OptimizePolygons(polygons []*Polygon, opts ...Option) []*Polygon {
	return optimize(polygons, newConfig(opts))
}

// bucket holds polygons sharing a supporting plane.
type bucket struct {
	plane    Plane
	polygons []*Polygon
}

// groupByPlane buckets polygons by plane in first-seen order.
func groupByPlane(polygons []*Polygon) []*bucket {
	var sorted, order []*bucket
	for _, p := range polygons {
		i := sort.Search(len(sorted), func(i int) bool {
			return ComparePlanes(sorted[i].plane, p.Plane, EdgeEpsilon) >= 0
		})
		if i < len(sorted) && ComparePlanes(sorted[i].plane, p.Plane, EdgeEpsilon) == 0 {
			sorted[i].polygons = append(sorted[i].polygons, p)
			continue
		}
		b := &bucket{plane: p.Plane, polygons: []*Polygon{p}}
		sorted = append(sorted, nil)
		copy(sorted[i+1:], sorted[i:])
		sorted[i] = b
		order = append(order, b)
	}
	return order
}

// optimize alternates T-junction repair (phase A) with coplanar merging
// and straight-run cleanup (phase B) until neither changes anything. There
// is no proof that this converges quickly, so the rounds are capped.
func optimize(polygons []*Polygon, cfg *config) []*Polygon {
	buckets := groupByPlane(clonePolygons(polygons))

	for round := 0; ; round++ {
		if round >= cfg.maxOptimizeRounds {
			cfg.logger.Printf("csg: optimize stopped after %d rounds", round)
			break
		}
		for fixTJunctions(buckets, cfg) > 0 {
		}
		merged := 0
		for _, b := range buckets {
			merged += mergeBucket(b)
		}
		removed := removeInterpolated(flatten(buckets), cfg)
		if merged == 0 && removed == 0 {
			break
		}
	}

	out := flatten(buckets)
	removeInterpolated(out, cfg)
	return out
}

func flatten(buckets []*bucket) []*Polygon {
	return lo.FlatMap(buckets, func(b *bucket, _ int) []*Polygon {
		return b.polygons
	})
}

// fixTJunctions runs one phase A pass over every bucket and returns the
// number of vertices inserted.
func fixTJunctions(buckets []*bucket, cfg *config) int {
	fixes := make([]int, len(buckets))
	parallelFor(cfg.workers, len(buckets), func(i int) {
		fixes[i] = fixBucket(buckets[i])
	})
	return lo.Sum(fixes)
}

// fixBucket fixes T-junctions between every ordered pair of polygons in b.
// A fixed polygon replaces the original and is retried against the same
// neighbour, since one edge may hold several junctions.
func fixBucket(b *bucket) int {
	known := NewVertexSet()
	for _, p := range b.polygons {
		known.AddPolygon(p)
	}
	fixes := 0
	for i := 0; i < len(b.polygons); i++ {
		for j := 0; j < len(b.polygons); j++ {
			if i == j {
				continue
			}
			if fixed := b.polygons[i].FindAndFixTJunction(b.polygons[j], known); fixed != nil {
				b.polygons[i] = fixed
				fixes++
				j--
			}
		}
	}
	return fixes
}

// mergeBucket unifies polygon pairs in b until no pair merges, restarting
// the scan after every merge. It returns the number of merges.
func mergeBucket(b *bucket) int {
	merges := 0
	for {
		i, j, u := findMerge(b.polygons)
		if u == nil {
			return merges
		}
		rest := make([]*Polygon, 0, len(b.polygons)-1)
		for k, p := range b.polygons {
			if k != i && k != j {
				rest = append(rest, p)
			}
		}
		b.polygons = append(rest, u)
		merges++
	}
}

func findMerge(polygons []*Polygon) (int, int, *Polygon) {
	for i := 0; i < len(polygons); i++ {
		for j := i + 1; j < len(polygons); j++ {
			if u := polygons[i].Unify(polygons[j]); u != nil {
				return i, j, u
			}
		}
	}
	return -1, -1, nil
}

// removeInterpolated drops straight-run vertices from every polygon in
// parallel. A vertex that is a corner of any polygon is kept everywhere,
// otherwise removing it would reopen a T-junction on the neighbour that
// needs it.
func removeInterpolated(polygons []*Polygon, cfg *config) int {
	pinned := NewVertexSet()
	for _, p := range polygons {
		p.corners(pinned)
	}
	removed := make([]int, len(polygons))
	parallelFor(cfg.workers, len(polygons), func(i int) {
		removed[i] = polygons[i].removeInterpolated(pinned)
	})
	return lo.Sum(removed)
}
