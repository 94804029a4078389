package csg

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrIterationCap is matched by the error returned when tree construction
// stops early because it reached its iteration cap.
var ErrIterationCap = errors.New("csg: build iteration cap reached")

// IterationCapError reports a partially built tree. The tree is still
// usable; the polygons still queued when the cap was hit are missing.
type IterationCapError struct {
	Limit           int // iteration cap in effect
	PendingItems    int // work items left on the stack
	DroppedPolygons int // polygons in those work items
}

func (e *IterationCapError) Error() string {
	return fmt.Sprintf("csg: build stopped after %d iterations, %d polygons in %d work items dropped",
		e.Limit, e.DroppedPolygons, e.PendingItems)
}

func (e *IterationCapError) Unwrap() error {
	return ErrIterationCap
}

// Node is a BSP tree node. A node with no plane is an empty leaf. Its
// polygons all lie in its plane, facing either way; everything else lives
// in the front or back subtree.
//
// A tree owns the polygons handed to it: Invert and ClipTo modify them in
// place.
type Node struct {
	plane    *Plane
	front    *Node
	back     *Node
	polygons []*Polygon
	cfg      *config
}

// NewNode builds a tree from polygons. When the build hits its iteration
// cap, the partial tree is returned together with an *IterationCapError.
func NewNode(polygons []*Polygon, opts ...Option) (*Node, error) {
	n := &Node{cfg: newConfig(opts)}
	if err := n.Build(polygons); err != nil {
		return n, err
	}
	return n, nil
}

func (n *Node) child() *Node {
	return &Node{cfg: n.cfg}
}

// Plane returns the node's splitting plane; ok is false for an empty leaf.
func (n *Node) Plane() (plane Plane, ok bool) {
	if n.plane == nil {
		return Plane{}, false
	}
	return *n.plane, true
}

// Front returns the front subtree, or nil.
func (n *Node) Front() *Node { return n.front }

// Back returns the back subtree, or nil.
func (n *Node) Back() *Node { return n.back }

// Polygons returns the polygons lying in this node's plane.
func (n *Node) Polygons() []*Polygon { return n.polygons }

type buildItem struct {
	node     *Node
	polygons []*Polygon
}

// Build adds polygons to the tree. Work is driven from an explicit stack
// so stack depth does not grow with tree depth.
func (n *Node) Build(polygons []*Polygon) error {
	if len(polygons) == 0 {
		return nil
	}
	stack := []buildItem{{node: n, polygons: polygons}}
	for iter := 0; len(stack) > 0; iter++ {
		if iter >= n.cfg.maxBuildIterations {
			err := &IterationCapError{Limit: n.cfg.maxBuildIterations, PendingItems: len(stack)}
			for _, it := range stack {
				err.DroppedPolygons += len(it.polygons)
			}
			n.cfg.logger.Printf("csg: %v", err)
			return err
		}
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, item.node.build(item.polygons)...)
	}
	return nil
}

// build partitions polygons against this node and returns the child work
// items, back first so the front subtree is popped first.
func (n *Node) build(polygons []*Polygon) []buildItem {
	if n.plane == nil {
		p := polygons[0].Plane
		n.plane = &p
	}
	classes := n.classify(polygons)
	var front, back []*Polygon
	for i, poly := range polygons {
		n.plane.SplitForBuild(poly, classes[i].types, classes[i].kind, &n.polygons, &front, &back)
	}

	var items []buildItem
	if len(back) > 0 {
		if n.back == nil {
			n.back = n.child()
		}
		items = append(items, buildItem{node: n.back, polygons: back})
	}
	if len(front) > 0 {
		if n.front == nil {
			n.front = n.child()
		}
		items = append(items, buildItem{node: n.front, polygons: front})
	}
	return items
}

type classified struct {
	types []Classification
	kind  Classification
}

// classify computes every polygon's classification against the node's
// plane. Order of computation is free; results are indexed like the input.
func (n *Node) classify(polygons []*Polygon) []classified {
	out := make([]classified, len(polygons))
	plane := *n.plane
	parallelFor(n.cfg.workers, len(polygons), func(i int) {
		out[i].types, out[i].kind = plane.ClassifyPolygon(polygons[i])
	})
	return out
}

func (n *Node) splitForClip(polygons []*Polygon) (front, back []*Polygon) {
	classes := n.classify(polygons)
	for i, poly := range polygons {
		n.plane.SplitForClip(poly, classes[i].types, classes[i].kind, &front, &back)
	}
	return front, back
}

// Invert turns the solid inside out: every polygon and plane is flipped and
// front and back subtrees trade places.
func (n *Node) Invert() {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.plane == nil {
			if len(cur.polygons) > 0 {
				panic("csg: invert: node holds polygons but has no plane")
			}
			continue
		}
		for _, p := range cur.polygons {
			p.Flip()
		}
		cur.plane.Flip()
		cur.front, cur.back = cur.back, cur.front
		if cur.front != nil {
			stack = append(stack, cur.front)
		}
		if cur.back != nil {
			stack = append(stack, cur.back)
		}
	}
}

// clipFrame is one entry of the ClipPolygons stack machine. Descending
// frames carry a node and its input; ascending frames merge the two
// results their children left on the result stack.
type clipFrame struct {
	node     *Node
	polygons []*Polygon
	ascend   bool
}

// ClipPolygons removes the parts of polygons that are inside this tree's
// solid. Coplanar pieces are kept. An empty tree returns the input as is.
// The receiver is only read, so concurrent calls on one tree are safe.
func (n *Node) ClipPolygons(polygons []*Polygon) []*Polygon {
	if n.plane == nil {
		return polygons
	}
	stack := []clipFrame{{node: n, polygons: polygons}}
	var results [][]*Polygon
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.ascend {
			front := results[len(results)-1]
			back := results[len(results)-2]
			results = append(results[:len(results)-2], append(front, back...))
			continue
		}
		if f.node == nil || f.node.plane == nil || len(f.polygons) == 0 {
			results = append(results, f.polygons)
			continue
		}

		front, back := f.node.splitForClip(f.polygons)
		stack = append(stack, clipFrame{ascend: true}, clipFrame{node: f.node.front, polygons: front})
		if f.node.back != nil {
			stack = append(stack, clipFrame{node: f.node.back, polygons: back})
		} else {
			// Nothing behind this plane refines the back half: it is inside.
			stack = append(stack, clipFrame{})
		}
	}
	return results[0]
}

// ClipTo removes every polygon of this tree that lies inside bsp. Nodes are
// clipped in parallel batches of up to the configured worker count; each
// batch is joined before its children are visited. bsp must not be n.
func (n *Node) ClipTo(bsp *Node) {
	workers := max(n.cfg.workers, 1)
	stack := []*Node{n}
	for len(stack) > 0 {
		k := min(workers, len(stack))
		batch := make([]*Node, k)
		copy(batch, stack[len(stack)-k:])
		stack = stack[:len(stack)-k]

		if k == 1 {
			batch[0].polygons = bsp.ClipPolygons(batch[0].polygons)
		} else {
			var g errgroup.Group
			for _, node := range batch {
				g.Go(func() error {
					node.polygons = bsp.ClipPolygons(node.polygons)
					return nil
				})
			}
			_ = g.Wait()
		}

		for i := len(batch) - 1; i >= 0; i-- {
			if b := batch[i].back; b != nil {
				stack = append(stack, b)
			}
			if f := batch[i].front; f != nil {
				stack = append(stack, f)
			}
		}
	}
}

// AllPolygons collects the polygons of every node in pre-order.
func (n *Node) AllPolygons() []*Polygon {
	var out []*Polygon
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.polygons...)
		if cur.back != nil {
			stack = append(stack, cur.back)
		}
		if cur.front != nil {
			stack = append(stack, cur.front)
		}
	}
	return out
}

// AllPolygonsOptimized returns copies of the tree's polygons with
// T-junctions fixed and coplanar neighbours merged. The tree is unchanged.
func (n *Node) AllPolygonsOptimized() []*Polygon {
	return optimize(n.AllPolygons(), n.cfg)
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	type pair struct{ src, dst *Node }
	root := n.child()
	stack := []pair{{n, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.src.plane != nil {
			pl := *p.src.plane
			p.dst.plane = &pl
		}
		p.dst.polygons = clonePolygons(p.src.polygons)
		if p.src.front != nil {
			p.dst.front = n.child()
			stack = append(stack, pair{p.src.front, p.dst.front})
		}
		if p.src.back != nil {
			p.dst.back = n.child()
			stack = append(stack, pair{p.src.back, p.dst.back})
		}
	}
	return root
}

func clonePolygons(polygons []*Polygon) []*Polygon {
	out := make([]*Polygon, len(polygons))
	for i, p := range polygons {
		out[i] = p.Clone()
	}
	return out
}
