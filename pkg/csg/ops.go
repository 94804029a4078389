package csg

import "errors"

// The boolean operations below work on copies of their inputs. When a
// tree build hits its iteration cap the (degraded) result is still
// returned, alongside an error matching ErrIterationCap.

// Union returns the polygons of the solid covered by a or b.
func Union(a, b []*Polygon, opts ...Option) ([]*Polygon, error) {
	switch {
	case len(a) == 0:
		return clonePolygons(b), nil
	case len(b) == 0:
		return clonePolygons(a), nil
	}
	ta, tb, err := treePair(a, b, opts)
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	tb.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	err = errors.Join(err, ta.Build(tb.AllPolygons()))
	return ta.AllPolygons(), err
}

// Subtract returns the polygons of the solid covered by a but not b.
func Subtract(a, b []*Polygon, opts ...Option) ([]*Polygon, error) {
	switch {
	case len(a) == 0:
		return nil, nil
	case len(b) == 0:
		return clonePolygons(a), nil
	}
	ta, tb, err := treePair(a, b, opts)
	ta.Invert()
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	tb.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	err = errors.Join(err, ta.Build(tb.AllPolygons()))
	ta.Invert()
	return ta.AllPolygons(), err
}

// Intersect returns the polygons of the solid covered by both a and b.
func Intersect(a, b []*Polygon, opts ...Option) ([]*Polygon, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}
	ta, tb, err := treePair(a, b, opts)
	ta.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	err = errors.Join(err, ta.Build(tb.AllPolygons()))
	ta.Invert()
	return ta.AllPolygons(), err
}

func treePair(a, b []*Polygon, opts []Option) (*Node, *Node, error) {
	ta, errA := NewNode(clonePolygons(a), opts...)
	tb, errB := NewNode(clonePolygons(b), opts...)
	return ta, tb, errors.Join(errA, errB)
}
