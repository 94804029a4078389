package csg

import (
	"io"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxBuildIterations caps the number of work items processed while
	// building a tree. Degenerate input (many nearly coplanar polygons) can
	// otherwise keep splitting without bound.
	DefaultMaxBuildIterations = 10000

	// DefaultMaxOptimizeRounds caps the T-junction/merge alternation in
	// AllPolygonsOptimized.
	DefaultMaxOptimizeRounds = 64

	// parallelThreshold is the smallest batch worth fanning out.
	parallelThreshold = 64
)

type config struct {
	workers            int
	maxBuildIterations int
	maxOptimizeRounds  int
	logger             *log.Logger
}

// Option configures a tree or a boolean operation.
type Option func(*config)

// WithWorkers sets how many goroutines classification, clipping and cleanup
// may use. Values below 1 mean one.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = max(n, 1)
	}
}

// WithMaxBuildIterations overrides DefaultMaxBuildIterations.
func WithMaxBuildIterations(n int) Option {
	return func(c *config) {
		c.maxBuildIterations = n
	}
}

// WithMaxOptimizeRounds overrides DefaultMaxOptimizeRounds.
func WithMaxOptimizeRounds(n int) Option {
	return func(c *config) {
		c.maxOptimizeRounds = n
	}
}

// WithLogger sets the logger for degraded-result reports. By default
// nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		workers:            runtime.GOMAXPROCS(0),
		maxBuildIterations: DefaultMaxBuildIterations,
		maxOptimizeRounds:  DefaultMaxOptimizeRounds,
		logger:             log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// parallelFor calls fn for every index in [0, n), splitting the range into
// one chunk per worker. Small ranges run inline.
func parallelFor(workers, n int, fn func(i int)) {
	if workers <= 1 || n < parallelThreshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
