package bfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/dexroute/core"
)

// Sentinel errors for BFS execution.
var (
	// ErrSourceNotFound is returned when the source asset is absent.
	ErrSourceNotFound = errors.New("bfs: source asset not found")

	// ErrGraphNil is returned if a nil graph pointer is passed.
	ErrGraphNil = errors.New("bfs: graph is nil")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("bfs: invalid option supplied")

	// ErrUnreached is returned by PathTo for assets outside the search tree.
	ErrUnreached = errors.New("bfs: asset not reached")
)

// Option configures BFS behavior via functional arguments.
// An invalid Option (e.g. negative depth) is recorded internally and
// surfaced as ErrOptionViolation when Walk is invoked.
type Option func(*Options)

// Options holds parameters and callbacks to customize a walk.
type Options struct {
	// Ctx allows cancellation and deadlines.
	Ctx context.Context

	// OnVisit is called when visiting an asset. If it returns an error,
	// the walk aborts and propagates that error.
	OnVisit func(a core.Asset, depth int) error

	// MaxDepth, if > 0, stops exploring beyond this many hops.
	// A value of 0 disables the depth limit.
	MaxDepth int

	// FilterPool can skip pools by returning false.
	FilterPool func(p core.Pool) bool

	err error
}

// DefaultOptions returns background context, no depth limit, no filtering
// and a no-op visit hook.
func DefaultOptions() Options {
	return Options{
		Ctx:        context.Background(),
		OnVisit:    func(core.Asset, int) error { return nil },
		FilterPool: func(core.Pool) bool { return true },
	}
}

// WithContext sets a custom context for cancellation.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		if ctx != nil {
			o.Ctx = ctx
		}
	}
}

// WithOnVisit registers a callback to run on visit; returning an error
// from it stops the walk.
func WithOnVisit(fn func(a core.Asset, depth int) error) Option {
	return func(o *Options) {
		if fn != nil {
			o.OnVisit = fn
		}
	}
}

// WithMaxDepth limits the walk to d hops from the source.
//
//	d > 0: limit to depth d
//	d == 0: no limit
//	d < 0: ErrOptionViolation
func WithMaxDepth(d int) Option {
	return func(o *Options) {
		if d < 0 {
			o.err = fmt.Errorf("%w: MaxDepth cannot be negative (%d)", ErrOptionViolation, d)
			return
		}
		o.MaxDepth = d
	}
}

// WithFilterPool skips pools for which fn returns false.
func WithFilterPool(fn func(p core.Pool) bool) Option {
	return func(o *Options) {
		if fn != nil {
			o.FilterPool = fn
		}
	}
}

// MinLiquidity is a FilterPool that keeps pools with at least min total liquidity.
func MinLiquidity(min float64) func(core.Pool) bool {
	return func(p core.Pool) bool { return p.TotalLiquidity >= min }
}

// Result holds the outcome of a walk:
//   - Order: assets in visit sequence.
//   - Depth: asset → hops from the source.
//   - Parent: asset → the pool that first reached it.
type Result struct {
	Source core.Asset
	Order  []core.Asset
	Depth  map[core.Asset]int
	Parent map[core.Asset]core.Pool
}

// Reachable reports whether a was reached.
func (r *Result) Reachable(a core.Asset) bool {
	_, ok := r.Depth[a]
	return ok
}

// PathTo returns the fewest-hop pool path from the source to dest.
// The path is empty when dest is the source.
func (r *Result) PathTo(dest core.Asset) (core.Path, error) {
	if !r.Reachable(dest) {
		return nil, fmt.Errorf("%w: %s", ErrUnreached, dest)
	}
	var rev core.Path
	for cur := dest; cur != r.Source; {
		p := r.Parent[cur]
		rev = append(rev, p)
		cur = p.From
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}

	return rev, nil
}
