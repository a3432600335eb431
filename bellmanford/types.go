// Package bellmanford defines core types and configuration options for the
// constrained, early-terminating Bellman-Ford relaxation over pool graphs.
//
// Options:
//
//	- Source:               starting asset (must be non-empty and present in the graph).
//	- Amount:               input amount at Source; drives every amount-dependent weight.
//	- MaxHops:              longest path (in pools) the solver will build. 0 = unbounded.
//	- MaxIterations:        k_max, number of relaxation rounds. 0 = number of assets.
//	- Timeout:              wall-clock budget; on expiry the best-so-far result is returned.
//	- Limits:               constraint.Limits applied to every candidate edge.
//	- StrictConvergence:    turn an Exhausted result into ErrBudgetExhausted.
//	- RejectNegativeCycles: turn an observed negative cycle into ErrNegativeCycle.
//
// Errors (sentinel):
//
//	- ErrEmptySource, ErrNilGraph, ErrSourceNotFound, ErrTargetNotFound
//	- ErrBadAmount, ErrBadMaxHops, ErrBadMaxIterations, ErrBadTimeout
//	- ErrNoRouteFound, ErrBrokenChain, ErrBudgetExhausted, ErrNegativeCycle
package bellmanford

import (
	"errors"
	"math"
	"time"

	"github.com/katalvlaran/dexroute/constraint"
	"github.com/katalvlaran/dexroute/core"
)

// Sentinel errors returned by the solver and the path reconstructor.
var (
	// ErrEmptySource indicates that no Source option was given.
	ErrEmptySource = errors.New("bellmanford: source asset is empty")

	// ErrNilGraph indicates that a nil *core.Graph was passed.
	ErrNilGraph = errors.New("bellmanford: graph is nil")

	// ErrSourceNotFound indicates that Source is not an asset of the graph.
	ErrSourceNotFound = errors.New("bellmanford: source asset not found in graph")

	// ErrTargetNotFound indicates that the requested target is not an asset of the graph.
	ErrTargetNotFound = errors.New("bellmanford: target asset not found in graph")

	// ErrBadAmount indicates a non-positive or non-finite input amount.
	ErrBadAmount = errors.New("bellmanford: amount must be positive and finite")

	// ErrBadMaxHops indicates MaxHops < 1.
	ErrBadMaxHops = errors.New("bellmanford: MaxHops must be at least 1")

	// ErrBadMaxIterations indicates MaxIterations < 1.
	ErrBadMaxIterations = errors.New("bellmanford: MaxIterations must be at least 1")

	// ErrBadTimeout indicates a non-positive Timeout.
	ErrBadTimeout = errors.New("bellmanford: Timeout must be positive")

	// ErrNoRouteFound indicates distance[target] stayed +Inf.
	ErrNoRouteFound = errors.New("bellmanford: no feasible route to target")

	// ErrBrokenChain indicates a predecessor chain with a cycle or a missing link.
	// It signals a solver bug and must be treated as fatal by callers.
	ErrBrokenChain = errors.New("bellmanford: broken predecessor chain")

	// ErrBudgetExhausted indicates the round or wall-clock budget ran out before convergence.
	// Only returned with StrictConvergence; otherwise Result.State == StateExhausted.
	ErrBudgetExhausted = errors.New("bellmanford: budget exhausted before convergence")

	// ErrNegativeCycle indicates a relaxation that only a negative-weight cycle could explain.
	// Only returned with RejectNegativeCycles; otherwise Result.NegativeCycle is set.
	ErrNegativeCycle = errors.New("bellmanford: negative-weight cycle reachable from source")
)

// State is the solver's lifecycle: Initialized → Relaxing → {Converged | Exhausted}.
type State int

const (
	// StateInitialized: distances set, no round run yet.
	StateInitialized State = iota
	// StateRelaxing: rounds in progress.
	StateRelaxing
	// StateConverged: a round produced no improvement, or MaxHops was reached.
	StateConverged
	// StateExhausted: round or time budget ran out first; distances are best-so-far.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRelaxing:
		return "relaxing"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Options configures the solver. See the package comment for field semantics.
type Options struct {
	Source               core.Asset
	Amount               float64
	MaxHops              int
	MaxIterations        int
	Timeout              time.Duration
	Limits               constraint.Limits
	StrictConvergence    bool
	RejectNegativeCycles bool
}

// Option represents a functional option for configuring the solver.
type Option func(*Options)

// Source sets the starting asset. Required.
func Source(a core.Asset) Option {
	return func(o *Options) {
		o.Source = a
	}
}

// Amount sets the input amount at Source. Required; validated by Solve.
func Amount(x float64) Option {
	return func(o *Options) {
		o.Amount = x
	}
}

// WithMaxHops bounds path length in pools. Panics if n < 1.
func WithMaxHops(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic(ErrBadMaxHops.Error())
		}
		o.MaxHops = n
	}
}

// WithMaxIterations sets k_max. Panics if n < 1.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic(ErrBadMaxIterations.Error())
		}
		o.MaxIterations = n
	}
}

// WithTimeout sets a wall-clock budget for the whole search. Panics if d ≤ 0.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d <= 0 {
			panic(ErrBadTimeout.Error())
		}
		o.Timeout = d
	}
}

// WithLimits replaces the per-edge constraint limits.
func WithLimits(l constraint.Limits) Option {
	return func(o *Options) {
		o.Limits = l
	}
}

// WithConstraints applies constraint options on top of the current limits.
func WithConstraints(opts ...constraint.Option) Option {
	return func(o *Options) {
		for _, opt := range opts {
			opt(&o.Limits)
		}
	}
}

// WithStrictConvergence makes an exhausted search fail with ErrBudgetExhausted.
func WithStrictConvergence() Option {
	return func(o *Options) {
		o.StrictConvergence = true
	}
}

// WithRejectNegativeCycles makes a detected negative cycle fail with ErrNegativeCycle.
func WithRejectNegativeCycles() Option {
	return func(o *Options) {
		o.RejectNegativeCycles = true
	}
}

// DefaultOptions returns Options initialized with defaults for source.
//
// Defaults:
//   - Amount:        0 (must be set).
//   - MaxHops:       0 (unbounded; loop-freedom still caps paths at |V|-1 pools).
//   - MaxIterations: 0 (resolved to the number of assets).
//   - Timeout:       0 (none).
//   - Limits:        constraint.DefaultLimits().
func DefaultOptions(source core.Asset) Options {
	return Options{
		Source: source,
		Limits: constraint.DefaultLimits(),
	}
}

// Node identifies a label: Asset reached by a path of exactly Hops pools.
type Node struct {
	Asset core.Asset
	Hops  int
}

// Predecessor is the pool that created a label. The label it extends is
// Node{From, Hops-1}.
type Predecessor struct {
	From core.Asset
	Pool core.Pool
}

// Result holds the final search state plus observability metadata.
//
// Dist, Amounts and Hops describe the best label of each asset. Walking Prev
// from Node{a, Hops[a]} visits exactly Hops[a] pools back to Source; every
// pool on that chain passed the constraint check at the amount arriving
// along the same chain, and the chain compounds to Dist[a] and Amounts[a].
// route.Build re-prices a reconstructed path and relies on this.
type Result struct {
	Source core.Asset
	Amount float64
	State  State

	Iterations    int  // rounds run; round k creates the labels of k hops
	Relaxations   int  // labels created
	PrunedEdges   int  // edge evaluations rejected by the constraint checker
	HopLimited    int  // pools left unexplored when MaxHops stopped the search
	NegativeCycle bool // an improving relaxation was refused to keep paths loop-free

	Dist    map[core.Asset]float64 // cumulative weight; +Inf if unreached
	Amounts map[core.Asset]float64 // trial flow arriving at each asset
	Hops    map[core.Asset]int     // pools on the best-known path
	Prev    map[Node]Predecessor   // every label kept, best or not; none for Source
}

// Reachable reports whether a has a finite distance.
func (r *Result) Reachable(a core.Asset) bool {
	d, ok := r.Dist[a]

	return ok && !math.IsInf(d, 1)
}

// Converged reports whether the search terminated early with no improvement.
func (r *Result) Converged() bool {
	return r.State == StateConverged
}
