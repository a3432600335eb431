// Package bellmanford implements a bounded, early-terminating Bellman-Ford
// relaxation over pool graphs whose edge weights depend on the trade amount.
//
// Round k extends the labels created in round k-1 by one pool each, so every
// label created in round k describes a path of exactly k pools. For a pool
// (u→v) leaving such a label, the trial amount at u (the flow arriving along
// that label's chain, or the request amount at Source) is checked by the
// constraint package; infeasible pools are pruned for this round. Feasible
// pools are priced by the rate package and produce a label for v when
// dist + weight beats every label v already has.
//
// Complexity:
//
//   - Time:  O(k · E · L) where k ≤ MaxIterations rounds and L ≤ MaxHops is the
//     loop-freedom walk along u's predecessor chain; in practice k ≪ V.
//   - Space: O(V · k) for the labels, O(V) for the per-asset best values.
//
// Notes on implementation choices:
//
//   - Labels are never modified once their round ends. A later, better label
//     for u does not rewrite the chains already extended from an older one,
//     so each chain keeps the hop count and the amounts it was checked at.
//   - A label for v is refused when v already lies on u's chain. This keeps
//     every reconstructed path loop-free even when the graph contains
//     negative cycles, and such a refusal is reported as Result.NegativeCycle.
//   - Source is never re-entered; its distance stays 0.
//   - A round that creates no label ends the search (StateConverged), as does
//     reaching MaxHops. Running out of rounds or wall-clock time ends it with
//     StateExhausted and best-so-far distances, which is not an error unless
//     StrictConvergence is set.
package bellmanford

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/rate"
)

// improvementEpsilon absorbs float noise so equal-weight paths do not flip-flop.
const improvementEpsilon = 1e-12

// Solve runs the relaxation from Options.Source over g.
//
// Preconditions and validation (in order):
//  1. Source must be non-empty (ErrEmptySource).
//  2. g must be non-nil (ErrNilGraph).
//  3. g must contain Source (ErrSourceNotFound).
//  4. Amount must be positive and finite (ErrBadAmount).
//
// On success the Result is always returned, also alongside ErrBudgetExhausted
// and ErrNegativeCycle so callers can inspect the partial state.
func Solve(ctx context.Context, g *core.Graph, opts ...Option) (*Result, error) {
	// 1) Build Options
	cfg := DefaultOptions("")
	for _, opt := range opts {
		opt(&cfg)
	}

	// 2) Validate
	if cfg.Source == "" {
		return nil, ErrEmptySource
	}
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.HasAsset(cfg.Source) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, cfg.Source)
	}
	if !(cfg.Amount > 0) || math.IsInf(cfg.Amount, 1) {
		return nil, fmt.Errorf("%w: %g", ErrBadAmount, cfg.Amount)
	}

	// 3) Budget: wall clock through ctx, rounds through kMax.
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	assets := g.Assets()
	r := &runner{
		options: cfg,
		pools:   g.Pools(),
		res: &Result{
			Source:  cfg.Source,
			Amount:  cfg.Amount,
			Dist:    make(map[core.Asset]float64, len(assets)),
			Amounts: make(map[core.Asset]float64, len(assets)),
			Hops:    make(map[core.Asset]int, len(assets)),
			Prev:    make(map[Node]Predecessor, len(assets)),
		},
	}
	r.kMax = cfg.MaxIterations
	if r.kMax == 0 {
		r.kMax = max(1, len(assets))
	}

	// 4) Initialize and run.
	r.process(ctx, r.init(assets))

	if cfg.RejectNegativeCycles && r.res.NegativeCycle {
		return r.res, fmt.Errorf("%w: detected after %d rounds", ErrNegativeCycle, r.res.Iterations)
	}
	if cfg.StrictConvergence && r.res.State == StateExhausted {
		return r.res, fmt.Errorf("%w: %d rounds", ErrBudgetExhausted, r.res.Iterations)
	}

	return r.res, nil
}

// runner holds the mutable state for a single Solve execution.
type runner struct {
	options Options     // validated configuration
	pools   []core.Pool // snapshot of edges, insertion order
	kMax    int         // round budget
	res     *Result     // search state, returned to the caller
}

// label is the search state of one Node while it sits on the frontier.
type label struct {
	dist   float64
	amount float64
}

// init sets dist[v] = +Inf for all v and dist[Source] = 0 with the full amount.
func (r *runner) init(assets []core.Asset) map[core.Asset]label {
	for _, a := range assets {
		r.res.Dist[a] = math.Inf(1)
	}
	src := r.options.Source
	r.res.Dist[src] = 0
	r.res.Amounts[src] = r.options.Amount
	r.res.Hops[src] = 0
	r.res.State = StateInitialized

	return map[core.Asset]label{src: {dist: 0, amount: r.options.Amount}}
}

// process runs rounds until one creates no label, MaxHops is reached, the
// round budget is spent, or ctx is done.
func (r *runner) process(ctx context.Context, frontier map[core.Asset]label) {
	r.res.State = StateRelaxing
	for {
		if ctx.Err() != nil {
			r.res.State = StateExhausted
			return
		}
		if r.options.MaxHops > 0 && r.res.Iterations >= r.options.MaxHops {
			r.countHopLimited(frontier)
			r.res.State = StateConverged
			return
		}
		if r.res.Iterations >= r.kMax {
			r.res.State = StateExhausted
			return
		}
		r.res.Iterations++
		frontier = r.round(frontier, r.res.Iterations)
		if len(frontier) == 0 {
			r.res.State = StateConverged
			return
		}
	}
}

// round extends every frontier label by one pool and returns the labels of
// depth hops that improved on their asset's best distance.
func (r *runner) round(frontier map[core.Asset]label, hops int) map[core.Asset]label {
	next := make(map[core.Asset]label)
	for _, p := range r.pools {
		u, v := p.From, p.To
		lu, ok := frontier[u]
		if !ok {
			continue
		}

		if verdict := r.options.Limits.Check(p, lu.amount); !verdict.Feasible {
			r.res.PrunedEdges++
			continue
		}
		view, err := rate.Quote(p, lu.amount)
		if err != nil {
			r.res.PrunedEdges++
			continue
		}

		// Dist[v] already holds the best over earlier rounds and this one.
		nd := lu.dist + view.Weight
		if !(nd < r.res.Dist[v]-improvementEpsilon) {
			continue
		}
		// Source sits on every chain, so a profitable way back lands here too.
		if r.onChain(Node{Asset: u, Hops: hops - 1}, v) {
			r.res.NegativeCycle = true
			continue
		}

		next[v] = label{dist: nd, amount: view.Output}
		r.res.Dist[v] = nd
		r.res.Amounts[v] = view.Output
		r.res.Hops[v] = hops
		r.res.Prev[Node{Asset: v, Hops: hops}] = Predecessor{From: u, Pool: p}
		r.res.Relaxations++
	}

	return next
}

// countHopLimited records the pools a MaxHops stop leaves unexplored.
func (r *runner) countHopLimited(frontier map[core.Asset]label) {
	for _, p := range r.pools {
		if _, ok := frontier[p.From]; ok {
			r.res.HopLimited++
		}
	}
}

// onChain reports whether v lies on the predecessor chain from n back to
// Source. A chain with a missing link is treated as containing v so the
// caller refuses the update.
func (r *runner) onChain(n Node, v core.Asset) bool {
	for cur := n; ; {
		if cur.Asset == v {
			return true
		}
		if cur.Hops == 0 {
			return cur.Asset != r.options.Source
		}
		pred, ok := r.res.Prev[cur]
		if !ok {
			return true
		}
		cur = Node{Asset: pred.From, Hops: cur.Hops - 1}
	}
}
