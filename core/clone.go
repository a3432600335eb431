// File: clone.go
// Role: Copy-on-write derivations of a Graph (Clone, Consume).
// Determinism:
//   - Clones carry nextPoolID and insertion order, so auto IDs and iteration order match the source.
// Concurrency:
//   - Read lock on the source only; the clone is private to the caller until returned.

package core

import (
	"fmt"
	"math"
)

// Clone returns a deep copy of the Graph: configuration, assets, pools and order.
//
// Complexity: O(V + E)
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	clone := &Graph{
		allowMulti: g.allowMulti,
		adjuster:   g.adjuster,
		nextPoolID: g.nextPoolID,
		assets:     make(map[Asset]struct{}, len(g.assets)),
		pools:      make(map[string]*Pool, len(g.pools)),
		order:      append([]string(nil), g.order...),
		outgoing:   make(map[Asset][]string, len(g.outgoing)),
		pairs:      make(map[[2]Asset]string, len(g.pairs)),
	}
	for a := range g.assets {
		clone.assets[a] = struct{}{}
	}
	for id, p := range g.pools {
		cp := *p
		clone.pools[id] = &cp
	}
	for a, ids := range g.outgoing {
		clone.outgoing[a] = append([]string(nil), ids...)
	}
	for k, v := range g.pairs {
		clone.pairs[k] = v
	}

	return clone
}

// Consume returns a copy of g in which pool id has absorbed a trade of `in`
// From-units that paid out `out` To-units:
//
//   - TotalLiquidity decreases by in (floored at zero);
//   - ReserveIn grows by in and ReserveOut shrinks by out (floored at zero)
//     when the pool carries reserves.
//
// A pool drained to zero liquidity stays in the graph; the constraint layer
// prunes it. The receiver is never modified.
//
// Errors: ErrPoolNotFound, ErrBadAmount.
// Complexity: O(V + E) for the copy.
func (g *Graph) Consume(id string, in, out float64) (*Graph, error) {
	if in < 0 || out < 0 || math.IsNaN(in) || math.IsNaN(out) || math.IsInf(in, 0) || math.IsInf(out, 0) {
		return nil, fmt.Errorf("%w: in=%g out=%g", ErrBadAmount, in, out)
	}
	if _, ok := g.Pool(id); !ok {
		return nil, fmt.Errorf("%w: %q", ErrPoolNotFound, id)
	}

	clone := g.Clone()
	p := clone.pools[id]
	p.TotalLiquidity = math.Max(0, p.TotalLiquidity-in)
	if p.HasReserves() {
		p.ReserveIn += in
		p.ReserveOut = math.Max(0, p.ReserveOut-out)
	}

	return clone, nil
}
