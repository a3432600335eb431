// File: view.go
// Role: Non-mutating graph views (same topology, transformed pool state).
// Determinism:
//   - Preserves pool IDs and insertion order.
// Concurrency:
//   - Read lock on source; result is a fresh graph instance.

package core

import "fmt"

// PoolAdjuster transforms raw pool state into the state a search should see.
// It is the injection point for volatility haircuts, liquidity forecasts and
// similar policies; it must not change From, To or ID.
type PoolAdjuster func(Pool) Pool

// Adjusted returns a new Graph whose pools are fn(pool) for every pool of g.
// A nil fn yields a plain Clone. The adjusted pools are re-validated.
//
// Errors: ErrBadPool (or any Validate error) if fn produced an invalid pool,
// or if fn rewrote the pool's identity.
//
// Complexity: O(V + E)
func (g *Graph) Adjusted(fn PoolAdjuster) (*Graph, error) {
	out := g.Clone()
	if fn == nil {
		return out, nil
	}

	for _, id := range out.order {
		orig := out.pools[id]
		adj := fn(*orig)
		if adj.ID != orig.ID || adj.From != orig.From || adj.To != orig.To {
			return nil, fmt.Errorf("%w: adjuster changed identity of pool %q", ErrBadPool, id)
		}
		if err := adj.Validate(); err != nil {
			return nil, fmt.Errorf("adjusting pool %q: %w", id, err)
		}
		*orig = adj
	}

	return out, nil
}

// LiquidityHaircut scales TotalLiquidity, MaxTradeSize and reserves by
// (1 - fraction). fraction is clamped to [0, 0.99].
func LiquidityHaircut(fraction float64) PoolAdjuster {
	f := 1 - clamp(fraction, 0, 0.99)

	return func(p Pool) Pool {
		p.TotalLiquidity *= f
		p.MaxTradeSize *= f
		if p.MinTradeSize > p.MaxTradeSize {
			p.MinTradeSize = p.MaxTradeSize
		}
		p.ReserveIn *= f
		p.ReserveOut *= f

		return p
	}
}

// FeeBump adds bps basis points to every pool's fee, capped just below 1.
func FeeBump(bps float64) PoolAdjuster {
	delta := bps / 10_000

	return func(p Pool) Pool {
		p.FeeRate = clamp(p.FeeRate+delta, 0, 0.9999)

		return p
	}
}

// Chain composes adjusters left to right.
func Chain(fns ...PoolAdjuster) PoolAdjuster {
	return func(p Pool) Pool {
		for _, fn := range fns {
			if fn != nil {
				p = fn(p)
			}
		}

		return p
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}

	return x
}
