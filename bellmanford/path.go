package bellmanford

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/dexroute/core"
)

// Reconstruct walks Prev links from the best label of target back to
// res.Source and returns the pools in source→target order.
//
// Errors:
//   - ErrTargetNotFound if target was not an asset of the searched graph.
//   - ErrNoRouteFound if target is unreached or equal to Source.
//   - ErrBrokenChain if the walk revisits an asset, hits a missing link, or
//     runs out of hops away from Source.
//
// Complexity: O(path length).
func Reconstruct(res *Result, target core.Asset) (core.Path, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: nil result", ErrBrokenChain)
	}
	d, ok := res.Dist[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}
	if target == res.Source {
		return nil, fmt.Errorf("%w: target equals source %s", ErrNoRouteFound, target)
	}
	if math.IsInf(d, 1) {
		return nil, fmt.Errorf("%w: %s→%s", ErrNoRouteFound, res.Source, target)
	}

	if res.Hops[target] < 0 {
		return nil, fmt.Errorf("%w: negative hop count for %s", ErrBrokenChain, target)
	}

	var (
		rev  = make([]core.Pool, 0, res.Hops[target])
		seen = make(map[core.Asset]struct{}, res.Hops[target]+1)
		cur  = Node{Asset: target, Hops: res.Hops[target]}
	)
	for cur.Hops > 0 {
		if _, dup := seen[cur.Asset]; dup {
			return nil, fmt.Errorf("%w: cycle through %s", ErrBrokenChain, cur.Asset)
		}
		seen[cur.Asset] = struct{}{}
		pred, ok := res.Prev[cur]
		if !ok {
			return nil, fmt.Errorf("%w: no predecessor for %s at %d hops", ErrBrokenChain, cur.Asset, cur.Hops)
		}
		if pred.Pool.To != cur.Asset || pred.Pool.From != pred.From {
			return nil, fmt.Errorf("%w: link %s→%s does not match pool %s", ErrBrokenChain, pred.From, cur.Asset, pred.Pool.ID)
		}
		rev = append(rev, pred.Pool)
		cur = Node{Asset: pred.From, Hops: cur.Hops - 1}
	}
	if _, dup := seen[cur.Asset]; dup {
		return nil, fmt.Errorf("%w: cycle through %s", ErrBrokenChain, cur.Asset)
	}
	if cur.Asset != res.Source {
		return nil, fmt.Errorf("%w: chain for %s ends at %s, not %s", ErrBrokenChain, target, cur.Asset, res.Source)
	}

	// Reverse in place to source→target order.
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}

	return core.Path(rev), nil
}

// ShortestPath runs Solve from source with amount and reconstructs the path
// to target. The Result is returned whenever Solve produced one, including
// on ErrNoRouteFound, so callers can report iterations and pruning.
func ShortestPath(ctx context.Context, g *core.Graph, source, target core.Asset, amount float64, opts ...Option) (core.Path, *Result, error) {
	if g != nil && target != "" && !g.HasAsset(target) {
		return nil, nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}
	all := make([]Option, 0, len(opts)+2)
	all = append(all, opts...)
	all = append(all, Source(source), Amount(amount))

	res, err := Solve(ctx, g, all...)
	if err != nil {
		return nil, res, err
	}
	path, err := Reconstruct(res, target)
	if err != nil {
		return nil, res, err
	}

	return path, res, nil
}
