// Package bfs walks a core.Graph breadth-first along pool direction and
// reports hop distances, visit order and the first pool reaching each asset.
//
// Routing uses it as a cheap reachability check ahead of the weighted
// search: a target that no walk of at most MaxHops pools can reach has no
// route, whatever the rates.
//
// Complexity: O(V + E) time, O(V) memory.
package bfs

import (
	"fmt"

	"github.com/katalvlaran/dexroute/core"
)

type queueItem struct {
	asset core.Asset
	depth int
}

// walker encapsulates mutable BFS state.
type walker struct {
	graph *core.Graph
	opts  Options
	queue []queueItem
	res   *Result
}

// Walk runs breadth-first search on g from source.
// Returns ErrGraphNil or ErrSourceNotFound for invalid input,
// ErrOptionViolation for bad options, ctx.Err() on cancellation, or any
// OnVisit error. The partial Result is returned alongside walk errors.
func Walk(g *core.Graph, source core.Asset, opts ...Option) (*Result, error) {
	if g == nil {
		return nil, ErrGraphNil
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if !g.HasAsset(source) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}

	n := g.Stats().Assets
	w := &walker{
		graph: g,
		opts:  o,
		queue: make([]queueItem, 0, n),
		res: &Result{
			Source: source,
			Order:  make([]core.Asset, 0, n),
			Depth:  make(map[core.Asset]int, n),
			Parent: make(map[core.Asset]core.Pool, n),
		},
	}
	w.res.Depth[source] = 0
	w.queue = append(w.queue, queueItem{asset: source})

	return w.res, w.loop()
}

// loop processes the queue until empty, error, or cancellation.
func (w *walker) loop() error {
	for len(w.queue) > 0 {
		if err := w.opts.Ctx.Err(); err != nil {
			return err
		}
		item := w.queue[0]
		w.queue = w.queue[1:]

		w.res.Order = append(w.res.Order, item.asset)
		if err := w.opts.OnVisit(item.asset, item.depth); err != nil {
			return fmt.Errorf("bfs: OnVisit error at %s: %w", item.asset, err)
		}
		w.enqueueNeighbors(item)
	}

	return nil
}

// enqueueNeighbors follows every admitted pool out of item within MaxDepth.
// Parallel pools reach the same asset; the first in insertion order wins.
func (w *walker) enqueueNeighbors(item queueItem) {
	next := item.depth + 1
	if w.opts.MaxDepth > 0 && next > w.opts.MaxDepth {
		return
	}
	for _, p := range w.graph.Outgoing(item.asset) {
		if !w.opts.FilterPool(p) {
			continue
		}
		if _, seen := w.res.Depth[p.To]; seen {
			continue
		}
		w.res.Depth[p.To] = next
		w.res.Parent[p.To] = p
		w.queue = append(w.queue, queueItem{asset: p.To, depth: next})
	}
}
