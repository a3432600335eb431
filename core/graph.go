// File: graph.go
// Role: Pool insertion and read-only queries over a Graph snapshot.
// Determinism:
//   - Pools() and Outgoing() return pools in insertion order.
//   - Assets() returns assets sorted lexicographically.
// Concurrency:
//   - AddPool takes the write lock; every query takes the read lock and returns copies.

package core

import (
	"fmt"
	"sort"
	"strconv"
)

// AddPool validates p and inserts it into the graph. Both endpoints are
// registered as assets. If p.ID is empty a textual ID "p<N>" is assigned.
// When an adjuster is installed it is applied before validation.
//
// Errors: ErrEmptyAsset, ErrLoopNotAllowed, ErrBadPool, ErrDuplicatePool,
// ErrMultiPoolNotAllowed.
//
// Complexity: O(1) amortized.
func (g *Graph) AddPool(p Pool) error {
	if g.adjuster != nil {
		p = g.adjuster(p)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return g.insertLocked(p)
}

// insertLocked performs the insertion; caller must hold the write lock and
// have validated p.
func (g *Graph) insertLocked(p Pool) error {
	if p.ID == "" {
		g.nextPoolID++
		p.ID = "p" + strconv.FormatUint(g.nextPoolID, 10)
		for g.pools[p.ID] != nil {
			g.nextPoolID++
			p.ID = "p" + strconv.FormatUint(g.nextPoolID, 10)
		}
	}
	if _, dup := g.pools[p.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicatePool, p.ID)
	}
	key := [2]Asset{p.From, p.To}
	if _, exists := g.pairs[key]; exists && !g.allowMulti {
		return fmt.Errorf("%w: %s→%s", ErrMultiPoolNotAllowed, p.From, p.To)
	}

	stored := p
	g.pools[p.ID] = &stored
	g.order = append(g.order, p.ID)
	g.outgoing[p.From] = append(g.outgoing[p.From], p.ID)
	if _, exists := g.pairs[key]; !exists {
		g.pairs[key] = p.ID
	}
	g.assets[p.From] = struct{}{}
	g.assets[p.To] = struct{}{}

	return nil
}

// HasAsset reports whether a is a node of the graph.
func (g *Graph) HasAsset(a Asset) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.assets[a]

	return ok
}

// Assets returns every asset, sorted.
func (g *Graph) Assets() []Asset {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Asset, 0, len(g.assets))
	for a := range g.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Pools returns a copy of every pool in insertion order.
func (g *Graph) Pools() []Pool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Pool, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.pools[id])
	}

	return out
}

// Outgoing returns the pools whose From is a, in insertion order.
// Unknown assets yield an empty slice.
func (g *Graph) Outgoing(a Asset) []Pool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := g.outgoing[a]
	out := make([]Pool, 0, len(ids))
	for _, id := range ids {
		out = append(out, *g.pools[id])
	}

	return out
}

// Pool looks a pool up by ID.
func (g *Graph) Pool(id string) (Pool, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.pools[id]
	if !ok {
		return Pool{}, false
	}

	return *p, true
}

// Stats is a point-in-time summary of a Graph.
type Stats struct {
	Assets int // number of nodes
	Pools  int // number of directed pools
	DEXes  int // number of distinct venues
}

// Stats returns node, edge and venue counts. Complexity: O(E).
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	venues := make(map[string]struct{})
	for _, p := range g.pools {
		venues[p.DEX] = struct{}{}
	}

	return Stats{Assets: len(g.assets), Pools: len(g.pools), DEXes: len(venues)}
}
