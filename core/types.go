// File: types.go
// Role: Asset, Pool and Graph declarations, sentinel errors, NewGraph.
// Concurrency:
//   - Graph.mu guards every catalog; see graph.go for the locking of each method.

package core

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Sentinel errors for core graph operations.
var (
	// ErrEmptyAsset indicates that an asset identifier is empty.
	ErrEmptyAsset = errors.New("core: asset is empty")

	// ErrAssetNotFound indicates an operation referenced a non-existent asset.
	ErrAssetNotFound = errors.New("core: asset not found")

	// ErrPoolNotFound indicates an operation referenced a non-existent pool.
	ErrPoolNotFound = errors.New("core: pool not found")

	// ErrDuplicatePool indicates that a pool ID is already present in the graph.
	ErrDuplicatePool = errors.New("core: duplicate pool id")

	// ErrLoopNotAllowed indicates a pool whose From and To are the same asset.
	ErrLoopNotAllowed = errors.New("core: self-swap pool not allowed")

	// ErrMultiPoolNotAllowed indicates a parallel pool was added while parallel pools are disabled.
	ErrMultiPoolNotAllowed = errors.New("core: parallel pools not allowed")

	// ErrBadPool indicates a pool with out-of-domain numeric fields.
	ErrBadPool = errors.New("core: invalid pool")

	// ErrBadAmount indicates a negative or non-finite amount passed to Consume.
	ErrBadAmount = errors.New("core: amount must be finite and non-negative")
)

// Asset is an opaque token identifier. Two assets are the same node in the
// graph iff their identifiers are byte-equal; use NormalizeAsset to fold
// hex addresses spelled with different letter cases.
type Asset string

// Pool is one directed swap edge From→To offered by an exchange.
//
// A bidirectional pool is represented as two Pools. ReserveIn/ReserveOut are
// optional: when both are positive the AMM impact model is used, otherwise the
// linear model over TotalLiquidity applies.
type Pool struct {
	// ID uniquely identifies this pool in the Graph. Auto-assigned ("p1", "p2", …) when empty.
	ID string

	// DEX names the venue offering the pool (informational).
	DEX string

	// From is the input asset, To the output asset.
	From Asset
	To   Asset

	// BaseRate is the quoted amount of To received per unit of From, before fee and impact.
	BaseRate float64

	// FeeRate is the proportional fee in [0, 1).
	FeeRate float64

	// TotalLiquidity is the aggregate depth of the pool, in From units.
	TotalLiquidity float64

	// MaxTradeSize and MinTradeSize bound a single trade, in From units.
	MaxTradeSize float64
	MinTradeSize float64

	// ReserveIn and ReserveOut are constant-product reserves; zero when unknown.
	ReserveIn  float64
	ReserveOut float64
}

// HasReserves reports whether the pool carries AMM reserves.
func (p Pool) HasReserves() bool {
	return p.ReserveIn > 0 && p.ReserveOut > 0
}

// Validate checks the numeric domains of every field.
func (p Pool) Validate() error {
	switch {
	case p.From == "" || p.To == "":
		return ErrEmptyAsset
	case p.From == p.To:
		return fmt.Errorf("%w: %s", ErrLoopNotAllowed, p.From)
	case !positive(p.BaseRate):
		return fmt.Errorf("%w: %s→%s base rate %g must be positive", ErrBadPool, p.From, p.To, p.BaseRate)
	case p.FeeRate < 0 || p.FeeRate >= 1 || math.IsNaN(p.FeeRate):
		return fmt.Errorf("%w: %s→%s fee rate %g outside [0,1)", ErrBadPool, p.From, p.To, p.FeeRate)
	case !positive(p.TotalLiquidity):
		return fmt.Errorf("%w: %s→%s liquidity %g must be positive", ErrBadPool, p.From, p.To, p.TotalLiquidity)
	case !positive(p.MaxTradeSize):
		return fmt.Errorf("%w: %s→%s max trade size %g must be positive", ErrBadPool, p.From, p.To, p.MaxTradeSize)
	case p.MinTradeSize < 0 || math.IsNaN(p.MinTradeSize) || p.MinTradeSize > p.MaxTradeSize:
		return fmt.Errorf("%w: %s→%s min trade size %g outside [0,max]", ErrBadPool, p.From, p.To, p.MinTradeSize)
	case p.ReserveIn < 0 || p.ReserveOut < 0:
		return fmt.Errorf("%w: %s→%s negative reserves", ErrBadPool, p.From, p.To)
	}

	return nil
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1) && !math.IsNaN(x)
}

// GraphOption configures behavior of a Graph before creation.
type GraphOption func(g *Graph)

// WithoutParallelPools rejects a second pool between the same ordered asset pair.
func WithoutParallelPools() GraphOption {
	return func(g *Graph) { g.allowMulti = false }
}

// WithAdjuster installs a PoolAdjuster applied to every pool on AddPool.
func WithAdjuster(fn PoolAdjuster) GraphOption {
	return func(g *Graph) { g.adjuster = fn }
}

// WithAssets pre-registers assets that may have no pools (isolated nodes).
func WithAssets(assets ...Asset) GraphOption {
	return func(g *Graph) {
		for _, a := range assets {
			if a != "" {
				g.assets[a] = struct{}{}
			}
		}
	}
}

// Graph is a snapshot of assets and directed pools.
//
// mu guards every map and slice below. Pools are kept in insertion order so
// that every algorithm iterating Pools() or Outgoing() is deterministic.
type Graph struct {
	mu sync.RWMutex

	allowMulti bool         // allow parallel pools between the same pair
	adjuster   PoolAdjuster // optional per-pool transform on insert

	nextPoolID uint64              // auto ID generator
	assets     map[Asset]struct{}  // node set
	pools      map[string]*Pool    // pool ID → Pool
	order      []string            // pool IDs in insertion order
	outgoing   map[Asset][]string  // From → pool IDs in insertion order
	pairs      map[[2]Asset]string // (From,To) → first pool ID, for parallel-pool checks
}

// NewGraph creates an empty Graph. Parallel pools are allowed by default
// since different venues routinely quote the same pair.
// Complexity: O(1)
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		allowMulti: true,
		assets:     make(map[Asset]struct{}),
		pools:      make(map[string]*Pool),
		outgoing:   make(map[Asset][]string),
		pairs:      make(map[[2]Asset]string),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}
