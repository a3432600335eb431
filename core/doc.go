// Package core provides the pool-graph snapshot every dexroute algorithm
// operates on: assets as nodes, exchange pools as directed edges.
//
// The Graph G = (V,E) is built once per request from externally supplied pool
// data and then treated as immutable for the duration of a search:
//
//   - Directed pools only; a two-way venue is added as two Pools.
//   - Parallel pools between the same pair are allowed (several DEXes quote
//     the same pair); disable with WithoutParallelPools.
//   - Self-swap pools (From == To) are always rejected.
//   - Deterministic iteration: Pools() and Outgoing() keep insertion order,
//     Assets() is sorted.
//   - Auto pool IDs ("p1", "p2", …) when Pool.ID is empty.
//   - A single sync.RWMutex guards the catalogs, so concurrent searches may
//     share one snapshot without further locking.
//
// Derivations never mutate their receiver:
//
//	Clone() *Graph                                   // O(V+E) deep copy
//	Consume(id string, in, out float64) (*Graph, error) // liquidity/reserves after a trade
//	Adjusted(fn PoolAdjuster) (*Graph, error)        // pool-state policy view
//
// Configuration Options (GraphOption):
//
//	- WithoutParallelPools()   a second pool From→To returns ErrMultiPoolNotAllowed.
//	- WithAdjuster(fn)         fn is applied to each pool on AddPool.
//	- WithAssets(a...)         pre-registers isolated assets.
//
// Errors:
//
//	ErrEmptyAsset            zero-length asset identifier
//	ErrAssetNotFound         missing asset
//	ErrPoolNotFound          missing pool
//	ErrDuplicatePool         pool ID reused
//	ErrLoopNotAllowed        From == To
//	ErrMultiPoolNotAllowed   parallel pool when disabled
//	ErrBadPool               numeric field outside its domain
//	ErrBadAmount             negative or non-finite Consume amount
//	ErrEmptyPath, ErrDisconnectedPath, ErrRepeatedAsset   Path.Valid failures
package core
