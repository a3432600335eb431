// Package dexroute finds the best way to swap one token for another across
// the liquidity pools of many decentralized exchanges.
//
// What is dexroute?
//
//	An in-memory routing engine over an immutable pool snapshot:
//		• Graph snapshot: assets as nodes, directed pools as edges
//		• Rate model: -ln(effective rate) edge weights with AMM or linear impact
//		• Constraints: available liquidity, trade bounds, impact ceiling
//		• Bounded Bellman-Ford: hop limit, round budget, early termination
//		• Split routes: one trade spread over several legs with depletion
//		• Scoring: efficiency score, analysis, slippage bounds
//
// Layout:
//
//	core/        Asset, Pool and the thread-safe Graph snapshot
//	rate/        price impact, effective rate, edge weight
//	constraint/  per-edge feasibility at a trial amount
//	bfs/         hop-count reachability
//	bellmanford/ the constrained relaxation solver and path reconstruction
//	route/       pricing a path hop by hop, scoring and formatting
//	split/       ratio schedule and split allocation
//	router/      request validation and single vs split selection
//	snapshot/    YAML / JSON pool snapshots
//	cmd/dexroute CLI and HTTP server
//
// Quick ASCII example:
//
//	    USDC ──0.00098──► SOL
//	      │                ▲
//	      2               0.0005
//	      ▼                │
//	     RAY ──────────────┘
//
// The detour compounds to 0.001 SOL per USDC and beats the direct pool.
//
//	go install github.com/katalvlaran/dexroute/cmd/dexroute@latest
package dexroute
