package bfs_test

import (
	"fmt"

	"github.com/katalvlaran/dexroute/bfs"
	"github.com/katalvlaran/dexroute/core"
)

// ExampleWalk lists the assets reachable from USDC within two swaps.
func ExampleWalk() {
	g := core.NewGraph()
	for _, p := range []core.Pool{
		{From: "USDC", To: "SOL", BaseRate: 0.001, TotalLiquidity: 1e6, MaxTradeSize: 1e5},
		{From: "SOL", To: "RAY", BaseRate: 500, TotalLiquidity: 1e6, MaxTradeSize: 1e5},
		{From: "RAY", To: "BONK", BaseRate: 1e5, TotalLiquidity: 1e6, MaxTradeSize: 1e5},
	} {
		_ = g.AddPool(p)
	}

	res, _ := bfs.Walk(g, "USDC", bfs.WithMaxDepth(2))
	for _, a := range res.Order {
		fmt.Println(a, res.Depth[a])
	}
	// Output:
	// USDC 0
	// SOL 1
	// RAY 2
}
