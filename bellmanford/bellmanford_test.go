package bellmanford_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/dexroute/bellmanford"
	"github.com/katalvlaran/dexroute/constraint"
	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/route"
)

// deep returns a linear-impact pool with ample liquidity.
func deep(id string, from, to core.Asset, rate float64) core.Pool {
	return core.Pool{ID: id, From: from, To: to, BaseRate: rate, FeeRate: 0.003, TotalLiquidity: 1e7, MaxTradeSize: 1e5}
}

func mustGraph(t *testing.T, pools ...core.Pool) *core.Graph {
	t.Helper()
	g := core.NewGraph()
	for _, p := range pools {
		require.NoError(t, g.AddPool(p))
	}

	return g
}

// SolverSuite groups the relaxation and reconstruction tests.
type SolverSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *SolverSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestSolverSuite(t *testing.T) {
	suite.Run(t, new(SolverSuite))
}

// TestValidation covers the ordered precondition checks.
func (s *SolverSuite) TestValidation() {
	g := mustGraph(s.T(), deep("ab", "A", "B", 1))

	_, err := bellmanford.Solve(s.ctx, g, bellmanford.Amount(1))
	s.ErrorIs(err, bellmanford.ErrEmptySource)

	_, err = bellmanford.Solve(s.ctx, nil, bellmanford.Source("A"), bellmanford.Amount(1))
	s.ErrorIs(err, bellmanford.ErrNilGraph)

	_, err = bellmanford.Solve(s.ctx, g, bellmanford.Source("X"), bellmanford.Amount(1))
	s.ErrorIs(err, bellmanford.ErrSourceNotFound)

	for _, a := range []float64{0, -1, math.Inf(1), math.NaN()} {
		_, err = bellmanford.Solve(s.ctx, g, bellmanford.Source("A"), bellmanford.Amount(a))
		s.ErrorIs(err, bellmanford.ErrBadAmount, "amount %g", a)
	}

	_, _, err = bellmanford.ShortestPath(s.ctx, g, "A", "Z", 1)
	s.ErrorIs(err, bellmanford.ErrTargetNotFound)
}

// TestOptionPanics mirrors the constructor-time validation of options.
func (s *SolverSuite) TestOptionPanics() {
	for _, opt := range []bellmanford.Option{
		bellmanford.WithMaxHops(0),
		bellmanford.WithMaxIterations(0),
		bellmanford.WithTimeout(0),
	} {
		o := bellmanford.DefaultOptions("A")
		s.Panics(func() { opt(&o) })
	}
}

// TestSingleHopReference: A→B, rate 2, fee 0.3%, reserves (5000, 10000), input 100.
func (s *SolverSuite) TestSingleHopReference() {
	p := core.Pool{ID: "ab", From: "A", To: "B", BaseRate: 2, FeeRate: 0.003, TotalLiquidity: 10000, MaxTradeSize: 1000, ReserveIn: 5000, ReserveOut: 10000}
	g := mustGraph(s.T(), p)

	path, res, err := bellmanford.ShortestPath(s.ctx, g, "A", "B", 100)
	s.Require().NoError(err)
	s.Require().Len(path, 1)
	s.Equal("ab", path[0].ID)
	s.InEpsilon(195.47, res.Amounts["B"], 1e-3)
	s.Less(res.Dist["B"], 0.0, "favorable cross-rate has negative weight")
	s.Equal(bellmanford.StateConverged, res.State)
}

// TestPrefersBetterCompoundRate: two hops at 0.99·1.02 beat one hop at 0.98.
func (s *SolverSuite) TestPrefersBetterCompoundRate() {
	g := mustGraph(s.T(),
		deep("ac", "A", "C", 0.98),
		deep("ab", "A", "B", 0.99),
		deep("bc", "B", "C", 1.02),
	)
	path, _, err := bellmanford.ShortestPath(s.ctx, g, "A", "C", 10)
	s.Require().NoError(err)
	s.Equal([]core.Asset{"A", "B", "C"}, path.Assets())
}

// TestParallelPools: the cheaper of two parallel venues wins.
func (s *SolverSuite) TestParallelPools() {
	worse := deep("orca", "A", "B", 1)
	worse.FeeRate = 0.01
	g := mustGraph(s.T(), worse, deep("ray", "A", "B", 1))
	path, _, err := bellmanford.ShortestPath(s.ctx, g, "A", "B", 10)
	s.Require().NoError(err)
	s.Equal("ray", path[0].ID)
}

// TestDisconnected: an isolated target yields ErrNoRouteFound, with the Result.
func (s *SolverSuite) TestDisconnected() {
	g := core.NewGraph(core.WithAssets("Z"))
	s.Require().NoError(g.AddPool(deep("ab", "A", "B", 1)))

	_, res, err := bellmanford.ShortestPath(s.ctx, g, "A", "Z", 10)
	s.ErrorIs(err, bellmanford.ErrNoRouteFound)
	s.Require().NotNil(res)
	s.False(res.Reachable("Z"))
	s.True(res.Reachable("B"))
}

// TestPruningByLiquidity: the direct pool cannot carry the amount, the detour can.
func (s *SolverSuite) TestPruningByLiquidity() {
	thin := core.Pool{ID: "ac", From: "A", To: "C", BaseRate: 1.5, TotalLiquidity: 1000, MaxTradeSize: 800}
	g := mustGraph(s.T(), thin, deep("ab", "A", "B", 1), deep("bc", "B", "C", 1))

	path, res, err := bellmanford.ShortestPath(s.ctx, g, "A", "C", 500)
	s.Require().NoError(err)
	s.Equal([]core.Asset{"A", "B", "C"}, path.Assets())
	s.Positive(res.PrunedEdges)

	// Small trades fit the available 200 and take the better direct pool.
	path, _, err = bellmanford.ShortestPath(s.ctx, g, "A", "C", 100)
	s.Require().NoError(err)
	s.Equal("ac", path[0].ID)
}

// TestImpactCeiling: constraint limits flow through WithConstraints.
func (s *SolverSuite) TestImpactCeiling() {
	p := core.Pool{ID: "ab", From: "A", To: "B", BaseRate: 1, TotalLiquidity: 10000, MaxTradeSize: 1000, ReserveIn: 1000, ReserveOut: 1000}
	g := mustGraph(s.T(), p)

	_, _, err := bellmanford.ShortestPath(s.ctx, g, "A", "B", 100,
		bellmanford.WithConstraints(constraint.WithMaxPriceImpact(0.05)))
	s.ErrorIs(err, bellmanford.ErrNoRouteFound)

	_, _, err = bellmanford.ShortestPath(s.ctx, g, "A", "B", 100)
	s.NoError(err)
}

// TestMaxHops: A→B→C only; one hop is not enough.
func (s *SolverSuite) TestMaxHops() {
	g := mustGraph(s.T(), deep("ab", "A", "B", 1), deep("bc", "B", "C", 1))

	_, res, err := bellmanford.ShortestPath(s.ctx, g, "A", "C", 10, bellmanford.WithMaxHops(1))
	s.ErrorIs(err, bellmanford.ErrNoRouteFound)
	s.Positive(res.HopLimited)

	path, _, err := bellmanford.ShortestPath(s.ctx, g, "A", "C", 10, bellmanford.WithMaxHops(2))
	s.Require().NoError(err)
	s.Len(path, 2)
}

// TestEarlyTermination: a chain converges well before a generous k_max.
func (s *SolverSuite) TestEarlyTermination() {
	g := mustGraph(s.T(), deep("ab", "A", "B", 1), deep("bc", "B", "C", 1), deep("cd", "C", "D", 1))

	res, err := bellmanford.Solve(s.ctx, g, bellmanford.Source("A"), bellmanford.Amount(10), bellmanford.WithMaxIterations(100))
	s.Require().NoError(err)
	s.Equal(bellmanford.StateConverged, res.State)
	s.True(res.Converged())
	// One round per hop reaches D; the fourth creates nothing.
	s.Equal(4, res.Iterations)
	s.Equal(3, res.Relaxations)
}

// TestExhausted: each round adds one hop, so a single round stops at B.
func (s *SolverSuite) TestExhausted() {
	g := mustGraph(s.T(), deep("cd", "C", "D", 1), deep("bc", "B", "C", 1), deep("ab", "A", "B", 1))

	res, err := bellmanford.Solve(s.ctx, g, bellmanford.Source("A"), bellmanford.Amount(10), bellmanford.WithMaxIterations(1))
	s.Require().NoError(err)
	s.Equal(bellmanford.StateExhausted, res.State)
	s.True(res.Reachable("B"))
	s.False(res.Reachable("D"))

	_, err = bellmanford.Solve(s.ctx, g, bellmanford.Source("A"), bellmanford.Amount(10),
		bellmanford.WithMaxIterations(1), bellmanford.WithStrictConvergence())
	s.ErrorIs(err, bellmanford.ErrBudgetExhausted)
}

// TestCancelledContext: an expired wall-clock budget returns best-so-far.
func (s *SolverSuite) TestCancelledContext() {
	g := mustGraph(s.T(), deep("ab", "A", "B", 1))
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	res, err := bellmanford.Solve(ctx, g, bellmanford.Source("A"), bellmanford.Amount(10))
	s.Require().NoError(err)
	s.Equal(bellmanford.StateExhausted, res.State)
	s.Equal(0, res.Iterations)
	s.Equal(0.0, res.Dist["A"])

	res, err = bellmanford.Solve(ctx, g, bellmanford.Source("A"), bellmanford.Amount(10), bellmanford.WithStrictConvergence())
	s.ErrorIs(err, bellmanford.ErrBudgetExhausted)
	s.NotNil(res)

	_, err = bellmanford.Solve(s.ctx, g, bellmanford.Source("A"), bellmanford.Amount(10), bellmanford.WithTimeout(time.Second))
	s.NoError(err)
}

// TestNegativeCycle: B→C→B compounds above 1; paths stay loop-free.
func (s *SolverSuite) TestNegativeCycle() {
	g := mustGraph(s.T(),
		deep("ab", "A", "B", 1),
		deep("bc", "B", "C", 1.5),
		deep("cb", "C", "B", 1.5),
		deep("cd", "C", "D", 1),
	)

	path, res, err := bellmanford.ShortestPath(s.ctx, g, "A", "D", 10)
	s.Require().NoError(err)
	s.NoError(path.Valid())
	s.True(res.NegativeCycle)

	_, _, err = bellmanford.ShortestPath(s.ctx, g, "A", "D", 10, bellmanford.WithRejectNegativeCycles())
	s.ErrorIs(err, bellmanford.ErrNegativeCycle)
}

// TestCycleThroughSource: an arbitrage loop back to Source is flagged, never entered.
func (s *SolverSuite) TestCycleThroughSource() {
	g := mustGraph(s.T(), deep("ab", "A", "B", 2), deep("ba", "B", "A", 2))

	res, err := bellmanford.Solve(s.ctx, g, bellmanford.Source("A"), bellmanford.Amount(1))
	s.Require().NoError(err)
	s.True(res.NegativeCycle)
	s.Equal(0.0, res.Dist["A"])
	s.Equal(0, res.Hops["A"])
	for n := range res.Prev {
		s.NotEqual(core.Asset("A"), n.Asset)
	}
}

// TestNoRepeatedAssets runs every source/target pair on a dense graph with
// profitable cycles and checks each returned path.
func (s *SolverSuite) TestNoRepeatedAssets() {
	assets := []core.Asset{"A", "B", "C", "D", "E", "F"}
	g := core.NewGraph()
	for i, u := range assets {
		for j, v := range assets {
			if i == j {
				continue
			}
			r := 0.9 + 0.05*float64((i*7+j*3)%5)
			s.Require().NoError(g.AddPool(deep(fmt.Sprintf("%s%s", u, v), u, v, r)))
		}
	}
	for _, src := range assets {
		for _, dst := range assets {
			if src == dst {
				continue
			}
			path, _, err := bellmanford.ShortestPath(s.ctx, g, src, dst, 10, bellmanford.WithMaxIterations(50))
			s.Require().NoError(err, "%s→%s", src, dst)
			s.NoError(path.Valid(), "%s→%s", src, dst)
			s.Equal(src, path.Source())
			s.Equal(dst, path.Target())
		}
	}
}

// TestReconstructBrokenChain feeds hand-made corrupt results to Reconstruct.
func (s *SolverSuite) TestReconstructBrokenChain() {
	ab := deep("ab", "A", "B", 1)
	bc := deep("bc", "B", "C", 1)
	cb := deep("cb", "C", "B", 1)
	dist := map[core.Asset]float64{"A": 0, "B": 1, "C": 2}

	cases := map[string]*bellmanford.Result{
		"cycle": {
			Source: "A", Dist: dist, Hops: map[core.Asset]int{"C": 2},
			Prev: map[bellmanford.Node]bellmanford.Predecessor{
				{Asset: "C", Hops: 2}: {From: "B", Pool: bc},
				{Asset: "B", Hops: 1}: {From: "C", Pool: cb},
			},
		},
		"missing link": {
			Source: "A", Dist: dist, Hops: map[core.Asset]int{"C": 2},
			Prev: map[bellmanford.Node]bellmanford.Predecessor{{Asset: "C", Hops: 2}: {From: "B", Pool: bc}},
		},
		"pool mismatch": {
			Source: "A", Dist: dist, Hops: map[core.Asset]int{"C": 1},
			Prev: map[bellmanford.Node]bellmanford.Predecessor{{Asset: "C", Hops: 1}: {From: "A", Pool: bc}},
		},
		"ends away from source": {
			Source: "A", Dist: dist, Hops: map[core.Asset]int{"C": 1},
			Prev: map[bellmanford.Node]bellmanford.Predecessor{{Asset: "C", Hops: 1}: {From: "B", Pool: bc}},
		},
		"negative hops": {
			Source: "A", Dist: dist, Hops: map[core.Asset]int{"C": -1},
		},
	}
	for name, res := range cases {
		_, err := bellmanford.Reconstruct(res, "C")
		s.ErrorIs(err, bellmanford.ErrBrokenChain, name)
	}

	ok := &bellmanford.Result{
		Source: "A",
		Dist:   dist,
		Hops:   map[core.Asset]int{"A": 0, "B": 1, "C": 2},
		Prev: map[bellmanford.Node]bellmanford.Predecessor{
			{Asset: "B", Hops: 1}: {From: "A", Pool: ab},
			{Asset: "C", Hops: 2}: {From: "B", Pool: bc},
		},
	}
	path, err := bellmanford.Reconstruct(ok, "C")
	s.Require().NoError(err)
	s.Equal([]core.Asset{"A", "B", "C"}, path.Assets())

	_, err = bellmanford.Reconstruct(ok, "A")
	s.ErrorIs(err, bellmanford.ErrNoRouteFound)
	_, err = bellmanford.Reconstruct(ok, "Q")
	s.ErrorIs(err, bellmanford.ErrTargetNotFound)
	_, err = bellmanford.Reconstruct(nil, "C")
	s.ErrorIs(err, bellmanford.ErrBrokenChain)
}

// detourGraph reaches A directly and, at a better compound rate, through X.
// The A→T pool is added before X→A, so T is first reached from the direct A.
func detourGraph(t *testing.T, at core.Pool) *core.Graph {
	return mustGraph(t,
		deep("sa", "S", "A", 1),
		at,
		deep("sx", "S", "X", 1.5),
		deep("xa", "X", "A", 1.5),
	)
}

// TestMaxHopsAfterBetterIntermediate: A improves through X after T was
// reached from the direct A; the two-pool path to T must survive MaxHops(2).
func (s *SolverSuite) TestMaxHopsAfterBetterIntermediate() {
	g := detourGraph(s.T(), deep("at", "A", "T", 1))

	path, res, err := bellmanford.ShortestPath(s.ctx, g, "S", "T", 100, bellmanford.WithMaxHops(2))
	s.Require().NoError(err)
	s.Equal([]core.Asset{"S", "A", "T"}, path.Assets())
	s.Equal(2, res.Hops["T"])
	s.Equal(2, res.Hops["A"], "A's best label goes through X")
	s.Equal(1, res.HopLimited)
	s.Equal(bellmanford.StateConverged, res.State)

	// Without the limit the detour extends to T.
	path, res, err = bellmanford.ShortestPath(s.ctx, g, "S", "T", 100)
	s.Require().NoError(err)
	s.Equal([]core.Asset{"S", "X", "A", "T"}, path.Assets())
	s.Equal(3, res.Hops["T"])
	s.Len(path, res.Hops["T"])
}

// TestChainAmountsStayFeasible: A→T fits the 99.7 arriving directly but not
// the 223.7 arriving through X. The route to T must be priced on the chain
// it was checked on, so Build accepts it at the request amount.
func (s *SolverSuite) TestChainAmountsStayFeasible() {
	at := deep("at", "A", "T", 1)
	at.MaxTradeSize = 150
	g := detourGraph(s.T(), at)

	path, res, err := bellmanford.ShortestPath(s.ctx, g, "S", "T", 100)
	s.Require().NoError(err)
	s.Equal([]core.Asset{"S", "A", "T"}, path.Assets())
	s.Greater(res.Amounts["A"], 150.0)
	s.Positive(res.PrunedEdges)

	r, err := route.Build(path, 100)
	s.Require().NoError(err)
	s.InDelta(res.Amounts["T"], r.OutputAmount, 1e-9)
	s.InDelta(res.Dist["T"], -math.Log(r.EffectiveRate), 1e-9)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "converged", bellmanford.StateConverged.String())
	require.Equal(t, "exhausted", bellmanford.StateExhausted.String())
	require.Equal(t, "unknown", bellmanford.State(42).String())
}
