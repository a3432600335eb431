package split_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/dexroute/bellmanford"
	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/rate"
	"github.com/katalvlaran/dexroute/split"
)

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}

	return s
}

func TestRatios_FixedHead(t *testing.T) {
	r, err := split.Ratios(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.6, 0.3, 0.1}, r)

	// Callers may not mutate the schedule for others.
	r[0] = 42
	again, _ := split.Ratios(3)
	assert.Equal(t, 0.6, again[0])
}

func TestRatios_SumToOne(t *testing.T) {
	for n := 1; n <= split.MaxSplits; n++ {
		r, err := split.Ratios(n)
		require.NoError(t, err)
		require.Len(t, r, n)
		assert.InDelta(t, 1.0, sum(r), 1e-9, "n=%d", n)
		for _, x := range r {
			assert.Positive(t, x)
		}
	}
}

func TestRatios_TailRenormalizesWholeSet(t *testing.T) {
	r, err := split.Ratios(4)
	require.NoError(t, err)
	tail := 0.4 * 0.7 * 0.7 * 0.7
	total := 1 + tail
	assert.InDelta(t, 0.6/total, r[0], 1e-12)
	assert.InDelta(t, 0.3/total, r[1], 1e-12)
	assert.InDelta(t, 0.1/total, r[2], 1e-12)
	assert.InDelta(t, tail/total, r[3], 1e-12)

	one, _ := split.Ratios(1)
	assert.Equal(t, []float64{1}, one)
	two, _ := split.Ratios(2)
	assert.InDelta(t, 2.0/3, two[0], 1e-12)
}

func TestRatios_Bounds(t *testing.T) {
	_, err := split.Ratios(0)
	assert.ErrorIs(t, err, split.ErrBadSplitCount)
	_, err = split.Ratios(split.MaxSplits + 1)
	assert.ErrorIs(t, err, split.ErrBadSplitCount)
}

func TestParsePolicy(t *testing.T) {
	p, err := split.ParsePolicy("Partial")
	require.NoError(t, err)
	assert.Equal(t, split.PolicyPartial, p)
	p, err = split.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, split.PolicyRedistribute, p)
	_, err = split.ParsePolicy("yolo")
	assert.ErrorIs(t, err, split.ErrUnknownPolicy)
	assert.Equal(t, "redistribute", split.PolicyRedistribute.String())
}

// ammGraph has one A→B constant-product pool deep enough for every leg.
func ammGraph(t *testing.T, minTrade float64) *core.Graph {
	t.Helper()
	g := core.NewGraph()
	require.NoError(t, g.AddPool(core.Pool{
		ID: "ab", From: "A", To: "B", BaseRate: 2, FeeRate: 0.003,
		TotalLiquidity: 100000, MaxTradeSize: 1000, MinTradeSize: minTrade,
		ReserveIn: 50000, ReserveOut: 100000,
	}))

	return g
}

func TestAllocate_ThreeLegsSequentialDepletion(t *testing.T) {
	g := ammGraph(t, 0)
	sr, err := split.Allocate(context.Background(), g, split.Request{Source: "A", Target: "B", Amount: 1000, Splits: 3})
	require.NoError(t, err)
	require.Len(t, sr.Legs, 3)
	assert.Empty(t, sr.Failed)
	assert.Equal(t, 1, sr.Passes)

	wantAmounts := []float64{600, 300, 100}
	wantReserve := []float64{50000, 50600, 50900}
	var expected, inputs, ratios float64
	for i, leg := range sr.Legs {
		assert.Equal(t, i, leg.Index)
		assert.InDelta(t, wantAmounts[i], leg.Route.InputAmount, 1e-9)
		hop := leg.Route.Hops[0]
		assert.InDelta(t, wantReserve[i], hop.Pool.ReserveIn, 1e-9, "leg %d sees depleted reserves", i)

		eff := rate.EffectiveRate(2, 0.003, rate.AMMImpact(wantAmounts[i], wantReserve[i]))
		assert.InDelta(t, wantAmounts[i]*eff, leg.Route.OutputAmount, 1e-9)
		expected += wantAmounts[i] * eff
		inputs += leg.Route.InputAmount
		ratios += leg.Ratio
	}
	assert.InDelta(t, expected, sr.OutputAmount, 1e-9)
	assert.InDelta(t, 1000, inputs, 1e-9)
	assert.InDelta(t, 1.0, ratios, 1e-9)
	assert.InDelta(t, 1000, sr.AchievedInput, 1e-9)
	assert.InDelta(t, sr.OutputAmount/1000, sr.EffectiveRate, 1e-12)

	// The caller's snapshot is untouched.
	p, _ := g.Pool("ab")
	assert.Equal(t, 50000.0, p.ReserveIn)
}

func TestAllocate_OnePoolTracksSingleTrade(t *testing.T) {
	g := ammGraph(t, 0)
	ctx := context.Background()
	single, err := split.Allocate(ctx, g, split.Request{Source: "A", Target: "B", Amount: 1000, Splits: 1})
	require.NoError(t, err)
	multi, err := split.Allocate(ctx, g, split.Request{Source: "A", Target: "B", Amount: 1000, Splits: 3})
	require.NoError(t, err)

	// Over one pool the legs walk the same reserve curve as the single trade.
	assert.InDelta(t, single.OutputAmount, multi.OutputAmount, single.OutputAmount*1e-2)
}

func TestAllocate_Redistribute(t *testing.T) {
	// Legs of 600/300/100: the 100 leg is below the 200 minimum trade.
	g := ammGraph(t, 200)
	sr, err := split.Allocate(context.Background(), g, split.Request{Source: "A", Target: "B", Amount: 1000, Splits: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, sr.Passes)
	assert.Empty(t, sr.Failed)
	require.Len(t, sr.Legs, 2)

	assert.InDelta(t, 2.0/3, sr.Legs[0].Ratio, 1e-12)
	assert.InDelta(t, 1.0/3, sr.Legs[1].Ratio, 1e-12)
	assert.InDelta(t, 1000, sr.Legs[0].Route.InputAmount+sr.Legs[1].Route.InputAmount, 1e-9)
	assert.InDelta(t, 1000, sr.AchievedInput, 1e-9)
	assert.Positive(t, sr.Iterations)
}

func TestAllocate_Partial(t *testing.T) {
	g := ammGraph(t, 200)
	sr, err := split.Allocate(context.Background(), g,
		split.Request{Source: "A", Target: "B", Amount: 1000, Splits: 3},
		split.WithPolicy(split.PolicyPartial))

	require.Error(t, err)
	assert.True(t, errors.Is(err, split.ErrPartialSplitFailure))
	var pe *split.PartialError
	require.ErrorAs(t, err, &pe)
	require.NotNil(t, sr)

	assert.Len(t, sr.Legs, 2)
	require.Len(t, pe.Failed, 1)
	assert.Equal(t, 2, pe.Failed[0].Index)
	assert.InDelta(t, 100, pe.Failed[0].Amount, 1e-9)
	assert.ErrorIs(t, pe.Failed[0].Err, bellmanford.ErrNoRouteFound)
	assert.InDelta(t, 1000, pe.Requested, 1e-9)
	assert.InDelta(t, 900, pe.Achieved, 1e-9)
	assert.InDelta(t, 0.1, pe.FailedFraction, 1e-9)
	assert.Equal(t, split.PolicyPartial, sr.Policy)
}

func TestAllocate_AllLegsFail(t *testing.T) {
	g := core.NewGraph()
	require.NoError(t, g.AddPool(core.Pool{ID: "ab", From: "A", To: "B", BaseRate: 1, TotalLiquidity: 100000, MaxTradeSize: 5000, MinTradeSize: 2000}))

	for _, policy := range []split.Policy{split.PolicyRedistribute, split.PolicyPartial} {
		sr, err := split.Allocate(context.Background(), g,
			split.Request{Source: "A", Target: "B", Amount: 1000, Splits: 3}, split.WithPolicy(policy))
		assert.ErrorIs(t, err, bellmanford.ErrNoRouteFound, policy.String())
		assert.Nil(t, sr)
	}
}

func TestAllocate_MinSplitAmount(t *testing.T) {
	g := ammGraph(t, 0)
	sr, err := split.Allocate(context.Background(), g,
		split.Request{Source: "A", Target: "B", Amount: 1000, Splits: 3},
		split.WithMinSplitAmount(150))
	require.NoError(t, err)
	require.Len(t, sr.Legs, 2)
	assert.Equal(t, 1, sr.Passes)
	assert.InDelta(t, 1.0, sr.Legs[0].Ratio+sr.Legs[1].Ratio, 1e-12)

	// Every leg below the minimum collapses to one leg.
	sr, err = split.Allocate(context.Background(), g,
		split.Request{Source: "A", Target: "B", Amount: 20, Splits: 3},
		split.WithMinSplitAmount(50))
	require.NoError(t, err)
	require.Len(t, sr.Legs, 1)
	assert.Equal(t, 20.0, sr.Legs[0].Route.InputAmount)
}

func TestAllocate_Errors(t *testing.T) {
	g := ammGraph(t, 0)
	ctx := context.Background()

	_, err := split.Allocate(ctx, g, split.Request{Source: "A", Target: "B", Amount: 0, Splits: 3})
	assert.ErrorIs(t, err, split.ErrBadRequest)
	_, err = split.Allocate(ctx, nil, split.Request{Source: "A", Target: "B", Amount: 1, Splits: 3})
	assert.ErrorIs(t, err, split.ErrBadRequest)
	_, err = split.Allocate(ctx, g, split.Request{Source: "A", Target: "B", Amount: 1, Splits: 11})
	assert.ErrorIs(t, err, split.ErrBadSplitCount)

	// Solver errors other than no-route abort the allocation.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = split.Allocate(cancelled, g, split.Request{Source: "A", Target: "B", Amount: 1000, Splits: 3},
		split.WithSolverOptions(bellmanford.WithStrictConvergence()))
	assert.ErrorIs(t, err, bellmanford.ErrBudgetExhausted)

	_, err = split.Allocate(ctx, g, split.Request{Source: "A", Target: "Z", Amount: 1000, Splits: 3})
	assert.ErrorIs(t, err, bellmanford.ErrTargetNotFound)
}
