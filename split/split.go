// Package split partitions one trade across several independent path
// searches to limit price impact.
//
// Legs run sequentially in schedule order. After each successful leg the
// liquidity and reserves it consumed are subtracted from the graph the next
// leg searches, so legs never claim the same depth twice; this ordering
// dependency is why legs are not searched concurrently.
//
// When a leg finds no route, the Policy decides:
//
//   - PolicyRedistribute: the failed legs' ratio share is spread over the
//     surviving legs in proportion to their ratios and the whole allocation
//     is re-run on the original graph. Repeats until every leg succeeds or
//     none remain (ErrNoRouteFound).
//   - PolicyPartial: the successful legs are returned together with a
//     *PartialError describing the achieved and failed amounts.
package split

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/katalvlaran/dexroute/bellmanford"
	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/route"
)

var (
	// ErrPartialSplitFailure is wrapped by *PartialError.
	ErrPartialSplitFailure = errors.New("split: some legs found no route")

	// ErrBadRequest indicates a malformed Request.
	ErrBadRequest = errors.New("split: invalid request")

	// ErrUnknownPolicy indicates an unrecognized policy name.
	ErrUnknownPolicy = errors.New("split: unknown policy")
)

// Policy selects how failed legs are handled.
type Policy int

const (
	// PolicyRedistribute re-spreads failed shares over surviving legs.
	PolicyRedistribute Policy = iota
	// PolicyPartial reports failed legs instead of re-spreading.
	PolicyPartial
)

func (p Policy) String() string {
	switch p {
	case PolicyRedistribute:
		return "redistribute"
	case PolicyPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// ParsePolicy maps "redistribute" / "partial" (case-insensitive) to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "redistribute":
		return PolicyRedistribute, nil
	case "partial":
		return PolicyPartial, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Request describes one split allocation.
type Request struct {
	Source core.Asset
	Target core.Asset
	Amount float64
	Splits int
}

// Leg is one successful (Route, ratio) pair.
type Leg struct {
	Index  int     // position in the original schedule
	Ratio  float64 // share of the total
	Route  route.Route
	Solver Meta
}

// FailedLeg is a leg that found no route.
type FailedLeg struct {
	Index  int
	Ratio  float64
	Amount float64
	Err    error
	Solver Meta
}

// Meta is the solver metadata of one leg's search.
type Meta struct {
	Iterations    int
	State         bellmanford.State
	PrunedEdges   int
	NegativeCycle bool
}

func metaOf(res *bellmanford.Result) Meta {
	if res == nil {
		return Meta{}
	}

	return Meta{
		Iterations:    res.Iterations,
		State:         res.State,
		PrunedEdges:   res.PrunedEdges,
		NegativeCycle: res.NegativeCycle,
	}
}

// SplitRoute is the ordered set of legs. With every leg successful the leg
// ratios sum to one and the leg inputs sum to InputAmount; under
// PolicyPartial the failed legs carry the missing share.
type SplitRoute struct {
	Legs   []Leg
	Failed []FailedLeg
	Policy Policy
	Passes int // allocation passes run (>1 only after redistribution)

	InputAmount      float64 // requested total
	AchievedInput    float64 // Σ leg inputs
	OutputAmount     float64 // Σ leg outputs
	EffectiveRate    float64 // OutputAmount / AchievedInput
	TotalPriceImpact float64 // input-weighted mean of leg impacts
	GasEstimate      float64
	EfficiencyScore  float64 // input-weighted mean of leg scores

	Iterations  int // Σ solver rounds over all legs and passes
	PrunedEdges int // Σ pruned evaluations over all legs and passes
}

// NetRate is the effective rate less the gas estimate.
func (s *SplitRoute) NetRate() float64 {
	return s.EffectiveRate - s.GasEstimate
}

// PartialError reports a split that achieved only part of the requested input.
type PartialError struct {
	Requested      float64
	Achieved       float64
	FailedFraction float64
	Failed         []FailedLeg
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%v: achieved %g of %g (%d legs failed, %.4f of the amount)",
		ErrPartialSplitFailure, e.Achieved, e.Requested, len(e.Failed), e.FailedFraction)
}

// Unwrap exposes ErrPartialSplitFailure to errors.Is.
func (e *PartialError) Unwrap() error { return ErrPartialSplitFailure }

// Options configures Allocate.
type Options struct {
	Policy         Policy
	MinSplitAmount float64
	Solver         []bellmanford.Option
	Route          []route.Option
}

// Option is a functional option for Allocate.
type Option func(*Options)

// WithPolicy selects the failed-leg policy.
func WithPolicy(p Policy) Option {
	return func(o *Options) { o.Policy = p }
}

// WithMinSplitAmount drops legs whose amount would be below x.
func WithMinSplitAmount(x float64) Option {
	return func(o *Options) { o.MinSplitAmount = x }
}

// WithSolverOptions forwards options to every leg's bellmanford search.
func WithSolverOptions(opts ...bellmanford.Option) Option {
	return func(o *Options) { o.Solver = append(o.Solver, opts...) }
}

// WithRouteOptions forwards options to every leg's route.Build.
func WithRouteOptions(opts ...route.Option) Option {
	return func(o *Options) { o.Route = append(o.Route, opts...) }
}

// schedEntry is one scheduled leg.
type schedEntry struct {
	index int
	ratio float64
}

// Allocate splits req.Amount across req.Splits legs over g.
//
// Errors:
//   - ErrBadRequest, ErrBadSplitCount for malformed requests.
//   - bellmanford.ErrNoRouteFound when no leg finds a route.
//   - *PartialError (with a non-nil SplitRoute) under PolicyPartial.
//   - Any other solver or build error aborts the allocation unchanged.
func Allocate(ctx context.Context, g *core.Graph, req Request, opts ...Option) (*SplitRoute, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrBadRequest)
	}
	if !(req.Amount > 0) || math.IsInf(req.Amount, 1) {
		return nil, fmt.Errorf("%w: amount %g", ErrBadRequest, req.Amount)
	}
	ratios, err := Ratios(req.Splits)
	if err != nil {
		return nil, err
	}
	ratios = trimForMinimum(ratios, req.Amount, o.MinSplitAmount)

	sched := make([]schedEntry, len(ratios))
	for i, r := range ratios {
		sched[i] = schedEntry{index: i, ratio: r}
	}

	var iterations, pruned int
	for pass := 1; ; pass++ {
		sr, err := runPass(ctx, g, req, sched, o)
		if err != nil {
			return nil, err
		}
		iterations += sr.Iterations
		pruned += sr.PrunedEdges
		sr.Iterations, sr.PrunedEdges, sr.Passes = iterations, pruned, pass

		if len(sr.Failed) == 0 {
			return sr, nil
		}
		if len(sr.Legs) == 0 {
			return nil, fmt.Errorf("%w: all %d legs failed for %s→%s", bellmanford.ErrNoRouteFound, len(sr.Failed), req.Source, req.Target)
		}
		if o.Policy == PolicyPartial {
			return sr, &PartialError{
				Requested:      sr.InputAmount,
				Achieved:       sr.AchievedInput,
				FailedFraction: 1 - sr.AchievedInput/sr.InputAmount,
				Failed:         sr.Failed,
			}
		}

		// Redistribute: survivors keep their relative weights and absorb the failed share.
		survivors := make([]float64, len(sr.Legs))
		for i, leg := range sr.Legs {
			survivors[i] = sched[indexOf(sched, leg.Index)].ratio
		}
		renorm := normalize(survivors)
		next := make([]schedEntry, len(sr.Legs))
		for i, leg := range sr.Legs {
			next[i] = schedEntry{index: leg.Index, ratio: renorm[i]}
		}
		sched = next
	}
}

func indexOf(sched []schedEntry, index int) int {
	for i, e := range sched {
		if e.index == index {
			return i
		}
	}

	return -1
}

// runPass searches every scheduled leg in order, depleting liquidity after
// each success. The last leg takes the remainder so inputs sum exactly.
func runPass(ctx context.Context, g *core.Graph, req Request, sched []schedEntry, o Options) (*SplitRoute, error) {
	sr := &SplitRoute{Policy: o.Policy, InputAmount: req.Amount}
	graph := g
	assigned := 0.0
	var impactW, scoreW float64

	for i, e := range sched {
		amount := req.Amount * e.ratio
		if i == len(sched)-1 {
			amount = req.Amount - assigned
		}
		assigned += amount

		path, res, err := bellmanford.ShortestPath(ctx, graph, req.Source, req.Target, amount, o.Solver...)
		if res != nil {
			sr.Iterations += res.Iterations
			sr.PrunedEdges += res.PrunedEdges
		}
		if err != nil {
			if errors.Is(err, bellmanford.ErrNoRouteFound) {
				sr.Failed = append(sr.Failed, FailedLeg{Index: e.index, Ratio: e.ratio, Amount: amount, Err: err, Solver: metaOf(res)})
				continue
			}
			return nil, fmt.Errorf("split: leg %d: %w", e.index, err)
		}
		rt, err := route.Build(path, amount, o.Route...)
		if err != nil {
			return nil, fmt.Errorf("split: leg %d: %w", e.index, err)
		}
		sr.Legs = append(sr.Legs, Leg{Index: e.index, Ratio: e.ratio, Route: rt, Solver: metaOf(res)})

		sr.AchievedInput += rt.InputAmount
		sr.OutputAmount += rt.OutputAmount
		sr.GasEstimate += rt.GasEstimate
		impactW += rt.TotalPriceImpact * rt.InputAmount
		scoreW += rt.EfficiencyScore * rt.InputAmount

		if graph, err = deplete(graph, rt); err != nil {
			return nil, fmt.Errorf("split: leg %d: %w", e.index, err)
		}
	}

	if sr.AchievedInput > 0 {
		sr.EffectiveRate = sr.OutputAmount / sr.AchievedInput
		sr.TotalPriceImpact = impactW / sr.AchievedInput
		sr.EfficiencyScore = scoreW / sr.AchievedInput
	}

	return sr, nil
}

// deplete subtracts every hop of rt from the pools it used.
func deplete(g *core.Graph, rt route.Route) (*core.Graph, error) {
	var err error
	for _, h := range rt.Hops {
		if g, err = g.Consume(h.Pool.ID, h.Input, h.Output); err != nil {
			return nil, err
		}
	}

	return g, nil
}
