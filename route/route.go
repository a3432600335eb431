// Package route turns a reconstructed path into a priced Route and scores,
// ranks and analyzes routes.
//
// Build re-simulates the path hop by hop at the actual input amount, so the
// invariant output = input × Π effective_rate(hop) holds by construction and
// every hop is re-checked against its liquidity constraints.
package route

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/dexroute/constraint"
	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/rate"
)

var (
	// ErrBadInput indicates a non-positive or non-finite input amount.
	ErrBadInput = errors.New("route: input amount must be positive and finite")

	// ErrInfeasibleHop indicates a hop rejected by the constraint checker at its simulated input.
	ErrInfeasibleHop = errors.New("route: hop infeasible at simulated amount")
)

// Hop is one priced swap of a Route.
type Hop struct {
	Pool          core.Pool
	Input         float64 // From units
	Output        float64 // To units
	EffectiveRate float64
	PriceImpact   float64
	FeeAmount     float64 // Input × FeeRate, From units
}

// Route is an immutable priced path.
type Route struct {
	Path             core.Path
	Hops             []Hop
	InputAmount      float64
	OutputAmount     float64
	EffectiveRate    float64 // OutputAmount / InputAmount = Π hop rates
	TotalFee         float64 // Σ per-hop fee rates
	TotalPriceImpact float64 // 1 - Π (1 - hop impact)
	HopCount         int
	EfficiencyScore  float64
	GasEstimate      float64
}

// Options configures Build.
type Options struct {
	Limits    constraint.Limits
	GasPerHop float64
	GasPrice  float64
}

// Option is a functional option for Build.
type Option func(*Options)

// WithLimits re-checks every hop against l.
func WithLimits(l constraint.Limits) Option {
	return func(o *Options) { o.Limits = l }
}

// WithGas sets the per-hop gas units and unit price used for GasEstimate.
func WithGas(perHop, price float64) Option {
	return func(o *Options) {
		o.GasPerHop = perHop
		o.GasPrice = price
	}
}

// Build prices path at input.
//
// Errors: core path validation errors, ErrBadInput, ErrInfeasibleHop.
func Build(path core.Path, input float64, opts ...Option) (Route, error) {
	o := Options{Limits: constraint.DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := path.Valid(); err != nil {
		return Route{}, err
	}
	if !(input > 0) || math.IsInf(input, 1) {
		return Route{}, fmt.Errorf("%w: %g", ErrBadInput, input)
	}

	r := Route{
		Path:        path,
		Hops:        make([]Hop, 0, len(path)),
		InputAmount: input,
		HopCount:    len(path),
	}
	amount := input
	keep := 1.0
	compound := 1.0
	for i, p := range path {
		if v := o.Limits.Check(p, amount); !v.Feasible {
			return Route{}, fmt.Errorf("%w: hop %d %s→%s (%s) at %g", ErrInfeasibleHop, i, p.From, p.To, v.Reason, amount)
		}
		view, err := rate.Quote(p, amount)
		if err != nil {
			return Route{}, fmt.Errorf("%w: hop %d: %w", ErrInfeasibleHop, i, err)
		}
		r.Hops = append(r.Hops, Hop{
			Pool:          p,
			Input:         amount,
			Output:        view.Output,
			EffectiveRate: view.EffectiveRate,
			PriceImpact:   view.PriceImpact,
			FeeAmount:     view.FeeAmount,
		})
		compound *= view.EffectiveRate
		keep *= 1 - view.PriceImpact
		r.TotalFee += p.FeeRate
		amount = view.Output
	}

	r.OutputAmount = amount
	r.EffectiveRate = compound
	r.TotalPriceImpact = 1 - keep
	r.EfficiencyScore = EfficiencyScore(r.TotalPriceImpact, r.TotalFee, r.HopCount)
	r.GasEstimate = float64(r.HopCount) * o.GasPerHop * o.GasPrice

	return r, nil
}

// NetRate is the effective rate less the gas estimate, used to compare
// alternative executions of the same request.
func (r Route) NetRate() float64 {
	return r.EffectiveRate - r.GasEstimate
}

// FeeAmount sums every hop's fee, each in its own hop's input units.
func (r Route) FeeAmount() float64 {
	var total float64
	for _, h := range r.Hops {
		total += h.FeeAmount
	}

	return total
}
