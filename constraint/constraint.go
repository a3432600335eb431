// Package constraint decides whether a pool can carry a proposed trade amount.
//
// A pool is traversable at amount a iff
//
//	min_trade_size ≤ a ≤ max_trade_size
//	a ≤ available_liquidity = total_liquidity - min(max_trade_size, total_liquidity)
//	impact(a) < 1, and impact(a) ≤ MaxPriceImpact when a ceiling is set
//	total_liquidity ≥ MinLiquidity when a floor is set
//
// An infeasible pool is pruned for that amount: it contributes no relaxation
// candidate. Check has no side effects.
package constraint

import (
	"errors"
	"math"

	"github.com/katalvlaran/dexroute/core"
	"github.com/katalvlaran/dexroute/rate"
)

var (
	// ErrBadMaxPriceImpact indicates a price-impact ceiling outside (0, 1].
	ErrBadMaxPriceImpact = errors.New("constraint: MaxPriceImpact must be in (0, 1]")

	// ErrBadMinLiquidity indicates a negative liquidity floor.
	ErrBadMinLiquidity = errors.New("constraint: MinLiquidity must be non-negative")
)

// Reason explains a Verdict.
type Reason int

const (
	// ReasonOK marks a feasible trade.
	ReasonOK Reason = iota
	ReasonBadAmount
	ReasonBelowMinTrade
	ReasonAboveMaxTrade
	ReasonInsufficientLiquidity
	ReasonShallowPool
	ReasonImpactSaturated
	ReasonImpactCeiling
)

var reasonNames = [...]string{
	ReasonOK:                    "ok",
	ReasonBadAmount:             "bad_amount",
	ReasonBelowMinTrade:         "below_min_trade",
	ReasonAboveMaxTrade:         "above_max_trade",
	ReasonInsufficientLiquidity: "insufficient_liquidity",
	ReasonShallowPool:           "shallow_pool",
	ReasonImpactSaturated:       "impact_saturated",
	ReasonImpactCeiling:         "impact_ceiling",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return "unknown"
	}

	return reasonNames[r]
}

// Verdict is the outcome of Check.
type Verdict struct {
	Feasible  bool
	Reason    Reason
	Impact    float64 // impact at the requested amount (0 when not evaluated)
	MaxAmount float64 // largest amount the pool accepts, ignoring impact
}

// Limits holds the request-level ceilings applied on top of the pool's own bounds.
//
// MaxPriceImpact: per-edge impact ceiling in (0, 1]. 1 means only impact < 1 is enforced.
// MinLiquidity:   pools with TotalLiquidity below this are pruned. 0 disables.
type Limits struct {
	MaxPriceImpact float64
	MinLiquidity   float64
}

// Option configures Limits.
type Option func(*Limits)

// WithMaxPriceImpact sets the per-edge impact ceiling. Panics outside (0, 1].
func WithMaxPriceImpact(x float64) Option {
	return func(l *Limits) {
		if !(x > 0 && x <= 1) {
			panic(ErrBadMaxPriceImpact.Error())
		}
		l.MaxPriceImpact = x
	}
}

// WithMinLiquidity sets the liquidity floor. Panics on negative values.
func WithMinLiquidity(x float64) Option {
	return func(l *Limits) {
		if x < 0 || math.IsNaN(x) {
			panic(ErrBadMinLiquidity.Error())
		}
		l.MinLiquidity = x
	}
}

// DefaultLimits returns Limits with no ceiling beyond impact < 1 and no floor.
func DefaultLimits() Limits {
	return Limits{MaxPriceImpact: 1, MinLiquidity: 0}
}

// NewLimits applies opts over DefaultLimits.
func NewLimits(opts ...Option) Limits {
	l := DefaultLimits()
	for _, opt := range opts {
		opt(&l)
	}

	return l
}

// AvailableLiquidity is total_liquidity - min(max_trade_size, total_liquidity).
func AvailableLiquidity(p core.Pool) float64 {
	return p.TotalLiquidity - math.Min(p.MaxTradeSize, p.TotalLiquidity)
}

// MaxAmount is the largest amount the pool's own bounds accept.
func MaxAmount(p core.Pool) float64 {
	return math.Min(p.MaxTradeSize, AvailableLiquidity(p))
}

// Check evaluates p at amount under the given options.
func Check(p core.Pool, amount float64, opts ...Option) Verdict {
	return NewLimits(opts...).Check(p, amount)
}

// Check evaluates p at amount under l. Checks run cheapest first.
func (l Limits) Check(p core.Pool, amount float64) Verdict {
	v := Verdict{MaxAmount: MaxAmount(p)}
	switch {
	case amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0):
		v.Reason = ReasonBadAmount
	case l.MinLiquidity > 0 && p.TotalLiquidity < l.MinLiquidity:
		v.Reason = ReasonShallowPool
	case amount < p.MinTradeSize:
		v.Reason = ReasonBelowMinTrade
	case amount > p.MaxTradeSize:
		v.Reason = ReasonAboveMaxTrade
	case amount > AvailableLiquidity(p):
		v.Reason = ReasonInsufficientLiquidity
	default:
		v.Impact = rate.PriceImpact(p, amount)
		switch {
		case v.Impact >= 1:
			v.Reason = ReasonImpactSaturated
		case l.MaxPriceImpact > 0 && l.MaxPriceImpact < 1 && v.Impact > l.MaxPriceImpact:
			v.Reason = ReasonImpactCeiling
		default:
			v.Feasible = true
			v.Reason = ReasonOK
		}
	}

	return v
}
