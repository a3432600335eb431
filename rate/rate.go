// Package rate converts a pool's quoted rate, fee and a trade size into an
// effective rate and an additive shortest-path weight.
//
// Model:
//
//	impact (AMM, reserves known)   = a / (reserve_in + a)
//	impact (linear, depth only)    = (a / total_liquidity) * ImpactCoefficient
//	effective_rate                 = base_rate * (1 - fee_rate) * (1 - impact)
//	weight                         = -ln(effective_rate)
//
// Maximizing a product of rates along a path is equivalent to minimizing the
// sum of their weights, which is what the bellmanford solver does. Weight is
// non-negative for effective_rate ≤ 1 and negative above 1.
//
// All functions are pure and safe for concurrent use.
package rate

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/dexroute/core"
)

// ImpactCoefficient scales the linear impact model.
const ImpactCoefficient = 0.5

var (
	// ErrBadAmount indicates a negative or non-finite trade amount.
	ErrBadAmount = errors.New("rate: amount must be finite and non-negative")

	// ErrInfeasible indicates that impact reached 1 (or the rate collapsed to 0) at this amount.
	ErrInfeasible = errors.New("rate: trade exhausts pool depth")
)

// EdgeView is the transient, amount-dependent view of one pool.
type EdgeView struct {
	Amount        float64 // input, From units
	PriceImpact   float64 // in [0, 1)
	EffectiveRate float64 // > 0
	Weight        float64 // -ln(EffectiveRate)
	Output        float64 // Amount * EffectiveRate, To units
	FeeAmount     float64 // Amount * FeeRate, From units
}

// AMMImpact returns amount / (reserveIn + amount). A non-positive reserve
// yields 1 (no depth at all).
func AMMImpact(amount, reserveIn float64) float64 {
	if reserveIn <= 0 {
		return 1
	}

	return amount / (reserveIn + amount)
}

// LinearImpact returns (amount / liquidity) * ImpactCoefficient.
// A non-positive liquidity yields 1.
func LinearImpact(amount, liquidity float64) float64 {
	if liquidity <= 0 {
		return 1
	}

	return amount / liquidity * ImpactCoefficient
}

// PriceImpact picks the AMM model when p carries reserves, the linear model otherwise.
func PriceImpact(p core.Pool, amount float64) float64 {
	if p.HasReserves() {
		return AMMImpact(amount, p.ReserveIn)
	}

	return LinearImpact(amount, p.TotalLiquidity)
}

// EffectiveRate returns baseRate·(1-fee)·(1-impact), clamped at 0.
// A zero result marks the edge infeasible at this amount.
func EffectiveRate(baseRate, fee, impact float64) float64 {
	r := baseRate * (1 - fee) * (1 - impact)
	if r <= 0 || math.IsNaN(r) {
		return 0
	}

	return r
}

// Weight returns -ln(effectiveRate); +Inf for non-positive rates.
func Weight(effectiveRate float64) float64 {
	if effectiveRate <= 0 || math.IsNaN(effectiveRate) {
		return math.Inf(1)
	}

	return -math.Log(effectiveRate)
}

// Quote evaluates p at amount.
//
// Errors:
//   - ErrBadAmount if amount < 0 or non-finite.
//   - ErrInfeasible if impact ≥ 1 or the effective rate is not strictly positive.
func Quote(p core.Pool, amount float64) (EdgeView, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return EdgeView{}, fmt.Errorf("%w: %g", ErrBadAmount, amount)
	}
	impact := PriceImpact(p, amount)
	if impact >= 1 {
		return EdgeView{}, fmt.Errorf("%w: %s→%s impact %g at %g", ErrInfeasible, p.From, p.To, impact, amount)
	}
	eff := EffectiveRate(p.BaseRate, p.FeeRate, impact)
	if eff <= 0 {
		return EdgeView{}, fmt.Errorf("%w: %s→%s effective rate collapsed", ErrInfeasible, p.From, p.To)
	}

	return EdgeView{
		Amount:        amount,
		PriceImpact:   impact,
		EffectiveRate: eff,
		Weight:        Weight(eff),
		Output:        amount * eff,
		FeeAmount:     amount * p.FeeRate,
	}, nil
}
