package route

import (
	"math"
	"sort"
)

// Scoring weights.
const (
	FeePenalty = 10.0
	HopPenalty = 0.1
)

// Recommendation thresholds used by Analyze.
const (
	highImpactThreshold = 0.02
	manyHopsThreshold   = 2
	highFeeThreshold    = 10.0
)

// EfficiencyScore is (1 - totalImpact) - totalFee×10 - hops×0.1. Higher is better.
// It may be negative; Analyze floors it at zero for reporting only.
func EfficiencyScore(totalImpact, totalFee float64, hops int) float64 {
	return (1 - totalImpact) - totalFee*FeePenalty - float64(hops)*HopPenalty
}

// Rank sorts routes by descending EfficiencyScore; ties go to the larger
// OutputAmount, then to fewer hops. The sort is stable.
func Rank(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.EfficiencyScore != b.EfficiencyScore {
			return a.EfficiencyScore > b.EfficiencyScore
		}
		if a.OutputAmount != b.OutputAmount {
			return a.OutputAmount > b.OutputAmount
		}

		return a.HopCount < b.HopCount
	})
}

// Analysis summarizes a route for reporting.
type Analysis struct {
	Hops            int
	AvgPriceImpact  float64
	TotalFeeAmount  float64
	EfficiencyScore float64 // floored at 0
	Recommendations []string
}

// Analyze derives an Analysis from r.
func Analyze(r Route) Analysis {
	a := Analysis{Hops: r.HopCount}
	if r.HopCount == 0 {
		return a
	}
	a.AvgPriceImpact = r.TotalPriceImpact / float64(r.HopCount)
	a.TotalFeeAmount = r.FeeAmount()
	a.EfficiencyScore = math.Max(0, r.EfficiencyScore)

	if r.TotalPriceImpact > highImpactThreshold {
		a.Recommendations = append(a.Recommendations, "consider splitting the trade to reduce price impact")
	}
	if r.HopCount > manyHopsThreshold {
		a.Recommendations = append(a.Recommendations, "route has many hops, consider a direct pair")
	}
	if a.TotalFeeAmount > highFeeThreshold {
		a.Recommendations = append(a.Recommendations, "high fees detected, consider alternative venues")
	}

	return a
}

// SlippageBounds returns expected×(1-tolerance) and expected×(1+tolerance).
func SlippageBounds(expected, tolerance float64) (lo, hi float64) {
	return expected * (1 - tolerance), expected * (1 + tolerance)
}
