package route

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Percent formats a fraction as a two-decimal percentage, e.g. 0.0196 → "1.96%".
func Percent(x float64) string {
	return decimal.NewFromFloat(x).Shift(2).StringFixed(2) + "%"
}

// Amount formats x with six decimals.
func Amount(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(6)
}

// Summary renders r on one line:
//
//	USDC → RAY → SOL | in 1000.000000 out 0.998000 | rate 0.000998 | impact 1.25% | hops 2 | score 0.71
func Summary(r Route) string {
	var b strings.Builder
	for i, a := range r.Path.Assets() {
		if i > 0 {
			b.WriteString(" → ")
		}
		b.WriteString(string(a))
	}
	b.WriteString(" | in ")
	b.WriteString(Amount(r.InputAmount))
	b.WriteString(" out ")
	b.WriteString(Amount(r.OutputAmount))
	b.WriteString(" | rate ")
	b.WriteString(Amount(r.EffectiveRate))
	b.WriteString(" | impact ")
	b.WriteString(Percent(r.TotalPriceImpact))
	b.WriteString(" | hops ")
	b.WriteString(decimal.NewFromInt(int64(r.HopCount)).String())
	b.WriteString(" | score ")
	b.WriteString(decimal.NewFromFloat(r.EfficiencyScore).StringFixed(2))

	return b.String()
}
