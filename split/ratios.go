package split

import (
	"errors"
	"fmt"
	"math"
)

// MaxSplits bounds the number of legs in one split route.
const MaxSplits = 10

// Schedule constants: the fixed head and the geometric tail 0.4×0.7^(i-1), i ≥ 4.
var fixedHead = [3]float64{0.6, 0.3, 0.1}

const (
	tailBase  = 0.4
	tailDecay = 0.7
)

// ErrBadSplitCount indicates a split count outside [1, MaxSplits].
var ErrBadSplitCount = errors.New("split: split count must be between 1 and 10")

// Ratios returns the ratio schedule for n legs.
//
//   - n = 3: exactly [0.6, 0.3, 0.1], which already sums to one.
//   - n < 3: the first n fixed values, renormalized.
//   - n > 3: the fixed head followed by 0.4×0.7^(i-1) for i = 4..n, with the
//     whole set (head included) renormalized to sum to one.
func Ratios(n int) ([]float64, error) {
	if n < 1 || n > MaxSplits {
		return nil, fmt.Errorf("%w: %d", ErrBadSplitCount, n)
	}
	if n == len(fixedHead) {
		return append([]float64(nil), fixedHead[:]...), nil
	}

	raw := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		if i <= len(fixedHead) {
			raw = append(raw, fixedHead[i-1])
			continue
		}
		raw = append(raw, tailBase*math.Pow(tailDecay, float64(i-1)))
	}

	return normalize(raw), nil
}

// normalize divides every entry by the sum; the last entry absorbs rounding
// so the result sums to one as closely as float64 allows.
func normalize(xs []float64) []float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	out := make([]float64, len(xs))
	var acc float64
	for i := range xs {
		if i == len(xs)-1 {
			out[i] = 1 - acc
			break
		}
		out[i] = xs[i] / sum
		acc += out[i]
	}

	return out
}

// trimForMinimum drops legs whose amount would fall below minAmount and
// renormalizes the rest, preserving schedule order. When every leg is too
// small a single leg carrying the whole amount remains.
func trimForMinimum(ratios []float64, total, minAmount float64) []float64 {
	if minAmount <= 0 {
		return ratios
	}
	kept := make([]float64, 0, len(ratios))
	for _, r := range ratios {
		if total*r >= minAmount {
			kept = append(kept, r)
		}
	}
	switch {
	case len(kept) == len(ratios):
		return ratios
	case len(kept) == 0:
		return []float64{1}
	}

	return normalize(kept)
}
