package model

import (
	"math"

	"github.com/ha1tch/entropy/wordtype"
)

// Table is a contiguous categorical model over symbols [0, n): symbol i has
// left-cumulative leftCumulative[i] and probability
// leftCumulative[i+1]-leftCumulative[i]. It backs both Categorical (weights
// supplied directly) and LeakyQuantizer (weights derived from a CDF).
//
// The normalization this is built from is the same one the teacher's
// BuildTable performs for byte frequencies (normalize to the fixed-point
// scale, then correct rounding error by adjusting the single largest
// bucket) in _examples/ha1tch-unz/pkg/ans/ans.go, generalized from counts to
// arbitrary weights and from a hardcoded ProbScale=1<<14 to a runtime
// PRECISION.
type Table[P Unsigned] struct {
	leftCumulative []P
	precision      int
}

func (t *Table[P]) Precision() int { return t.precision }

// NumSymbols returns how many symbols the table covers.
func (t *Table[P]) NumSymbols() int { return len(t.leftCumulative) - 1 }

// LeftCumulativeAndProbability implements model.EncoderModel[int, P].
func (t *Table[P]) LeftCumulativeAndProbability(symbol int) (P, P, error) {
	if symbol < 0 || symbol >= t.NumSymbols() {
		return 0, 0, ErrImpossibleSymbol
	}
	left := t.leftCumulative[symbol]
	prob := t.leftCumulative[symbol+1] - left
	if prob == 0 {
		return 0, 0, ErrImpossibleSymbol
	}
	return left, prob, nil
}

// QuantileFunction implements model.DecoderModel[int, P] via binary search
// over the cumulative table.
func (t *Table[P]) QuantileFunction(quantile P) (int, P, P) {
	lo, hi := 0, len(t.leftCumulative)-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if t.leftCumulative[mid] <= quantile {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, t.leftCumulative[lo], t.leftCumulative[lo+1] - t.leftCumulative[lo]
}

// NewCategorical normalizes weights (proportional, non-negative, not all
// zero) to a Table whose probabilities sum to exactly 1<<precision, with
// every nonzero-weight symbol guaranteed at least one "leak" unit of
// probability so it stays encodable.
func NewCategorical[P Unsigned](weights []float64, precision int) (*Table[P], error) {
	n := len(weights)
	if n == 0 {
		return nil, ErrDegenerateModel
	}
	if n == 1 && precision >= wordtype.Bits[P]() {
		// The sole symbol's cumulative probability is exactly 1<<precision,
		// which needs one more bit than P holds when precision == Word::BITS:
		// it wraps to 0 and becomes indistinguishable from an empty table.
		return nil, ErrDegenerateModel
	}

	var total float64
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, ErrDegenerateModel
		}
		total += w
	}
	if total <= 0 {
		return nil, ErrDegenerateModel
	}

	scale := uint64(1) << precision
	normalized := make([]uint64, n)
	var normTotal uint64
	for i, w := range weights {
		if w == 0 {
			continue
		}
		v := uint64(w/total*float64(scale) + 0.5)
		if v == 0 {
			v = 1
		}
		normalized[i] = v
		normTotal += v
	}

	if normTotal != scale {
		maxIdx := 0
		for i, v := range normalized {
			if v > normalized[maxIdx] {
				maxIdx = i
			}
		}
		if normTotal > scale {
			diff := normTotal - scale
			if normalized[maxIdx] <= diff {
				return nil, ErrDegenerateModel
			}
			normalized[maxIdx] -= diff
		} else {
			normalized[maxIdx] += scale - normTotal
		}
	}

	leftCumulative := make([]P, n+1)
	var cum uint64
	for i, v := range normalized {
		leftCumulative[i] = P(cum)
		cum += v
	}
	leftCumulative[n] = P(cum)

	return &Table[P]{leftCumulative: leftCumulative, precision: precision}, nil
}
