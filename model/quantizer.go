package model

// Distribution is a continuous cumulative distribution function supplied by
// the caller (a Gaussian, a Laplace, a learned density — fitting one is out
// of scope here, only the contract is). CDF(x) must be non-decreasing and
// tend to 0 as x -> -inf, 1 as x -> +inf.
type Distribution interface {
	CDF(x float64) float64
}

// LeakyQuantizer turns a continuous Distribution into a Table over the
// integers [min, max] by integrating probability mass over unit intervals
// centered on each integer, then normalizing the same way NewCategorical
// does (round to the fixed-point scale, leak at least one unit to every
// symbol, correct the rounding error against the largest bucket). "Leaky"
// refers to that minimum-one-unit floor: without it, a symbol far in a
// distribution's tail could quantize to probability zero and become
// impossible to encode.
type LeakyQuantizer[P Unsigned] struct {
	min, max  int32
	precision int
}

// NewLeakyQuantizer builds a quantizer over the closed integer range
// [min, max].
func NewLeakyQuantizer[P Unsigned](min, max int32, precision int) (*LeakyQuantizer[P], error) {
	if max < min {
		return nil, ErrDegenerateModel
	}
	return &LeakyQuantizer[P]{min: min, max: max, precision: precision}, nil
}

// Quantize fits dist to this quantizer's support, returning a model usable
// as both EncoderModel[int32, P] and DecoderModel[int32, P].
func (q *LeakyQuantizer[P]) Quantize(dist Distribution) (*OffsetTable[P], error) {
	n := int(q.max-q.min) + 1
	weights := make([]float64, n)

	prevCDF := 0.0
	for i := 0; i < n; i++ {
		var cur float64
		if i == n-1 {
			cur = 1.0
		} else {
			cur = dist.CDF(float64(q.min+int32(i)) + 0.5)
		}
		weights[i] = cur - prevCDF
		prevCDF = cur
	}

	table, err := NewCategorical[P](weights, q.precision)
	if err != nil {
		return nil, err
	}
	return &OffsetTable[P]{Table: table, offset: q.min}, nil
}

// OffsetTable is a Table whose symbols are int32 values offset from a
// contiguous zero-based index, so a LeakyQuantizer's support need not start
// at zero.
type OffsetTable[P Unsigned] struct {
	*Table[P]
	offset int32
}

func (t *OffsetTable[P]) LeftCumulativeAndProbability(symbol int32) (P, P, error) {
	return t.Table.LeftCumulativeAndProbability(int(symbol - t.offset))
}

func (t *OffsetTable[P]) QuantileFunction(quantile P) (int32, P, P) {
	idx, left, prob := t.Table.QuantileFunction(quantile)
	return int32(idx) + t.offset, left, prob
}
