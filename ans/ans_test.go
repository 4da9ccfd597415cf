package ans_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/entropy/ans"
	"github.com/ha1tch/entropy/internal/testutil"
	"github.com/ha1tch/entropy/model"
)

type gaussian struct {
	mean, stddev float64
}

func (g gaussian) CDF(x float64) float64 {
	return 0.5 * (1 + math.Erf((x-g.mean)/(g.stddev*math.Sqrt2)))
}

func TestEmptyCoderIsEmpty(t *testing.T) {
	c, err := ans.New[int, uint32, uint64](12)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	words, err := c.IntoCompressed()
	require.NoError(t, err)
	require.Empty(t, words)

	c2, err := ans.FromCompressed[int, uint32, uint64](12, nil)
	require.NoError(t, err)
	require.True(t, c2.IsEmpty())
}

func TestRoundTripSmallAlphabet(t *testing.T) {
	table, err := model.NewCategorical[uint32]([]float64{1, 2, 3, 4}, 12)
	require.NoError(t, err)

	symbols := []int{0, 3, 1, 2, 2, 0, 3, 3, 1}

	c, err := ans.New[int, uint32, uint64](12)
	require.NoError(t, err)
	// ANS is LIFO: encode in reverse so decode recovers forward order.
	for i := len(symbols) - 1; i >= 0; i-- {
		require.NoError(t, c.EncodeSymbol(symbols[i], table))
	}

	words, err := c.IntoCompressed()
	require.NoError(t, err)

	d, err := ans.FromCompressed[int, uint32, uint64](12, words)
	require.NoError(t, err)

	var got []int
	for range symbols {
		sym, err := d.DecodeSymbol(table)
		require.NoError(t, err)
		got = append(got, sym)
	}
	require.Equal(t, symbols, got)
	require.True(t, d.IsEmpty())
}

func TestCertaintySymbolEncodesToZeroWords(t *testing.T) {
	table, err := model.NewCategorical[uint32]([]float64{0, 1, 0}, 10)
	require.NoError(t, err)

	c, err := ans.New[int, uint32, uint64](10)
	require.NoError(t, err)
	require.NoError(t, c.EncodeSymbol(1, table))

	words, err := c.IntoCompressed()
	require.NoError(t, err)
	require.Empty(t, words)

	d, err := ans.FromCompressed[int, uint32, uint64](10, nil)
	require.NoError(t, err)
	sym, err := d.DecodeSymbol(table)
	require.NoError(t, err)
	require.Equal(t, 1, sym)
}

func TestFromCompressedRejectsZeroTopWord(t *testing.T) {
	_, err := ans.FromCompressed[int, uint32, uint64](12, []uint32{5, 0})
	require.ErrorIs(t, err, ans.ErrInvalidCompressedData)
}

func TestFromBinaryRoundTripsRawWords(t *testing.T) {
	raw := []uint16{0, 0, 7, 0}
	c, err := ans.FromBinary[int, uint16, uint32](8, raw)
	require.NoError(t, err)

	back, err := c.IntoBinary()
	require.NoError(t, err)
	require.Equal(t, raw, back)
}

func TestIntoBinaryRejectsAfterEncoding(t *testing.T) {
	table, err := model.NewCategorical[uint16]([]float64{1, 1}, 8)
	require.NoError(t, err)
	c, err := ans.FromBinary[int, uint16, uint32](8, []uint16{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, c.EncodeSymbol(1, table))

	_, err = c.IntoBinary()
	require.ErrorIs(t, err, ans.ErrNotBinarySealable)
}

// TestSeedDeterministicGaussianRoundTrip mirrors the fixed-seed scenario:
// decode 1000 symbols drawn under 1000 independent quantized-Gaussian
// models from a buffer seeded with 1024 random words, then re-encode those
// symbols in reverse with the same models. The reconstructed compressed
// buffer must equal the original exactly.
func TestSeedDeterministicGaussianRoundTrip(t *testing.T) {
	const precision = 24
	seed := (uint64(1024) << 32) ^ 1000
	rng := testutil.NewXoshiro256StarStar(seed)

	original := make([]uint32, 1024)
	for i := range original {
		original[i] = rng.Uint32()
	}
	if original[len(original)-1] == 0 {
		original[len(original)-1] = 1
	}

	const n = 1000
	models := make([]*model.OffsetTable[uint32], n)
	for i := 0; i < n; i++ {
		mean := rng.UniformFloat64(-100, 100)
		std := rng.UniformFloat64(0.001, 10.001)
		q, err := model.NewLeakyQuantizer[uint32](-127, 127, precision)
		require.NoError(t, err)
		table, err := q.Quantize(gaussian{mean: mean, stddev: std})
		require.NoError(t, err)
		models[i] = table
	}

	d, err := ans.FromCompressed[int32, uint32, uint64](precision, original)
	require.NoError(t, err)

	symbols := make([]int32, n)
	for i := 0; i < n; i++ {
		sym, err := d.DecodeSymbol(models[i])
		require.NoError(t, err)
		symbols[i] = sym
	}

	for i := n - 1; i >= 0; i-- {
		require.NoError(t, d.EncodeSymbol(symbols[i], models[i]))
	}

	reconstructed, err := d.IntoCompressed()
	require.NoError(t, err)
	require.Equal(t, original, reconstructed)
}
