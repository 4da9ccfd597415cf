package auryn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/entropy/auryn"
	"github.com/ha1tch/entropy/internal/testutil"
	"github.com/ha1tch/entropy/model"
)

type gaussian struct {
	mean, stddev float64
}

func (g gaussian) CDF(x float64) float64 {
	return 0.5 * (1 + math.Erf((x-g.mean)/(g.stddev*math.Sqrt2)))
}

func TestEmptySupplyAndWasteRoundTrip(t *testing.T) {
	a, err := auryn.WithCompressedData[int32, uint32, uint64](24, nil)
	require.NoError(t, err)
	require.True(t, a.MaybeEmpty())

	supply, waste, err := a.IntoSupplyAndWaste()
	require.NoError(t, err)
	require.Empty(t, supply)
	require.Empty(t, waste)

	a2, err := auryn.WithSupplyAndWaste[int32, uint32, uint64](24, supply, waste)
	require.NoError(t, err)
	require.True(t, a2.MaybeEmpty())
}

// TestDecodeThenEncodeReverseRestoresSupply exercises the bits-back round
// trip law: decoding a sequence of symbols from a supply of compressed
// words, then re-encoding those same symbols under the same models in
// reverse, must drain waste back to empty and restore supply to the
// original compressed data exactly.
func TestDecodeThenEncodeReverseRestoresSupply(t *testing.T) {
	const precision = 24
	rng := testutil.NewXoshiro256StarStar((uint64(64) << 32) ^ 50)

	compressed := make([]uint32, 64)
	for i := range compressed {
		compressed[i] = rng.Uint32()
	}
	compressed[len(compressed)-1] |= 1 << 31

	const n = 50
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

	a, err := auryn.WithCompressedData[int32, uint32, uint64](precision, compressed)
	require.NoError(t, err)

	symbols := make([]int32, n)
	for i := 0; i < n; i++ {
		s, err := a.DecodeSymbol(models[i])
		require.NoError(t, err)
		symbols[i] = s
	}

	for i := n - 1; i >= 0; i-- {
		require.NoError(t, a.EncodeSymbol(symbols[i], models[i]))
	}

	supply, waste, err := a.IntoSupplyAndWaste()
	require.NoError(t, err)
	require.Empty(t, waste)
	require.Equal(t, compressed, supply)
}

// TestWasteMutRoundTripsThroughTheGuard exercises the waste-guard: decoding
// a symbol off waste and immediately re-encoding it with the same model,
// inside a single WasteMut call, must leave the Auryn in a state from which
// ordinary operation continues exactly as if WasteMut had never been
// called, because the guard restores waste's relaxed invariant on every
// exit path.
func TestWasteMutRoundTripsThroughTheGuard(t *testing.T) {
	const precision = 24
	rng := testutil.NewXoshiro256StarStar((uint64(64) << 32) ^ 99)

	compressed := make([]uint32, 64)
	for i := range compressed {
		compressed[i] = rng.Uint32()
	}
	compressed[len(compressed)-1] |= 1 << 31

	const n = 20
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
	probeTable, err := model.NewCategorical[uint32]([]float64{1, 1, 1, 1}, precision)
	require.NoError(t, err)
	probe := &model.OffsetTable[uint32]{Table: probeTable}

	a, err := auryn.WithCompressedData[int32, uint32, uint64](precision, compressed)
	require.NoError(t, err)

	symbols := make([]int32, n)
	for i := 0; i < n; i++ {
		s, err := a.DecodeSymbol(models[i])
		require.NoError(t, err)
		symbols[i] = s
	}

	err = a.WasteMut(func(w *auryn.WasteAccess[int32, uint32, uint64]) error {
		s, err := w.DecodeSymbol(probe)
		if err != nil {
			return err
		}
		return w.EncodeSymbol(s, probe)
	})
	require.NoError(t, err)

	for i := n - 1; i >= 0; i-- {
		require.NoError(t, a.EncodeSymbol(symbols[i], models[i]))
	}

	supply, waste, err := a.IntoSupplyAndWaste()
	require.NoError(t, err)
	require.Empty(t, waste)
	require.Equal(t, compressed, supply)
}
