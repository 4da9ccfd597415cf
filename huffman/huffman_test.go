package huffman_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/entropy/huffman"
)

func codewordString(t *testing.T, tree *huffman.EncoderTree, symbol int) string {
	t.Helper()
	bits, err := tree.Encode(symbol)
	require.NoError(t, err)
	var sb strings.Builder
	for _, b := range bits {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// TestWeightedCodewordsMatchKnownTree is spec.md §8 scenario 5: the weights
// [2, 2, 4, 1, 1] yield exactly these codewords, ties broken by index.
func TestWeightedCodewordsMatchKnownTree(t *testing.T) {
	weights := []float64{2, 2, 4, 1, 1}
	tree, err := huffman.NewEncoderTree(weights)
	require.NoError(t, err)

	want := []string{"00", "01", "11", "100", "101"}
	for symbol, w := range want {
		require.Equal(t, w, codewordString(t, tree, symbol), "symbol %d", symbol)
	}
}

// TestSingletonTreeEncodesToEmptyCodeword is spec.md §8 scenario 6: a
// single-symbol alphabet needs zero bits, and decoding the empty bit string
// returns symbol 0.
func TestSingletonTreeEncodesToEmptyCodeword(t *testing.T) {
	enc, err := huffman.NewEncoderTree([]float64{1})
	require.NoError(t, err)
	bits, err := enc.Encode(0)
	require.NoError(t, err)
	require.Empty(t, bits)

	dec, err := huffman.NewDecoderTree([]float64{1})
	require.NoError(t, err)
	symbol, err := dec.Decode(huffman.NewBitReader[uint32](nil, 0))
	require.NoError(t, err)
	require.Equal(t, 0, symbol)
}

func TestEncoderAndDecoderTreesAgreeForEverySymbol(t *testing.T) {
	weights := []float64{2, 2, 4, 1, 1}
	enc, err := huffman.NewEncoderTree(weights)
	require.NoError(t, err)
	dec, err := huffman.NewDecoderTree(weights)
	require.NoError(t, err)

	for symbol := 0; symbol < enc.NumSymbols(); symbol++ {
		bits, err := enc.Encode(symbol)
		require.NoError(t, err)
		idx := 0
		source := bitSliceSource{bits: bits, pos: &idx}
		got, err := dec.Decode(source)
		require.NoError(t, err)
		require.Equal(t, symbol, got)
	}
}

type bitSliceSource struct {
	bits []bool
	pos  *int
}

func (s bitSliceSource) NextBit() (bool, bool) {
	if *s.pos >= len(s.bits) {
		return false, false
	}
	b := s.bits[*s.pos]
	*s.pos++
	return b, true
}

func TestBitWriterReaderRoundTripsThroughWords(t *testing.T) {
	weights := []float64{2, 2, 4, 1, 1}
	enc, err := huffman.NewEncoderTree(weights)
	require.NoError(t, err)
	dec, err := huffman.NewDecoderTree(weights)
	require.NoError(t, err)

	symbols := []int{0, 1, 2, 3, 4, 2, 2, 0, 1, 4, 3, 2}
	w := huffman.NewBitWriter[uint16]()
	for _, s := range symbols {
		bits, err := enc.Encode(s)
		require.NoError(t, err)
		w.WriteCodeword(bits)
	}
	words, totalBits := w.Into()

	r := huffman.NewBitReader[uint16](words, totalBits)
	got := make([]int, len(symbols))
	for i := range got {
		s, err := dec.Decode(r)
		require.NoError(t, err)
		got[i] = s
	}
	require.Equal(t, symbols, got)
}

func TestNaNWeightIsRejected(t *testing.T) {
	_, err := huffman.NewEncoderTree([]float64{1, math.NaN()})
	require.ErrorIs(t, err, huffman.ErrNaNWeight)
}

func TestEmptyWeightsRejected(t *testing.T) {
	_, err := huffman.NewEncoderTree(nil)
	require.ErrorIs(t, err, huffman.ErrNoWeights)
}
