// Package huffman implements a minimum-redundancy prefix code: a heap-built
// Huffman tree with separate encoder and decoder representations, grounded
// on _examples/original_source/src/symbol/huffman.rs's
// EncoderHuffmanTree/DecoderHuffmanTree, cross-checked against the pack's
// other Huffman codecs (jba-huffman, Consensys-compress, flanglet-kanzi-go,
// hpxro7-compressor-head) for idiomatic Go naming. Unlike those canonical
// (length-limited) codes, this one builds the untruncated tree the way the
// original does, so it reproduces its exact tie-breaking behavior.
package huffman

import (
	"container/heap"
	"errors"
	"math"
)

// ErrImpossibleSymbol is returned by EncoderTree.Encode for a symbol outside
// the tree's alphabet.
var ErrImpossibleSymbol = errors.New("huffman: symbol outside this tree's alphabet")

// ErrNoWeights is returned by the tree constructors when given an empty
// weight slice; a Huffman tree needs at least one symbol.
var ErrNoWeights = errors.New("huffman: at least one weight is required")

// ErrNaNWeight is returned when a weight is NaN: NaN has no total order, so
// the tie-breaking this package guarantees (lowest index wins) cannot be
// defined for it. This mirrors the source's PanickingFloatOrd, translated
// into a returned error instead of a panic.
var ErrNaNWeight = errors.New("huffman: weight is NaN")

type weightedIndex struct {
	weight float64
	index  int
}

// itemHeap orders by (weight, index) ascending, breaking weight ties by the
// lower original index, matching BinaryHeap<Reverse<(P, usize)>> in the
// source.
type itemHeap []weightedIndex

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].index < h[j].index
}
func (h itemHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x any)        { *h = append(*h, x.(weightedIndex)) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func buildHeap(weights []float64) (itemHeap, error) {
	if len(weights) == 0 {
		return nil, ErrNoWeights
	}
	h := make(itemHeap, len(weights))
	for i, w := range weights {
		if math.IsNaN(w) {
			return nil, ErrNaNWeight
		}
		h[i] = weightedIndex{weight: w, index: i}
	}
	heap.Init(&h)
	return h, nil
}

// EncoderTree assigns each symbol a codeword by walking from its leaf up to
// the root; nodes[i] for i < numSymbols is a leaf's parent link, encoded as
// (parentIndex<<1)|childSide, with 0 marking the root.
type EncoderTree struct {
	nodes []int
}

// NewEncoderTree builds an encoder tree from per-symbol weights (frequency,
// probability, anything additive and orderable). Ties are broken by the
// lower symbol index, deterministically.
func NewEncoderTree(weights []float64) (*EncoderTree, error) {
	h, err := buildHeap(weights)
	if err != nil {
		return nil, err
	}
	n := len(weights)
	nodes := make([]int, 2*n-1)
	nextNodeIndex := n

	for h.Len() >= 2 {
		a := heap.Pop(&h).(weightedIndex)
		b := heap.Pop(&h).(weightedIndex)
		heap.Push(&h, weightedIndex{weight: a.weight + b.weight, index: nextNodeIndex})
		nodes[a.index] = nextNodeIndex << 1
		nodes[b.index] = (nextNodeIndex << 1) | 1
		nextNodeIndex++
	}
	return &EncoderTree{nodes: nodes}, nil
}

// NumSymbols returns the alphabet size this tree was built for.
func (t *EncoderTree) NumSymbols() int { return len(t.nodes)/2 + 1 }

// Encode returns symbol's codeword, most significant bit first.
func (t *EncoderTree) Encode(symbol int) ([]bool, error) {
	if symbol < 0 || symbol >= t.NumSymbols() {
		return nil, ErrImpossibleSymbol
	}
	var reversed []bool
	nodeIndex := symbol
	for {
		node := t.nodes[nodeIndex]
		if node == 0 {
			break
		}
		reversed = append(reversed, node&1 != 0)
		nodeIndex = node >> 1
	}
	codeword := make([]bool, len(reversed))
	for i, bit := range reversed {
		codeword[len(reversed)-1-i] = bit
	}
	return codeword, nil
}

// DecoderTree decodes against a binary tree of internal nodes only; leaves
// are symbol indices encoded directly as child values below numSymbols.
type DecoderTree struct {
	nodes [][2]int
}

// NewDecoderTree builds a decoder tree from the same weights an
// EncoderTree would use, so the two always agree.
func NewDecoderTree(weights []float64) (*DecoderTree, error) {
	h, err := buildHeap(weights)
	if err != nil {
		return nil, err
	}
	n := len(weights)
	nodes := make([][2]int, 0, n-1)
	nextNodeIndex := n

	for h.Len() >= 2 {
		a := heap.Pop(&h).(weightedIndex)
		b := heap.Pop(&h).(weightedIndex)
		heap.Push(&h, weightedIndex{weight: a.weight + b.weight, index: nextNodeIndex})
		nodes = append(nodes, [2]int{a.index, b.index})
		nextNodeIndex++
	}
	return &DecoderTree{nodes: nodes}, nil
}

// NumSymbols returns the alphabet size this tree was built for.
func (t *DecoderTree) NumSymbols() int { return len(t.nodes) + 1 }

// BitSource is the pull interface DecoderTree.Decode reads from: ok is
// false once the source is exhausted.
type BitSource interface {
	NextBit() (bit, ok bool)
}

// ErrOutOfBits is returned by Decode when the bit source is exhausted
// before a leaf is reached.
var ErrOutOfBits = errors.New("huffman: bit source exhausted before reaching a leaf")

// Decode reads bits from source until it reaches a leaf, returning the
// decoded symbol. A singleton tree (NumSymbols() == 1) reads no bits at
// all and always returns symbol 0.
func (t *DecoderTree) Decode(source BitSource) (int, error) {
	numSymbols := t.NumSymbols()
	nodeIndex := 2 * len(t.nodes)
	for nodeIndex >= numSymbols {
		bit, ok := source.NextBit()
		if !ok {
			return 0, ErrOutOfBits
		}
		side := 0
		if bit {
			side = 1
		}
		nodeIndex = t.nodes[nodeIndex-numSymbols][side]
	}
	return nodeIndex, nil
}
