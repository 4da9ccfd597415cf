package huffman

import "github.com/ha1tch/entropy/wordtype"

// BitWriter packs a sequence of bits, most significant bit of each Word
// first, into a growable Word buffer, the way this module's stream coders
// pack bits into the shared backend instead of handing back a raw []bool
// per call.
type BitWriter[W wordtype.Unsigned] struct {
	words    []W
	cur      W
	filled   int
	wordBits int
}

// NewBitWriter returns an empty BitWriter.
func NewBitWriter[W wordtype.Unsigned]() *BitWriter[W] {
	return &BitWriter[W]{wordBits: wordtype.Bits[W]()}
}

// WriteBit appends one bit.
func (w *BitWriter[W]) WriteBit(bit bool) {
	w.cur <<= 1
	if bit {
		w.cur |= 1
	}
	w.filled++
	if w.filled == w.wordBits {
		w.words = append(w.words, w.cur)
		w.cur, w.filled = 0, 0
	}
}

// WriteCodeword appends every bit of codeword in order.
func (w *BitWriter[W]) WriteCodeword(codeword []bool) {
	for _, bit := range codeword {
		w.WriteBit(bit)
	}
}

// Into flushes any partial trailing word (left-aligned, zero-padded) and
// returns the packed words along with the total number of valid bits, which
// a BitReader needs to know where the real data ends.
func (w *BitWriter[W]) Into() (words []W, totalBits int) {
	total := len(w.words)*w.wordBits + w.filled
	if w.filled > 0 {
		w.words = append(w.words, w.cur<<(w.wordBits-w.filled))
	}
	return w.words, total
}

// BitReader reads bits off a Word slice in the same order BitWriter packed
// them, stopping at totalBits regardless of the slice's padded length.
type BitReader[W wordtype.Unsigned] struct {
	words     []W
	wordBits  int
	totalBits int
	pos       int
}

// NewBitReader returns a reader over words, which must have been produced
// by a matching BitWriter.Into (or hand-built the same way).
func NewBitReader[W wordtype.Unsigned](words []W, totalBits int) *BitReader[W] {
	return &BitReader[W]{words: words, wordBits: wordtype.Bits[W](), totalBits: totalBits}
}

// NextBit implements BitSource.
func (r *BitReader[W]) NextBit() (bit, ok bool) {
	if r.pos >= r.totalBits {
		return false, false
	}
	word := r.words[r.pos/r.wordBits]
	shift := r.wordBits - 1 - r.pos%r.wordBits
	bit = (word>>shift)&1 != 0
	r.pos++
	return bit, true
}
