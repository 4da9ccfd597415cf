// Package chain implements the chain coder: a decoder-first construction
// that isolates the effect of a model change to exactly the symbol it
// governs (spec.md §4.5's "locality" property), unlike ANS or the range
// coder where changing one model perturbs every symbol decoded afterwards.
//
// It is built from two cooperating streams and a two-part head, grounded on
// _examples/original_source/src/stream/chain.rs's ChainCoder/
// ChainCoderHeads: `quantiles` carries the symbol stream itself, and
// `remainders` is a side accumulator the entropy left over from each
// symbol's quantization is folded into. This package represents the
// quantiles half of the head (heads.quantiles in the Rust source) as an
// explicit (buffered value, buffered bit count) pair internally, rather
// than the single NonZero[Word] the Rust source packs a sentinel bit into,
// converting to and from that sentinel-encoded single-Word form only at the
// package boundary (FromRemainders/IntoRemainders), where it crosses into
// serialized data. See DESIGN.md for why: the sentinel-bit trick relies on
// Rust's NonZero type and an unsafe shift the source itself flags as such;
// an explicit counter is equivalent and safer to reason about in Go. The
// buffer holds a bit count, not a count of whole PRECISION-sized chunks:
// each quantiles word contributes Word::BITS-PRECISION leftover bits, which
// need not be a multiple of PRECISION.
package chain

import (
	"errors"
	"math/bits"

	"github.com/ha1tch/entropy/backend"
	"github.com/ha1tch/entropy/model"
	"github.com/ha1tch/entropy/wordtype"
)

// ErrOutOfQuantiles is returned by DecodeSymbol when the quantiles stream
// is exhausted and a fresh word is needed.
var ErrOutOfQuantiles = errors.New("chain: quantiles stream exhausted")

// ErrOutOfRemainders is returned by EncodeSymbol when the remainders stream
// is exhausted and the remainders head is smaller than the symbol's
// probability, so not even one remainder can be taken off it. spec.md §9 calls out that the
// original source conflates this with a generic backend error; this
// package gives it its own frontend error instead.
var ErrOutOfRemainders = errors.New("chain: remainders stream exhausted")

// ErrInvalidChainData is returned by FromRemainders when the supplied data
// is too short to contain even a quantiles-head word.
var ErrInvalidChainData = errors.New("chain: remainders data too short to contain a head")

// ErrNotWhole is returned by IntoQuantiles and IntoBinary when the
// quantiles head still has buffered bits (IsWhole() is false).
var ErrNotWhole = errors.New("chain: coder is not on a whole-word boundary")

// ErrNotBinarySealable is returned by IntoBinary when the remainders head
// carries genuine folded-in entropy rather than pure zero padding.
var ErrNotBinarySealable = errors.New("chain: remainders head is not a clean power-of-word-width run")

type bulk[W wordtype.Unsigned] interface {
	backend.WriteWords[W]
	backend.ReadWords[W]
}

// Heads is the (quantiles, remainders) head pair exposed to callers that
// need to inspect or reconstruct chain coder state, mirroring
// ChainCoderHeads in the Rust source.
type Heads[W, S wordtype.Unsigned] struct {
	Quantiles  wordtype.NonZero[W]
	Remainders S
}

// Coder codes symbols against a quantiles stream and a remainders stream.
type Coder[Symbol any, W, S wordtype.Unsigned] struct {
	quantiles  bulk[W]
	remainders bulk[W]

	qValue W // buffered leftover bits, lowest qBits bits meaningful
	qBits  int
	rHead  S

	wordBits  int
	stateBits int
	precision int
}

func newCoder[Symbol any, W, S wordtype.Unsigned](precision int) (*Coder[Symbol, W, S], error) {
	cfg := wordtype.ConfigFor[W, S](precision)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Coder[Symbol, W, S]{
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
		precision: cfg.Precision,
	}, nil
}

func fillRemaindersHead[W, S wordtype.Unsigned](stack backend.StackReader[W], start S, wordBits, stateBits, precision int) (S, error) {
	threshold := S(1) << (stateBits - wordBits - precision)
	head := start
	for head < threshold {
		w, ok, err := stack.Read()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		head = head<<wordBits | S(w)
	}
	return head, nil
}

// FromQuantiles builds a coder over quantilesWords, consuming words off the
// top to seed the remainders head until it reaches the lower bound of its
// invariant (2^(State::BITS-Word::BITS-PRECISION)), leaving the rest as the
// quantiles bulk.
func FromQuantiles[Symbol any, W, S wordtype.Unsigned](precision int, quantilesWords []W) (*Coder[Symbol, W, S], error) {
	c, err := newCoder[Symbol, W, S](precision)
	if err != nil {
		return nil, err
	}
	buf := append([]W(nil), quantilesWords...)
	cursor := backend.NewCursorAtEnd(buf)
	stack := backend.StackReader[W]{Cursor: cursor}

	head, err := fillRemaindersHead[W, S](stack, 0, c.wordBits, c.stateBits, c.precision)
	if err != nil {
		return nil, err
	}
	c.rHead = head
	c.quantiles = backend.NewGrowableBufferFrom(append([]W(nil), buf[:cursor.Pos()]...))
	c.remainders = backend.NewGrowableBuffer[W]()
	return c, nil
}

// FromBinary builds a coder treating quantilesWords as an arbitrary,
// untouched word sequence: no words are consumed to seed the remainders
// head, which instead starts at the sentinel value 1 (the same "value 1
// marks an aligned boundary" convention FromBinary uses in package ans).
func FromBinary[Symbol any, W, S wordtype.Unsigned](precision int, quantilesWords []W) (*Coder[Symbol, W, S], error) {
	c, err := newCoder[Symbol, W, S](precision)
	if err != nil {
		return nil, err
	}
	c.rHead = 1
	c.quantiles = backend.NewGrowableBufferFrom(append([]W(nil), quantilesWords...))
	c.remainders = backend.NewGrowableBuffer[W]()
	return c, nil
}

// FromRemainders builds a coder from previously sealed remainders data
// (IntoRemainders's output): the first word (from the top) is the
// sentinel-encoded quantiles head, and the rest seed the remainders head
// the same way FromQuantiles does.
func FromRemainders[Symbol any, W, S wordtype.Unsigned](precision int, remaindersWords []W) (*Coder[Symbol, W, S], error) {
	c, err := newCoder[Symbol, W, S](precision)
	if err != nil {
		return nil, err
	}
	buf := append([]W(nil), remaindersWords...)
	cursor := backend.NewCursorAtEnd(buf)
	stack := backend.StackReader[W]{Cursor: cursor}

	headWord, ok, err := stack.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidChainData
	}
	qValue, qBits := unpackQuantilesSentinel(headWord)
	c.qValue, c.qBits = qValue, qBits

	head, err := fillRemaindersHead[W, S](stack, 0, c.wordBits, c.stateBits, c.precision)
	if err != nil {
		return nil, err
	}
	c.rHead = head
	c.quantiles = backend.NewGrowableBuffer[W]()
	c.remainders = backend.NewGrowableBufferFrom(append([]W(nil), buf[:cursor.Pos()]...))
	return c, nil
}

// IsWhole reports whether the quantiles head has no buffered bits, i.e.
// heads.quantiles would serialize as exactly the sentinel value 1.
func (c *Coder[Symbol, W, S]) IsWhole() bool { return c.qBits == 0 }

// packQuantilesSentinel marks qBits by the position of a sentinel bit set
// just above value's top meaningful bit, mirroring heads.quantiles's
// NonZero representation in the Rust source.
func packQuantilesSentinel[W wordtype.Unsigned](value W, qBits int) W {
	return value | (W(1) << qBits)
}

func unpackQuantilesSentinel[W wordtype.Unsigned](w W) (value W, qBits int) {
	sentinelPos := bits.Len64(uint64(w)) - 1
	qBits = sentinelPos
	value = w &^ (W(1) << sentinelPos)
	return
}

// Heads returns the coder's current head pair in its serialized,
// sentinel-encoded form.
func (c *Coder[Symbol, W, S]) Heads() Heads[W, S] {
	return Heads[W, S]{
		Quantiles:  wordtype.MustNonZero(packQuantilesSentinel(c.qValue, c.qBits)),
		Remainders: c.rHead,
	}
}

// DecodeSymbol recovers the next symbol, drawing a fresh word from the
// quantiles stream whenever fewer than precision leftover bits remain
// buffered.
func (c *Coder[Symbol, W, S]) DecodeSymbol(m model.DecoderModel[Symbol, W]) (Symbol, error) {
	var zero Symbol
	mask := W(1)<<c.precision - 1

	var consumed W
	if c.qBits < c.precision {
		w, ok, err := c.quantiles.Read()
		if err != nil {
			return zero, err
		}
		if !ok {
			return zero, ErrOutOfQuantiles
		}
		consumed = w & mask
		c.qValue = c.qValue<<(c.wordBits-c.precision) | w>>c.precision
		c.qBits += c.wordBits - c.precision
	} else {
		consumed = c.qValue & mask
		c.qValue >>= c.precision
		c.qBits -= c.precision
	}

	symbol, left, prob := m.QuantileFunction(consumed)
	if prob == 0 {
		return zero, model.ErrImpossibleSymbol
	}

	remainder := S(consumed) - S(left)
	c.rHead = c.rHead*S(prob) + remainder

	flushThreshold := S(1) << (c.stateBits - c.precision)
	if c.rHead >= flushThreshold {
		if err := c.remainders.Write(W(c.rHead)); err != nil {
			return zero, err
		}
		c.rHead >>= c.wordBits
	}
	return symbol, nil
}

// EncodeSymbol is the exact inverse of DecodeSymbol: calling it with the
// same models, in the reverse order the matching DecodeSymbol calls were
// made, reconstructs the original quantiles/remainders streams.
func (c *Coder[Symbol, W, S]) EncodeSymbol(symbol Symbol, m model.EncoderModel[Symbol, W]) error {
	left, prob, err := m.LeftCumulativeAndProbability(symbol)
	if err != nil {
		return err
	}
	if prob == 0 {
		return model.ErrImpossibleSymbol
	}

	refillThreshold := S(prob) << (c.stateBits - c.wordBits - c.precision)
	if c.rHead < refillThreshold {
		w, ok, err := c.remainders.Read()
		if err != nil {
			return err
		}
		if ok {
			c.rHead = c.rHead<<c.wordBits | S(w)
		} else if c.rHead < S(prob) {
			return ErrOutOfRemainders
		}
	}

	remainder := c.rHead % S(prob)
	quantile := W(S(left) + remainder)
	c.rHead /= S(prob)

	if c.qBits < c.wordBits-c.precision {
		c.qValue = (c.qValue << c.precision) | quantile
		c.qBits += c.precision
	} else {
		fullWord := (c.qValue << c.precision) | quantile
		if err := c.quantiles.Write(fullWord); err != nil {
			return err
		}
		c.qValue >>= c.wordBits - c.precision
		c.qBits -= c.wordBits - c.precision
	}
	return nil
}

// flushHead appends head's words, least significant first, up to its most
// significant nonzero word, the inverse of fillRemaindersHead.
func flushHead[W, S wordtype.Unsigned](words []W, head S, wordBits, stateBits int) []W {
	for h := head; h != 0; h >>= wordBits {
		words = append(words, W(h))
	}
	return words
}

// IntoRemainders seals the coder by flushing the remainders head onto the
// remainders bulk and appending the sentinel-encoded quantiles head as the
// final (top) word, the dual of FromRemainders.
func (c *Coder[Symbol, W, S]) IntoRemainders() ([]W, error) {
	growable, ok := c.remainders.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("chain: IntoRemainders requires a GrowableBuffer-backed remainders stream")
	}
	words := growable.Into()
	words = flushHead[W, S](words, c.rHead, c.wordBits, c.stateBits)
	words = append(words, packQuantilesSentinel(c.qValue, c.qBits))
	return words, nil
}

// IntoQuantiles seals the coder back into a plain quantiles stream,
// requiring IsWhole(): the remainders head is flushed onto the quantiles
// bulk, folding its entropy back into the symbol stream.
func (c *Coder[Symbol, W, S]) IntoQuantiles() ([]W, error) {
	if !c.IsWhole() {
		return nil, ErrNotWhole
	}
	growable, ok := c.quantiles.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("chain: IntoQuantiles requires a GrowableBuffer-backed quantiles stream")
	}
	words := growable.Into()
	words = flushHead[W, S](words, c.rHead, c.wordBits, c.stateBits)
	return words, nil
}

// IntoBinary seals the coder back into the raw word sequence FromBinary
// accepted, requiring IsWhole() and that the remainders head carries no
// genuine folded-in entropy: it must be exactly a power of Word::BITS, a
// "clean" run of zero padding above the FromBinary sentinel.
func (c *Coder[Symbol, W, S]) IntoBinary() ([]W, error) {
	if !c.IsWhole() {
		return nil, ErrNotWhole
	}
	if c.rHead == 0 || c.rHead&(c.rHead-1) != 0 || bits.TrailingZeros64(uint64(c.rHead))%c.wordBits != 0 {
		return nil, ErrNotBinarySealable
	}
	growable, ok := c.quantiles.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("chain: IntoBinary requires a GrowableBuffer-backed quantiles stream")
	}
	return growable.Into(), nil
}
