// Package ans implements the stack coder: an Asymmetric Numeral Systems
// entropy coder with LIFO semantics (the last symbol encoded is the first
// symbol decoded). It generalizes the teacher's single-file rANS codec
// (_examples/ha1tch-unz/pkg/ans/ans.go, hardcoded to uint32 state and a
// 14-bit probability scale) to the (Word, State, PRECISION) family described
// by spec.md §4.3, coding against the model package's EncoderModel/
// DecoderModel interfaces instead of a flat SymbolTable.
package ans

import (
	"errors"

	"github.com/ha1tch/entropy/backend"
	"github.com/ha1tch/entropy/model"
	"github.com/ha1tch/entropy/wordtype"
)

// ErrInvalidCompressedData is returned by FromCompressed when the supplied
// data cannot be a valid sealed stream: an ANS stream never ends in a zero
// Word, since the top chunk of a nonzero head is always nonzero by the
// normal-form invariant.
var ErrInvalidCompressedData = errors.New("ans: compressed data ends in a zero word")

// ErrNotBinarySealable is returned by IntoBinary and GetBinary when the
// head is no longer the sentinel value 1 that FromBinary installs. Coding
// that leaves the head at exactly 1 (e.g. encoding a symbol with
// left-cumulative 0 straight after FromBinary) is not detected.
var ErrNotBinarySealable = errors.New("ans: coder has been advanced since FromBinary and can no longer be sealed as raw binary")

// bulk is the Stack-semantics backend the coder reads and writes its bulk
// through. GrowableBuffer satisfies it directly: Write appends, Read pops
// from the end, exactly the push/pop discipline the coder needs.
type bulk[W wordtype.Unsigned] interface {
	backend.WriteWords[W]
	backend.ReadWords[W]
}

// Coder is the ANS stack coder, parameterized by the symbol type it codes,
// the Word type its backend exchanges, and the State type its head is held
// in. State must be at least twice as wide as Word (wordtype.Config.Validate
// enforces this at construction).
type Coder[Symbol any, W, S wordtype.Unsigned] struct {
	bulk      bulk[W]
	head      S
	precision int
	wordBits  int
	stateBits int
}

// New returns an empty coder (no symbols encoded, backed by a fresh
// GrowableBuffer) configured for the given fixed-point precision.
func New[Symbol any, W, S wordtype.Unsigned](precision int) (*Coder[Symbol, W, S], error) {
	cfg := wordtype.ConfigFor[W, S](precision)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Coder[Symbol, W, S]{
		bulk:      backend.NewGrowableBuffer[W](),
		precision: precision,
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
	}, nil
}

// FromCompressed reconstructs a coder from a previously sealed stream
// (IntoCompressed's output). It pops words off the top (the convention this
// package seals with: head's words are pushed low-chunk first, so popping
// from the end retrieves the most significant chunk first) until the
// standard renormalization invariant (head >= 2^(State::BITS-Word::BITS))
// holds or the buffer is exhausted, the same threshold DecodeSymbol's
// renormalization refills against (one word per call there).
func FromCompressed[Symbol any, W, S wordtype.Unsigned](precision int, compressed []W) (*Coder[Symbol, W, S], error) {
	cfg := wordtype.ConfigFor[W, S](precision)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	buf := append([]W(nil), compressed...)
	c := &Coder[Symbol, W, S]{
		bulk:      backend.NewGrowableBufferFrom(buf),
		precision: precision,
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
	}
	if len(buf) == 0 {
		return c, nil
	}
	if buf[len(buf)-1] == 0 {
		return nil, ErrInvalidCompressedData
	}
	threshold := S(1) << (cfg.StateBits - cfg.WordBits)
	for c.head < threshold {
		w, ok, err := c.bulk.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		c.head = c.head<<cfg.WordBits | S(w)
	}
	return c, nil
}

// FromBinary constructs a coder whose bulk is exactly words, usable to
// splice an arbitrary word sequence (whose own top word may legitimately be
// zero) into an ANS stream. A single sentinel head value of 1 distinguishes
// "nothing encoded since construction" from the all-zero head
// FromCompressed forbids; it is the same "value 1 marks an aligned
// boundary" convention the chain coder's heads.quantiles uses.
func FromBinary[Symbol any, W, S wordtype.Unsigned](precision int, words []W) (*Coder[Symbol, W, S], error) {
	cfg := wordtype.ConfigFor[W, S](precision)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	buf := append([]W(nil), words...)
	return &Coder[Symbol, W, S]{
		bulk:      backend.NewGrowableBufferFrom(buf),
		head:      S(1),
		precision: precision,
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
	}, nil
}

// IsEmpty reports whether the coder holds no encoded data: an empty bulk
// and a zero head.
func (c *Coder[Symbol, W, S]) IsEmpty() bool {
	bounded, ok := c.bulk.(backend.BoundedReader)
	return c.head == 0 && ok && bounded.IsExhausted()
}

// EncodeSymbol codes one symbol, LIFO: it must be decoded by the matching
// DecodeSymbol call in the exact reverse order symbols were encoded.
func (c *Coder[Symbol, W, S]) EncodeSymbol(symbol Symbol, m model.EncoderModel[Symbol, W]) error {
	left, prob, err := m.LeftCumulativeAndProbability(symbol)
	if err != nil {
		return err
	}
	if prob == 0 {
		return model.ErrImpossibleSymbol
	}

	// head >= prob * 2^(State::BITS-PRECISION), compared on head's top word
	// so that prob == 2^PRECISION cannot overflow State.
	threshold := S(prob) << (c.wordBits - c.precision)
	if c.head>>(c.stateBits-c.wordBits) >= threshold {
		if err := c.bulk.Write(W(c.head)); err != nil {
			return err
		}
		c.head >>= c.wordBits
	}

	quotient := c.head / S(prob)
	remainder := c.head % S(prob)
	c.head = quotient<<c.precision + remainder + S(left)
	return nil
}

// DecodeSymbol pops the most recently encoded symbol that has not yet been
// decoded.
func (c *Coder[Symbol, W, S]) DecodeSymbol(m model.DecoderModel[Symbol, W]) (Symbol, error) {
	mask := S(1)<<c.precision - 1
	quantile := c.head & mask

	symbol, left, prob := m.QuantileFunction(W(quantile))
	if prob == 0 {
		var zero Symbol
		return zero, model.ErrImpossibleSymbol
	}

	c.head = S(prob)*(c.head>>c.precision) + quantile - S(left)

	threshold := S(1) << (c.stateBits - c.wordBits)
	if c.head < threshold {
		w, ok, err := c.bulk.Read()
		if err != nil {
			var zero Symbol
			return zero, err
		}
		if ok {
			c.head = c.head<<c.wordBits | S(w)
		}
		// If the bulk is empty, the head is left as is: further decodes
		// will keep drawing from its remaining magnitude until it too
		// runs out, matching spec.md's decode renormalization.
	}
	return symbol, nil
}

// IntoCompressed seals the coder, consuming it: the returned slice is
// (bulk words in write order) followed by head's words, least significant
// chunk first up to its most significant nonzero chunk, so that
// FromCompressed's pop-from-the-end reconstruction retrieves the most
// significant chunk first and never sees a zero top word.
func (c *Coder[Symbol, W, S]) IntoCompressed() ([]W, error) {
	growable, ok := c.bulk.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("ans: IntoCompressed requires a GrowableBuffer-backed coder")
	}
	words := growable.Into()
	words = c.appendHeadWords(words)
	c.bulk = backend.NewGrowableBuffer[W]()
	c.head = 0
	return words, nil
}

// GetCompressed peeks the sealed representation without consuming the
// coder, so encoding can continue afterwards.
func (c *Coder[Symbol, W, S]) GetCompressed() ([]W, error) {
	growable, ok := c.bulk.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("ans: GetCompressed requires a GrowableBuffer-backed coder")
	}
	words := growable.Peek()
	return c.appendHeadWords(words), nil
}

func (c *Coder[Symbol, W, S]) appendHeadWords(words []W) []W {
	for h := c.head; h != 0; h >>= c.wordBits {
		words = append(words, W(h))
	}
	return words
}

// IntoBinary is the dual of FromBinary: it requires the head to still be
// the sentinel value 1 that FromBinary installed and returns the bulk
// unchanged, raw, with no ANS-specific framing.
func (c *Coder[Symbol, W, S]) IntoBinary() ([]W, error) {
	if c.head != 1 {
		return nil, ErrNotBinarySealable
	}
	growable, ok := c.bulk.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("ans: IntoBinary requires a GrowableBuffer-backed coder")
	}
	words := growable.Into()
	c.bulk = backend.NewGrowableBuffer[W]()
	c.head = 0
	return words, nil
}

// GetBinary is the peeking counterpart of IntoBinary.
func (c *Coder[Symbol, W, S]) GetBinary() ([]W, error) {
	if c.head != 1 {
		return nil, ErrNotBinarySealable
	}
	growable, ok := c.bulk.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("ans: GetBinary requires a GrowableBuffer-backed coder")
	}
	return growable.Peek(), nil
}
