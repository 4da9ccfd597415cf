// Package rangecoder implements the range coder: an arithmetic-style
// entropy coder with FIFO (queue) semantics, so symbols decode in the same
// order they were encoded, unlike the ANS stack coder. Encoding holds back
// a run of words whenever the coding interval wraps past the top of State
// after a renormalization, deferring their commitment until a later symbol
// proves whether a carry propagates into them — the same carry-run technique
// described for RangeEncoder::encode_symbol in
// _examples/original_source/src/stream/queue.rs.
package rangecoder

import (
	"errors"

	"github.com/ha1tch/entropy/backend"
	"github.com/ha1tch/entropy/model"
	"github.com/ha1tch/entropy/wordtype"
)

// ErrInvalidData is returned by DecodeSymbol when a quantile derived from
// the stream falls outside [0, 1<<PRECISION), which can only happen with
// corrupted or truncated input.
var ErrInvalidData = errors.New("rangecoder: quantile out of range, data is corrupted or truncated")

// run tracks a buffered sequence of words whose commitment is deferred
// pending a carry decision: firstWord is the top chunk shifted out when the
// interval first wrapped, and count further chunks were shifted out while
// the run stayed open. Without a carry the run resolves to firstWord
// followed by count word-max words; with a carry, to firstWord+1 followed by
// count zero words.
type run[W wordtype.Unsigned] struct {
	open      bool
	firstWord W
	count     uint64
}

func (r *run[W]) resolve(carry bool, emit func(W) error) error {
	if !r.open {
		return nil
	}
	if carry {
		if err := emit(r.firstWord + 1); err != nil {
			return err
		}
		for i := uint64(0); i < r.count; i++ {
			if err := emit(0); err != nil {
				return err
			}
		}
	} else {
		if err := emit(r.firstWord); err != nil {
			return err
		}
		maxWord := wordtype.Max[W]()
		for i := uint64(0); i < r.count; i++ {
			if err := emit(maxWord); err != nil {
				return err
			}
		}
	}
	r.open = false
	r.firstWord = 0
	r.count = 0
	return nil
}

// Encoder codes a sequence of symbols against a shrinking [lower, lower+range)
// interval, emitting one Word at a time as the interval narrows past a word
// boundary.
type Encoder[Symbol any, W, S wordtype.Unsigned] struct {
	bulk      backend.WriteWords[W]
	lower     S
	rng       S
	pending   run[W]
	wordBits  int
	stateBits int
	precision int
}

// NewEncoder returns an encoder with the full [0, State::MAX] interval open.
func NewEncoder[Symbol any, W, S wordtype.Unsigned](precision int) (*Encoder[Symbol, W, S], error) {
	cfg := wordtype.ConfigFor[W, S](precision)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Encoder[Symbol, W, S]{
		bulk:      backend.NewGrowableBuffer[W](),
		rng:       wordtype.Max[S](),
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
		precision: cfg.Precision,
	}, nil
}

// EncodeSymbol narrows the coding interval to the sub-interval the model
// assigns to symbol.
func (e *Encoder[Symbol, W, S]) EncodeSymbol(symbol Symbol, m model.EncoderModel[Symbol, W]) error {
	left, prob, err := m.LeftCumulativeAndProbability(symbol)
	if err != nil {
		return err
	}
	if prob == 0 {
		return model.ErrImpossibleSymbol
	}
	if S(prob) == S(1)<<e.precision {
		// A certain symbol leaves the interval unchanged and costs no bits.
		return nil
	}

	scale := e.rng >> e.precision
	newRange := scale * S(prob)
	newLower := e.lower + scale*S(left)
	carry := newLower < e.lower

	if e.pending.open && newLower+newRange > newLower {
		if err := e.pending.resolve(carry, e.write); err != nil {
			return err
		}
	}

	e.lower = newLower
	e.rng = newRange

	threshold := S(1) << (e.stateBits - e.wordBits)
	for e.rng < threshold {
		e.rng <<= e.wordBits
		topChunk := W(e.lower >> (e.stateBits - e.wordBits))
		e.lower <<= e.wordBits

		if e.pending.open {
			e.pending.count++
			continue
		}
		if e.lower+e.rng > e.lower {
			if err := e.write(topChunk); err != nil {
				return err
			}
		} else {
			e.pending = run[W]{open: true, firstWord: topChunk}
		}
	}
	return nil
}

func (e *Encoder[Symbol, W, S]) write(w W) error { return e.bulk.Write(w) }

// Seal flushes any state needed to make the stream decodable and returns
// the encoded words. It consumes the encoder.
func (e *Encoder[Symbol, W, S]) Seal() ([]W, error) {
	growable, ok := e.bulk.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("rangecoder: Seal requires a GrowableBuffer-backed encoder")
	}
	if e.rng != wordtype.Max[S]() {
		point := e.lower + (e.rng - 1)
		carry := point < e.lower
		if err := e.pending.resolve(carry, e.write); err != nil {
			return nil, err
		}
		topChunk := W(point >> (e.stateBits - e.wordBits))
		if err := e.write(topChunk); err != nil {
			return nil, err
		}
	}
	return growable.Into(), nil
}

// Decoder reverses Encoder, reading words off the front of the stream
// (Queue semantics) as the coding interval narrows.
type Decoder[Symbol any, W, S wordtype.Unsigned] struct {
	bulk      backend.ReadWords[W]
	lower     S
	rng       S
	point     S
	wordBits  int
	stateBits int
	precision int
}

// NewDecoder constructs a decoder over compressed, reading the initial
// point from the first words of the stream.
func NewDecoder[Symbol any, W, S wordtype.Unsigned](precision int, compressed []W) (*Decoder[Symbol, W, S], error) {
	cfg := wordtype.ConfigFor[W, S](precision)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cursor := backend.NewCursorAtStart(append([]W(nil), compressed...))
	d := &Decoder[Symbol, W, S]{
		bulk:      backend.QueueReader[W]{Cursor: cursor},
		rng:       wordtype.Max[S](),
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
		precision: cfg.Precision,
	}
	wordsPerState := cfg.StateBits / cfg.WordBits
	for i := 0; i < wordsPerState; i++ {
		w, ok, err := d.bulk.Read()
		if err != nil {
			return nil, err
		}
		if ok {
			d.point = d.point<<cfg.WordBits | S(w)
		} else {
			d.point <<= cfg.WordBits
		}
	}
	return d, nil
}

// DecodeSymbol recovers the next symbol coded by EncodeSymbol, in the same
// order it was encoded.
func (d *Decoder[Symbol, W, S]) DecodeSymbol(m model.DecoderModel[Symbol, W]) (Symbol, error) {
	var zero Symbol

	scale := d.rng >> d.precision
	quantile := (d.point - d.lower) / scale
	if quantile >= S(1)<<d.precision {
		return zero, ErrInvalidData
	}

	symbol, left, prob := m.QuantileFunction(W(quantile))
	if prob == 0 {
		return zero, ErrInvalidData
	}

	d.lower += scale * S(left)
	d.rng = scale * S(prob)

	threshold := S(1) << (d.stateBits - d.wordBits)
	for d.rng < threshold {
		d.rng <<= d.wordBits
		d.lower <<= d.wordBits
		w, ok, err := d.bulk.Read()
		if err != nil {
			return zero, err
		}
		if ok {
			d.point = d.point<<d.wordBits | S(w)
		} else {
			d.point <<= d.wordBits
		}
	}
	return symbol, nil
}

// MaybeEmpty reports whether the decoder has consumed every symbol a
// matching encoder sealed: the bulk is exhausted and the coding interval
// has widened back out to (close to) its initial span.
func (d *Decoder[Symbol, W, S]) MaybeEmpty() bool {
	bounded, ok := d.bulk.(backend.BoundedReader)
	if !ok || !bounded.IsExhausted() {
		return false
	}
	if d.rng == wordtype.Max[S]() {
		return true
	}
	threshold := S(1) << (d.stateBits - d.wordBits)
	return (d.lower + d.rng - d.point) <= threshold
}

// State returns the decoder's current (lower, range) pair, for recording a
// checkpoint alongside Pos() to Seek back to later.
func (d *Decoder[Symbol, W, S]) State() State[S] {
	return State[S]{Lower: d.lower, Range: d.rng}
}

// Pos reports the decoder's logical position in word units: the raw
// backend position minus the words consumed to prime point, saturating at
// zero. This resolves spec.md's open question about RangeDecoder::pos by
// adopting the original source's saturating-subtraction convention.
func (d *Decoder[Symbol, W, S]) Pos() int {
	positioner, ok := d.bulk.(backend.Positioner)
	if !ok {
		return 0
	}
	wordsPerState := d.stateBits / d.wordBits
	pos := positioner.Pos() - wordsPerState
	if pos < 0 {
		return 0
	}
	return pos
}

// State is the (lower, range) pair Seek must restore alongside a backend
// position, since point alone does not determine the coding interval.
type State[S wordtype.Unsigned] struct {
	Lower S
	Range S
}

// Seek moves the decoder to pos in the backend and installs state,
// re-reading point from the new position exactly as NewDecoder does at
// position zero.
func (d *Decoder[Symbol, W, S]) Seek(pos int, state State[S]) error {
	seeker, ok := d.bulk.(backend.Seeker)
	if !ok {
		return errors.New("rangecoder: backend does not support seeking")
	}
	wordsPerState := d.stateBits / d.wordBits
	if err := seeker.Seek(pos); err != nil {
		return err
	}
	var point S
	for i := 0; i < wordsPerState; i++ {
		w, ok, err := d.bulk.Read()
		if err != nil {
			return err
		}
		if ok {
			point = point<<d.wordBits | S(w)
		} else {
			point <<= d.wordBits
		}
	}
	d.point = point
	d.lower = state.Lower
	d.rng = state.Range
	return nil
}
