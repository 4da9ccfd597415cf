// Package auryn implements the bits-back construction: a pair of ANS-like
// stacks, named for the two serpents of Michael Ende's medallion that eat
// each other's tails, between which decoding transfers entropy from a
// "supply" into a "waste" sink. Grounded on
// _examples/original_source/src/auryn.rs's Auryn/Stack split, reusing this
// module's own ans.Coder renormalization arithmetic (package ans, itself
// grounded on _examples/ha1tch-unz/pkg/ans/ans.go) for the low-level state
// manipulation both stacks need.
//
// Decoding a sequence of symbols from supply under arbitrary entropy models
// "fantasizes" those symbols: each one consumes PRECISION bits of supply's
// entropy and deposits the information that would be needed to undo that
// consumption into waste. Encoding the same sequence in reverse, with the
// same models, drains waste back to empty and restores supply exactly.
package auryn

import (
	"errors"

	"github.com/ha1tch/entropy/backend"
	"github.com/ha1tch/entropy/model"
	"github.com/ha1tch/entropy/wordtype"
)

// ErrNotBinarySealable mirrors ans.ErrNotBinarySealable for the supply side.
var ErrNotBinarySealable = errors.New("auryn: supply has been advanced and can no longer be sealed as raw binary")

type bulk[W wordtype.Unsigned] interface {
	backend.WriteWords[W]
	backend.ReadWords[W]
}

// stack is the shared state-manipulation core both supply and waste are
// built from: the same renormalization thresholds as package ans, split
// into the primitive steps Auryn's decode/encode need to interleave between
// the two stacks instead of each performing a self-contained combined step.
type stack[W, S wordtype.Unsigned] struct {
	bulk      bulk[W]
	head      S
	wordBits  int
	stateBits int
	precision int
}

func newStack[W, S wordtype.Unsigned](cfg wordtype.Config) stack[W, S] {
	return stack[W, S]{
		bulk:      backend.NewGrowableBuffer[W](),
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
		precision: cfg.Precision,
	}
}

func stackFromCompressed[W, S wordtype.Unsigned](cfg wordtype.Config, compressed []W) (stack[W, S], error) {
	buf := append([]W(nil), compressed...)
	s := stack[W, S]{
		bulk:      backend.NewGrowableBufferFrom(buf),
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
		precision: cfg.Precision,
	}
	if len(buf) == 0 {
		return s, nil
	}
	threshold := S(1) << (cfg.StateBits - cfg.WordBits)
	for s.head < threshold {
		w, ok, err := s.bulk.Read()
		if err != nil {
			return stack[W, S]{}, err
		}
		if !ok {
			break
		}
		s.head = s.head<<cfg.WordBits | S(w)
	}
	return s, nil
}

func (s *stack[W, S]) isEmpty() bool {
	bounded, ok := s.bulk.(backend.BoundedReader)
	return s.head == 0 && ok && bounded.IsExhausted()
}

func (s *stack[W, S]) maybeEmpty() bool {
	bounded, ok := s.bulk.(backend.BoundedReader)
	if !ok || !bounded.IsExhausted() {
		return false
	}
	return s.head == 0
}

// refillStateIfPossible pulls one word off the bulk into head if head has
// fallen below the standard renormalization threshold, leaving head as is
// if the bulk is already exhausted.
func (s *stack[W, S]) refillStateIfPossible() error {
	threshold := S(1) << (s.stateBits - s.wordBits)
	if s.head >= threshold {
		return nil
	}
	w, ok, err := s.bulk.Read()
	if err != nil {
		return err
	}
	if ok {
		s.head = s.head<<s.wordBits | S(w)
	}
	return nil
}

// flushState pushes head's lowest word onto the bulk and shifts it out.
func (s *stack[W, S]) flushState() error {
	if err := s.bulk.Write(W(s.head)); err != nil {
		return err
	}
	s.head >>= s.wordBits
	return nil
}

// chopQuantileOffState extracts the low PRECISION bits of head as a
// quantile and unconditionally divides head by 2^PRECISION, deferring any
// model-specific renormalization to the caller (unlike ans.Coder.DecodeSymbol,
// which folds the model's probability into this step directly).
func (s *stack[W, S]) chopQuantileOffState() W {
	mask := S(1)<<s.precision - 1
	quantile := s.head & mask
	s.head >>= s.precision
	return W(quantile)
}

// appendQuantileToState is the exact inverse of chopQuantileOffState.
func (s *stack[W, S]) appendQuantileToState(quantile W) {
	s.head = s.head<<s.precision | S(quantile)
}

// encodeRemainderOntoState pushes remainder (in [0, prob)) onto head as one
// mixed-radix digit of base prob: head = head*prob + remainder. It never
// flushes; under waste's relaxed invariant (head < 2^(State::BITS-PRECISION))
// the product fits in State, and the caller flushes afterwards if head has
// grown past that bound.
func (s *stack[W, S]) encodeRemainderOntoState(remainder, prob W) error {
	s.head = s.head*S(prob) + S(remainder)
	return nil
}

// decodeRemainderOffState is the exact inverse of encodeRemainderOntoState.
func (s *stack[W, S]) decodeRemainderOffState(prob W) W {
	remainder := s.head % S(prob)
	s.head /= S(prob)
	return W(remainder)
}

func (s *stack[W, S]) intoCompressed() ([]W, error) {
	growable, ok := s.bulk.(*backend.GrowableBuffer[W])
	if !ok {
		return nil, errors.New("auryn: intoCompressed requires a GrowableBuffer-backed stack")
	}
	words := growable.Into()
	if s.head != 0 {
		wordsPerState := s.stateBits / s.wordBits
		h := s.head
		for i := 0; i < wordsPerState; i++ {
			words = append(words, W(h))
			h >>= s.wordBits
		}
	}
	return words, nil
}

// Auryn holds a supply stack (the entropy source decoding draws from) and a
// waste stack (the sink decoding deposits the information needed to reverse
// it into).
type Auryn[Symbol any, W, S wordtype.Unsigned] struct {
	supply    stack[W, S]
	waste     stack[W, S]
	wordBits  int
	stateBits int
	precision int
}

// WithCompressedData builds an Auryn whose supply is seeded from compressed
// and whose waste starts empty.
func WithCompressedData[Symbol any, W, S wordtype.Unsigned](precision int, compressed []W) (*Auryn[Symbol, W, S], error) {
	cfg := wordtype.ConfigFor[W, S](precision)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	supply, err := stackFromCompressed[W, S](cfg, compressed)
	if err != nil {
		return nil, err
	}
	return &Auryn[Symbol, W, S]{
		supply:    supply,
		waste:     newStack[W, S](cfg),
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
		precision: cfg.Precision,
	}, nil
}

// WithSupplyAndWaste builds an Auryn from an already-split supply/waste pair
// (e.g. recovered from IntoSupplyAndWaste earlier), restoring waste's
// relaxed invariant (head < 2^(State::BITS-PRECISION)) with a single flush
// if its head exceeds that bound.
func WithSupplyAndWaste[Symbol any, W, S wordtype.Unsigned](precision int, supplyCompressed, wasteCompressed []W) (*Auryn[Symbol, W, S], error) {
	cfg := wordtype.ConfigFor[W, S](precision)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	supply, err := stackFromCompressed[W, S](cfg, supplyCompressed)
	if err != nil {
		return nil, err
	}
	waste, err := stackFromCompressed[W, S](cfg, wasteCompressed)
	if err != nil {
		return nil, err
	}
	looseThreshold := S(1) << (cfg.StateBits - cfg.Precision)
	if waste.head >= looseThreshold {
		if err := waste.flushState(); err != nil {
			return nil, err
		}
	}
	return &Auryn[Symbol, W, S]{
		supply:    supply,
		waste:     waste,
		wordBits:  cfg.WordBits,
		stateBits: cfg.StateBits,
		precision: cfg.Precision,
	}, nil
}

// IsEmpty reports whether supply is empty; waste is not consulted (nor is
// it by MaybeEmpty). A freshly constructed Auryn with no symbols decoded is
// IsEmpty() only if its supply is.
func (a *Auryn[Symbol, W, S]) IsEmpty() bool { return a.supply.isEmpty() }

// MaybeEmpty mirrors Code::maybe_empty in the source: it reports whether
// supply may be exhausted, the same conservative check ans.Coder.IsEmpty
// performs on a single stack.
func (a *Auryn[Symbol, W, S]) MaybeEmpty() bool { return a.supply.maybeEmpty() }

// DecodeSymbol "fantasizes" the next symbol: it consumes PRECISION bits of
// entropy from supply under m and deposits the information needed to
// reverse that consumption into waste.
func (a *Auryn[Symbol, W, S]) DecodeSymbol(m model.DecoderModel[Symbol, W]) (Symbol, error) {
	var zero Symbol
	quantile := a.supply.chopQuantileOffState()
	if err := a.supply.refillStateIfPossible(); err != nil {
		return zero, err
	}

	symbol, left, prob := m.QuantileFunction(quantile)
	if prob == 0 {
		return zero, model.ErrImpossibleSymbol
	}
	remainder := quantile - left

	if err := a.waste.encodeRemainderOntoState(remainder, prob); err != nil {
		return zero, err
	}

	looseThreshold := S(1) << (a.stateBits - a.precision)
	if a.waste.head >= looseThreshold {
		if err := a.waste.flushState(); err != nil {
			return zero, err
		}
	}
	return symbol, nil
}

// EncodeSymbol is the exact inverse of DecodeSymbol: calling it with the
// same symbols and models, in the reverse order DecodeSymbol produced them,
// drains waste back towards empty and restores supply.
func (a *Auryn[Symbol, W, S]) EncodeSymbol(symbol Symbol, m model.EncoderModel[Symbol, W]) error {
	left, prob, err := m.LeftCumulativeAndProbability(symbol)
	if err != nil {
		return err
	}
	if prob == 0 {
		return model.ErrImpossibleSymbol
	}

	refillThreshold := S(prob) << (a.stateBits - a.wordBits - a.precision)
	if a.waste.head < refillThreshold {
		if err := a.waste.refillStateIfPossible(); err != nil {
			return err
		}
	}

	remainder := a.waste.decodeRemainderOffState(prob)

	topMask := a.supply.head >> (a.stateBits - a.precision)
	if topMask != 0 {
		if err := a.supply.flushState(); err != nil {
			return err
		}
	}
	a.supply.appendQuantileToState(left + remainder)
	return nil
}

// WasteAccess is the scoped handle WasteMut lends access through. For its
// duration waste obeys the ordinary ans.Coder invariant
// (head >= 2^(State::BITS-Word::BITS)) rather than Auryn's relaxed one, so
// it supports the same EncodeSymbol/DecodeSymbol pair as an ordinary ANS
// stack coder.
type WasteAccess[Symbol any, W, S wordtype.Unsigned] struct {
	stack *stack[W, S]
}

// EncodeSymbol codes symbol onto waste using ordinary ANS stack arithmetic
// (package ans's EncodeSymbol, inlined here since WasteAccess wraps the
// shared stack primitives directly rather than a standalone ans.Coder).
func (w *WasteAccess[Symbol, W, S]) EncodeSymbol(symbol Symbol, m model.EncoderModel[Symbol, W]) error {
	left, prob, err := m.LeftCumulativeAndProbability(symbol)
	if err != nil {
		return err
	}
	if prob == 0 {
		return model.ErrImpossibleSymbol
	}

	threshold := S(prob) << (w.stack.stateBits - w.stack.precision)
	if w.stack.head >= threshold {
		if err := w.stack.flushState(); err != nil {
			return err
		}
	}

	quotient := w.stack.head / S(prob)
	remainder := w.stack.head % S(prob)
	w.stack.head = quotient<<w.stack.precision + remainder + S(left)
	return nil
}

// DecodeSymbol pops the most recently encoded symbol off waste, the ordinary
// ANS stack dual of EncodeSymbol.
func (w *WasteAccess[Symbol, W, S]) DecodeSymbol(m model.DecoderModel[Symbol, W]) (Symbol, error) {
	var zero Symbol
	mask := S(1)<<w.stack.precision - 1
	quantile := w.stack.head & mask

	symbol, left, prob := m.QuantileFunction(W(quantile))
	if prob == 0 {
		return zero, model.ErrImpossibleSymbol
	}
	w.stack.head = S(prob)*(w.stack.head>>w.stack.precision) + quantile - S(left)

	if err := w.stack.refillStateIfPossible(); err != nil {
		return zero, err
	}
	return symbol, nil
}

// WasteMut grants fn temporary standard-ANS-invariant access to waste,
// restoring the Auryn relaxed invariant again before returning on every
// exit path — normal return, early return, or an error from fn — mirroring
// the construct-on-acquire/flush-on-drop waste_mut guard described in
// spec.md §9: on construction, refill waste's state to the standard
// invariant; on drop, flush one word if the state exceeds the relaxed
// invariant's upper bound.
func (a *Auryn[Symbol, W, S]) WasteMut(fn func(*WasteAccess[Symbol, W, S]) error) (err error) {
	if err := a.waste.refillStateIfPossible(); err != nil {
		return err
	}
	defer func() {
		looseThreshold := S(1) << (a.stateBits - a.precision)
		if a.waste.head >= looseThreshold {
			if flushErr := a.waste.flushState(); flushErr != nil && err == nil {
				err = flushErr
			}
		}
	}()
	return fn(&WasteAccess[Symbol, W, S]{stack: &a.waste})
}

// IntoSupplyAndWaste seals the Auryn, consuming it: waste is first restored
// to the ordinary Stack invariant (a single refill if possible), and both
// streams are returned as plain compressed word slices.
func (a *Auryn[Symbol, W, S]) IntoSupplyAndWaste() (supply, waste []W, err error) {
	if err := a.waste.refillStateIfPossible(); err != nil {
		return nil, nil, err
	}
	supply, err = a.supply.intoCompressed()
	if err != nil {
		return nil, nil, err
	}
	waste, err = a.waste.intoCompressed()
	if err != nil {
		return nil, nil, err
	}
	return supply, waste, nil
}
