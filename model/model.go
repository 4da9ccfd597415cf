// Package model provides the entropy-model contract every coder in this
// module codes symbols against: an EncoderModel maps a symbol to its
// fixed-point cumulative/probability pair, a DecoderModel performs the
// inverse lookup from a quantile. Probability is represented in the same
// Word type the surrounding coder uses, mirroring the Rust source's
// `D::Probability: Into<Self::CompressedWord>` bound (see
// original_source/src/stream/queue.rs), since spec.md requires
// PRECISION <= Word::BITS.
//
// The distribution-fitting algorithms callers plug in (a Gaussian, a
// Laplace, ...) are out of scope here; only the quantizer/categorical
// constructors that turn such a distribution, or a plain weight vector,
// into a table satisfying EncoderModel/DecoderModel are in scope.
package model

import (
	"errors"

	"github.com/ha1tch/entropy/wordtype"
)

// Unsigned is the probability-type bound shared with wordtype.Unsigned.
type Unsigned = wordtype.Unsigned

// ErrImpossibleSymbol is returned when a symbol has zero probability under
// a model (querying it would not make progress and indicates a caller bug
// or a mismatched model).
var ErrImpossibleSymbol = errors.New("model: symbol has zero probability under this model")

// ErrDegenerateModel is returned by a model constructor when the requested
// probabilities cannot be represented: all weights non-positive, an empty
// support, or a support wider than PRECISION can allocate a leak unit to.
var ErrDegenerateModel = errors.New("model: distribution cannot be normalized to a nonzero fixed-point table")

// Model is the PRECISION accessor shared by EncoderModel and DecoderModel:
// every concrete model carries the fixed-point precision its
// cumulative/probability pairs are expressed in, so a coder can compute
// `scale = range >> PRECISION` without being told PRECISION out of band.
type Model[P Unsigned] interface {
	Precision() int
}

// EncoderModel looks up a symbol's fixed-point left-cumulative and
// probability. left + probability must never exceed 1<<Precision(), and
// probability must be nonzero for every symbol the model considers valid.
type EncoderModel[Symbol any, P Unsigned] interface {
	Model[P]
	LeftCumulativeAndProbability(symbol Symbol) (left, probability P, err error)
}

// DecoderModel performs the inverse lookup: given a quantile in
// [0, 1<<Precision()), it returns the symbol whose [left, left+probability)
// range contains it.
type DecoderModel[Symbol any, P Unsigned] interface {
	Model[P]
	QuantileFunction(quantile P) (symbol Symbol, left, probability P)
}
