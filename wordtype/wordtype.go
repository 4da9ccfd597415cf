// Package wordtype provides the integer-width primitives shared by every
// stream coder in this module: the generic bound used for Word and State
// type parameters, bit-width introspection, and a NonZero wrapper for values
// that must never be allowed to decay to zero through ordinary arithmetic.
package wordtype

import (
	"fmt"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Unsigned is the bound shared by every Word and State type parameter in
// this module. Word is the emitted/consumed I/O unit (e.g. uint8, uint16,
// uint32); State is the internal accumulator, at least twice as wide.
type Unsigned = constraints.Unsigned

// Bits returns the bit width of T.
func Bits[T Unsigned]() int {
	var zero T
	return int(unsafe.Sizeof(zero)) * 8
}

// Max returns the all-ones value of T.
func Max[T Unsigned]() T {
	var zero T
	return ^zero
}

// NonZero wraps a value of T that is guaranteed never to be zero. Several
// coders rely on this invariant for correctness (the chain coder's
// heads.quantiles in particular, see chain.Heads) rather than re-deriving it
// from an ordinary T on every use.
type NonZero[T Unsigned] struct {
	v T
}

// NewNonZero wraps v, reporting false if v is zero.
func NewNonZero[T Unsigned](v T) (NonZero[T], bool) {
	if v == 0 {
		return NonZero[T]{}, false
	}
	return NonZero[T]{v: v}, true
}

// MustNonZero is NewNonZero but panics on zero. Used at call sites where the
// surrounding invariant already guarantees non-zero-ness and a failure would
// indicate a bug in this module, not bad caller input.
func MustNonZero[T Unsigned](v T) NonZero[T] {
	nz, ok := NewNonZero(v)
	if !ok {
		panic(fmt.Sprintf("wordtype: value must be nonzero, got %v", v))
	}
	return nz
}

// One returns a NonZero wrapping the value 1.
func One[T Unsigned]() NonZero[T] {
	return NonZero[T]{v: 1}
}

// Get returns the wrapped value.
func (n NonZero[T]) Get() T { return n.v }

// Config bundles the three knobs every coder is parameterized by: the Word
// and State bit widths (implicit in T and S) and PRECISION, the fixed-point
// bit width of probabilities. Go has no const generics, so PRECISION is a
// runtime field validated once at construction, unlike the Rust source's
// `const PRECISION: usize` type parameter.
type Config struct {
	WordBits  int
	StateBits int
	Precision int
}

// Validate checks the invariants spec.md §2 imposes on (Word, State,
// PRECISION): State must be at least twice as wide as Word, and PRECISION
// must fit within Word with State carrying enough headroom above it.
func (c Config) Validate() error {
	if c.StateBits < 2*c.WordBits {
		return fmt.Errorf("wordtype: State::BITS (%d) must be >= 2*Word::BITS (%d)", c.StateBits, 2*c.WordBits)
	}
	if c.Precision <= 0 || c.Precision > c.WordBits {
		return fmt.Errorf("wordtype: PRECISION (%d) must satisfy 0 < PRECISION <= Word::BITS (%d)", c.Precision, c.WordBits)
	}
	if c.StateBits < c.WordBits+c.Precision {
		return fmt.Errorf("wordtype: State::BITS (%d) must be >= Word::BITS + PRECISION (%d)", c.StateBits, c.WordBits+c.Precision)
	}
	return nil
}

// ConfigFor derives a Config from the type parameters and a PRECISION value.
func ConfigFor[W, S Unsigned](precision int) Config {
	return Config{WordBits: Bits[W](), StateBits: Bits[S](), Precision: precision}
}
