// Package backend provides the read/write abstractions that every stream
// coder in this module is built on: sources and sinks of Word sequences,
// with Stack (LIFO) or Queue (FIFO) semantics. The interfaces mirror
// constriction's backends.rs (see _examples/original_source/src/backends.rs)
// translated into Go: traits become interfaces, and the phantom Stack/Queue
// semantics markers become two distinct read methods on the bidirectional
// Cursor type rather than a type parameter, since only Cursor ever needs
// both directions.
package backend

import "github.com/ha1tch/entropy/wordtype"

// ReadWords is implemented by backends that decoders consume words from.
// Read returns ok=false when no more data is available, where detectable;
// some backends (notably IteratorReader wrapping a non-fused source) may not
// be able to detect end-of-stream, in which case MaybeExhausted may
// over-report.
type ReadWords[W wordtype.Unsigned] interface {
	Read() (word W, ok bool, err error)
	MaybeExhausted() bool
}

// WriteWords is implemented by backends that encoders write words to.
type WriteWords[W wordtype.Unsigned] interface {
	Write(word W) error
	MaybeFull() bool
}

// ExtendFromSlice writes every word in ws, in order, stopping at the first
// error. It is the default loop spec.md §4.2 describes for
// extend_from_iter; backends that can do better (e.g. a single append) are
// free to shadow it with their own method of the same name.
func ExtendFromSlice[W wordtype.Unsigned](w WriteWords[W], ws []W) error {
	for _, word := range ws {
		if err := w.Write(word); err != nil {
			return err
		}
	}
	return nil
}

// BoundedReader is implemented by read backends that know exactly how much
// data is left.
type BoundedReader interface {
	Remaining() int
	IsExhausted() bool
}

// BoundedWriter is implemented by write backends with a fixed capacity.
type BoundedWriter interface {
	Space() int
	IsFull() bool
}

// Positioner is implemented by backends that track their position in the
// word sequence.
type Positioner interface {
	Pos() int
}

// Seeker is implemented by backends that allow random access.
type Seeker interface {
	Seek(pos int) error
}
