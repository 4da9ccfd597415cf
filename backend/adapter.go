package backend

import "github.com/ha1tch/entropy/wordtype"

// IteratorReader adapts a pull function to ReadWords, for sourcing words
// from something that isn't a slice (a channel drain, a network stream). It
// mirrors the IntoReadWords-over-Iterator conversion in backends.rs. Once
// next reports ok=false or an error, the reader is permanently exhausted
// ("fused"), matching the Rust source's documented assumption that a
// backend never un-exhausts itself.
type IteratorReader[W wordtype.Unsigned] struct {
	next      func() (W, bool, error)
	exhausted bool
}

// NewIteratorReader wraps next as a ReadWords backend.
func NewIteratorReader[W wordtype.Unsigned](next func() (W, bool, error)) *IteratorReader[W] {
	return &IteratorReader[W]{next: next}
}

func (r *IteratorReader[W]) Read() (W, bool, error) {
	if r.exhausted {
		var zero W
		return zero, false, nil
	}
	w, ok, err := r.next()
	if err != nil {
		r.exhausted = true
		var zero W
		return zero, false, err
	}
	if !ok {
		r.exhausted = true
	}
	return w, ok, nil
}

func (r *IteratorReader[W]) MaybeExhausted() bool { return r.exhausted }

// CallbackWriter adapts a push function to WriteWords, for sinking words
// somewhere other than a slice (a hasher, a socket write, a counting
// probe).
type CallbackWriter[W wordtype.Unsigned] struct {
	push func(W) error
}

// NewCallbackWriter wraps push as a WriteWords backend.
func NewCallbackWriter[W wordtype.Unsigned](push func(W) error) *CallbackWriter[W] {
	return &CallbackWriter[W]{push: push}
}

func (c *CallbackWriter[W]) Write(w W) error { return c.push(w) }
func (c *CallbackWriter[W]) MaybeFull() bool { return false }
