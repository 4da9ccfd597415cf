package backend

import "github.com/ha1tch/entropy/wordtype"

// GrowableBuffer is an unbounded Stack-semantics backend backed by a slice
// that grows on Write and shrinks on Read. It is the default bulk backend
// for the ANS stack coder (spec.md §4.3): Write appends, Read pops from the
// end, matching the teacher's own []byte accumulation in
// ha1tch/unz/pkg/ans/ans.go's Encoder.output / Decoder.data fields, except
// here both directions live on the same type since the coder both writes
// during encoding and reads back during decoding of the same stream.
type GrowableBuffer[W wordtype.Unsigned] struct {
	buf []W
}

// NewGrowableBuffer returns an empty growable buffer.
func NewGrowableBuffer[W wordtype.Unsigned]() *GrowableBuffer[W] {
	return &GrowableBuffer[W]{}
}

// NewGrowableBufferFrom wraps an existing slice as a growable buffer. The
// slice becomes owned by the buffer; callers should not mutate it
// afterwards.
func NewGrowableBufferFrom[W wordtype.Unsigned](buf []W) *GrowableBuffer[W] {
	return &GrowableBuffer[W]{buf: buf}
}

func (b *GrowableBuffer[W]) Write(w W) error {
	b.buf = append(b.buf, w)
	return nil
}

func (b *GrowableBuffer[W]) MaybeFull() bool { return false }

// Read pops the most recently written word (Stack semantics).
func (b *GrowableBuffer[W]) Read() (W, bool, error) {
	n := len(b.buf)
	if n == 0 {
		var zero W
		return zero, false, nil
	}
	n--
	w := b.buf[n]
	b.buf = b.buf[:n]
	return w, true, nil
}

func (b *GrowableBuffer[W]) MaybeExhausted() bool { return len(b.buf) == 0 }
func (b *GrowableBuffer[W]) Remaining() int       { return len(b.buf) }
func (b *GrowableBuffer[W]) IsExhausted() bool    { return len(b.buf) == 0 }
func (b *GrowableBuffer[W]) Pos() int             { return len(b.buf) }

// Into returns the underlying slice, in write order (oldest write first).
// The buffer must not be used afterwards.
func (b *GrowableBuffer[W]) Into() []W { return b.buf }

// Peek returns a copy of the underlying slice without consuming it.
func (b *GrowableBuffer[W]) Peek() []W {
	out := make([]W, len(b.buf))
	copy(out, b.buf)
	return out
}
