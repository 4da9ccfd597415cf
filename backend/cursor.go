package backend

import "github.com/ha1tch/entropy/wordtype"

// Cursor is a bounded, bidirectional backend over a fixed slice, grounded on
// original_source/src/backends.rs's Cursor<Buf>. Unlike the Rust source,
// where Stack/Queue semantics are picked by the type the Cursor is read
// through, this Cursor exposes both directions directly (ReadStack,
// ReadQueue) and StackReader/QueueReader adapt one direction each to the
// ReadWords interface, matching how callers in this module pick a direction
// once at construction and never switch.
type Cursor[W wordtype.Unsigned] struct {
	buf []W
	pos int
}

// NewCursorAtStart returns a Cursor positioned for Queue reads/writes from
// the beginning of buf.
func NewCursorAtStart[W wordtype.Unsigned](buf []W) *Cursor[W] {
	return &Cursor[W]{buf: buf, pos: 0}
}

// NewCursorAtEnd returns a Cursor positioned for Stack reads from the end of
// buf, with no remaining write space (mirrors
// Cursor::new_at_write_beginning / new_at_write_end in backends.rs, chosen
// by which end pos starts at).
func NewCursorAtEnd[W wordtype.Unsigned](buf []W) *Cursor[W] {
	return &Cursor[W]{buf: buf, pos: len(buf)}
}

// WithBufAndPos mirrors Cursor::with_buf_and_pos.
func WithBufAndPos[W wordtype.Unsigned](buf []W, pos int) (*Cursor[W], error) {
	if pos < 0 || pos > len(buf) {
		return nil, ErrSeekOutOfRange
	}
	return &Cursor[W]{buf: buf, pos: pos}, nil
}

// ReadStack pops the word immediately before pos, moving pos backward.
func (c *Cursor[W]) ReadStack() (W, bool, error) {
	if c.pos == 0 {
		var zero W
		return zero, false, nil
	}
	c.pos--
	return c.buf[c.pos], true, nil
}

// ReadQueue reads the word at pos, moving pos forward.
func (c *Cursor[W]) ReadQueue() (W, bool, error) {
	if c.pos >= len(c.buf) {
		var zero W
		return zero, false, nil
	}
	w := c.buf[c.pos]
	c.pos++
	return w, true, nil
}

// Write writes w at pos and advances pos. Cursor is bounded by the fixed
// slice it was constructed over: Write returns ErrOutOfSpace once pos
// reaches the end rather than growing it, matching backends.rs's Cursor,
// whose capacity is fixed at construction.
func (c *Cursor[W]) Write(w W) error {
	if c.pos == len(c.buf) {
		return ErrOutOfSpace
	}
	c.buf[c.pos] = w
	c.pos++
	return nil
}

func (c *Cursor[W]) MaybeFull() bool { return c.pos == len(c.buf) }

// Space reports how many further words Write can accept.
func (c *Cursor[W]) Space() int { return len(c.buf) - c.pos }

// IsFull reports whether Write would return ErrOutOfSpace.
func (c *Cursor[W]) IsFull() bool { return c.Space() == 0 }

func (c *Cursor[W]) Pos() int { return c.pos }

func (c *Cursor[W]) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return ErrSeekOutOfRange
	}
	c.pos = pos
	return nil
}

// RemainingStack reports how many words are available to ReadStack.
func (c *Cursor[W]) RemainingStack() int { return c.pos }

// RemainingQueue reports how many words are available to ReadQueue.
func (c *Cursor[W]) RemainingQueue() int { return len(c.buf) - c.pos }

// AsView returns a copy of the full underlying buffer.
func (c *Cursor[W]) AsView() []W {
	out := make([]W, len(c.buf))
	copy(out, c.buf)
	return out
}

// StackReader adapts a Cursor to the ReadWords/BoundedReader interfaces
// using Stack semantics (LIFO, reading from the high end down towards 0).
type StackReader[W wordtype.Unsigned] struct{ *Cursor[W] }

func (s StackReader[W]) Read() (W, bool, error) { return s.Cursor.ReadStack() }
func (s StackReader[W]) MaybeExhausted() bool   { return s.Cursor.pos == 0 }
func (s StackReader[W]) Remaining() int         { return s.Cursor.RemainingStack() }
func (s StackReader[W]) IsExhausted() bool      { return s.Remaining() == 0 }

// QueueReader adapts a Cursor to the ReadWords/BoundedReader interfaces
// using Queue semantics (FIFO, reading from pos upward).
type QueueReader[W wordtype.Unsigned] struct{ *Cursor[W] }

func (q QueueReader[W]) Read() (W, bool, error) { return q.Cursor.ReadQueue() }
func (q QueueReader[W]) MaybeExhausted() bool   { return q.Cursor.pos == len(q.Cursor.buf) }
func (q QueueReader[W]) Remaining() int         { return q.Cursor.RemainingQueue() }
func (q QueueReader[W]) IsExhausted() bool      { return q.Remaining() == 0 }

// ReverseReads swaps Stack and Queue semantics for a Cursor-backed reader,
// mirroring backends.rs's ReverseReads<Backend> adapter. Because both
// directions are already plain methods on the same Cursor, reversing is
// just handing back the other adapter over the same underlying buffer and
// position.
func ReverseReads[W wordtype.Unsigned](s StackReader[W]) QueueReader[W] {
	return QueueReader[W]{s.Cursor}
}

// ReverseReadsQ is the Queue-to-Stack direction of ReverseReads.
func ReverseReadsQ[W wordtype.Unsigned](q QueueReader[W]) StackReader[W] {
	return StackReader[W]{q.Cursor}
}
