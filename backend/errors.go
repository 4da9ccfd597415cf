package backend

import "errors"

// ErrOutOfSpace is returned by a bounded write backend whose capacity is
// exhausted.
var ErrOutOfSpace = errors.New("backend: write backend is out of space")

// ErrSeekOutOfRange is returned when Seek is asked to move outside the
// backend's valid position range.
var ErrSeekOutOfRange = errors.New("backend: seek position out of range")
