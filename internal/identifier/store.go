// Package identifier allocates collision-free, human-readable asset
// identifiers: <PREFIX>-<YYYYMMDD>-<NNNN>, with the four digit sequence
// unique and monotonically increasing within each (prefix, day).
package identifier

import (
	"context"
	"errors"
)

// Key addresses one sequence counter.
type Key struct {
	Prefix    string
	DateStamp string // YYYYMMDD
}

// ErrExhausted is returned by sequence stores when an allocation would push
// the counter past its maximum. Nothing is allocated in that case; the
// allocator translates this into CodeExhaustedSequence.
var ErrExhausted = errors.New("sequence exhausted")

// SequenceStore hands out contiguous sequence ranges, serialized per key.
// NextRange returns the first number of a block of count consecutive
// integers; two concurrent calls for the same key never overlap. Failed
// allocations leave the counter untouched so successful allocations stay
// gapless from the previous maximum.
type SequenceStore interface {
	NextRange(ctx context.Context, key Key, count, max int) (first int, err error)
}
