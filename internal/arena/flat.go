package arena

import (
	"encoding/binary"
	"errors"
	"math"
)

// WordSize is the size of one addressable unit in bytes.
const WordSize = 4

var (
	// ErrArenaFull is returned when an allocation would exceed the addressable
	// range of 32-bit word offsets.
	ErrArenaFull = errors.New("arena is full")
	// ErrFrozen is returned when allocating in a frozen arena.
	ErrFrozen = errors.New("arena is frozen")
)

// FlatArena is a contiguous, growable region of little-endian 32-bit words.
// It uses uint32 word offsets for addressing.
type FlatArena struct {
	buf    []byte
	frozen bool
}

// NewFlat creates a FlatArena with reserved leading words. The reserved
// prefix always contains offset 0, so no allocation can ever return 0.
func NewFlat(reservedWords, capacityHint int) *FlatArena {
	reservedWords = max(reservedWords, 1)
	capBytes := max(capacityHint, reservedWords*WordSize)
	return &FlatArena{
		buf: make([]byte, reservedWords*WordSize, capBytes),
	}
}

// Alloc appends words zeroed words and returns the offset of the first one.
func (a *FlatArena) Alloc(words int) (uint32, error) {
	if a.frozen {
		return 0, ErrFrozen
	}
	off := len(a.buf) / WordSize
	if off+words > math.MaxInt32 {
		return 0, ErrArenaFull
	}
	a.buf = append(a.buf, make([]byte, words*WordSize)...)
	return uint32(off), nil
}

// PutInt32 stores v at word offset off.
func (a *FlatArena) PutInt32(off uint32, v int32) {
	binary.LittleEndian.PutUint32(a.buf[int(off)*WordSize:], uint32(v))
}

// Int32 loads the word at offset off.
func (a *FlatArena) Int32(off uint32) int32 {
	return int32(binary.LittleEndian.Uint32(a.buf[int(off)*WordSize:]))
}

// Words returns the number of words in use.
func (a *FlatArena) Words() int {
	return len(a.buf) / WordSize
}

// Buffer returns the underlying byte slice.
// WARNING: The returned slice is invalidated by the next Alloc.
func (a *FlatArena) Buffer() []byte {
	return a.buf
}

// Freeze stops further allocation and returns the final bytes, trimmed to
// their used length.
func (a *FlatArena) Freeze() []byte {
	a.frozen = true
	a.buf = a.buf[:len(a.buf):len(a.buf)]
	return a.buf
}
