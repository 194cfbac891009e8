// Package arena provides the growable flat region the compact index is
// serialized into.
//
// The region is a contiguous byte slice addressed by 32-bit word offsets.
// Offset 0 is reserved as the null reference, which lets serialized records
// use 0 to mean "no child".
//
// # Safety
//
// A FlatArena is single-writer. Once Freeze is called the bytes are
// immutable and may be shared by any number of readers.
package arena
