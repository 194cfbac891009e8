// Package hash provides the CRC32-Castagnoli checksum used to guard
// serialized index regions.
//
// Go's hash/crc32 uses the SSE4.2 and ARM CRC instructions when present.
//
//	checksum := hash.CRC32C(data)
package hash
