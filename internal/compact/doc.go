// Package compact implements the immutable, serialized form of the location
// index.
//
// A region is a flat sequence of little-endian 32-bit words:
//
//	header        80 bytes (magic, version, depth, direct levels, resolution,
//	              bounding box, edge count, total length, CRC32C of the body)
//	direct table  4^L references, L = min(depth, 3)
//	records       preorder tree records
//
// A reference is a signed word:
//
//	 0  empty
//	>0  word offset of a record; a branch (four references) above leaf
//	    level, a leaf ([count, ids ascending...]) at leaf level
//	<0  a leaf holding the single edge id -(ref+1)
//
// Open validates every reference before the region is used, so lookups never
// need bounds checks beyond the slice itself.
package compact
