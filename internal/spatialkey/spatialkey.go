// Package spatialkey maps coordinates onto Z-order tile keys.
//
// Latitude and longitude are quantized independently into depth-bit tile
// indices over the full coordinate range (lat [-90, 90], lon [-180, 180]) and
// then bit-interleaved, latitude bit first. Keys are therefore stable across
// builds and independent of any graph's bounding box. Longitude is a flat
// linear range: tiles at lon -180 and lon +180 are not adjacent.
package spatialkey

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/graph"
)

// MaxDepth is the deepest supported level. 2*MaxDepth key bits fit a uint64
// with room to spare and tile indices fit a uint32.
const MaxDepth = 31

var (
	// ErrCoordinateOutOfRange is returned for NaN or out-of-range coordinates.
	ErrCoordinateOutOfRange = errors.New("coordinate out of range")
	// ErrInvalidDepth is returned for depths outside [1, MaxDepth].
	ErrInvalidDepth = errors.New("invalid depth")
)

// Codec encodes coordinates at a fixed depth. The zero value is not usable;
// construct with New.
type Codec struct {
	depth int
	n     float64 // tiles per axis
	max   uint32  // last tile index
}

// New creates a Codec for the given depth.
func New(depth int) (Codec, error) {
	if depth < 1 || depth > MaxDepth {
		return Codec{}, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	n := uint64(1) << uint(depth)
	return Codec{depth: depth, n: float64(n), max: uint32(n - 1)}, nil
}

// DepthForResolution returns the smallest depth whose tiles are at most
// meters wide along the equator, clamped to [1, MaxDepth].
func DepthForResolution(meters float64) int {
	if !(meters > 0) {
		return MaxDepth
	}
	d := int(math.Ceil(math.Log2(360 * distance.MetersPerDegree / meters)))
	return min(max(d, 1), MaxDepth)
}

// Depth returns the number of bits per axis.
func (c Codec) Depth() int { return c.depth }

// Bits returns the number of significant key bits.
func (c Codec) Bits() int { return 2 * c.depth }

// TilesPerAxis returns 2^depth.
func (c Codec) TilesPerAxis() uint32 { return c.max + 1 }

// TileSize returns the edge lengths of one tile in degrees.
func (c Codec) TileSize() (dLat, dLon float64) {
	return 180 / c.n, 360 / c.n
}

// Valid reports whether (lat, lon) lies in the encodable range.
func Valid(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Tile returns the longitude (x) and latitude (y) tile indices of a point.
func (c Codec) Tile(lat, lon float64) (x, y uint32, err error) {
	if !Valid(lat, lon) {
		return 0, 0, fmt.Errorf("%w: %v,%v", ErrCoordinateOutOfRange, lat, lon)
	}
	return c.quantize((lon + 180) / 360), c.quantize((lat + 90) / 180), nil
}

// Fraction returns the continuous tile coordinates of a point: the integer
// part is the tile index, the fraction the offset inside the tile.
// The point must be Valid.
func (c Codec) Fraction(lat, lon float64) (fx, fy float64) {
	return (lon + 180) / 360 * c.n, (lat + 90) / 180 * c.n
}

func (c Codec) quantize(unit float64) uint32 {
	// lat 90 and lon 180 belong to the last tile.
	return min(uint32(unit*c.n), c.max)
}

// Clamp bounds a signed tile index to [0, TilesPerAxis).
func (c Codec) Clamp(i int64) uint32 {
	if i < 0 {
		return 0
	}
	if i > int64(c.max) {
		return c.max
	}
	return uint32(i)
}

// Encode returns the tile key of a point.
func (c Codec) Encode(lat, lon float64) (uint64, error) {
	x, y, err := c.Tile(lat, lon)
	if err != nil {
		return 0, err
	}
	return Interleave(x, y), nil
}

// Decode returns the center of the tile identified by key. It is lossy: every
// point of a tile decodes to the same center.
func (c Codec) Decode(key uint64) (lat, lon float64) {
	x, y := Deinterleave(key)
	return c.TileCenter(x, y)
}

// TileCenter returns the center of tile (x, y).
func (c Codec) TileCenter(x, y uint32) (lat, lon float64) {
	dLat, dLon := c.TileSize()
	return (float64(y)+0.5)*dLat - 90, (float64(x)+0.5)*dLon - 180
}

// Key returns the key of tile (x, y).
func (c Codec) Key(x, y uint32) uint64 { return Interleave(x, y) }

// XY returns the tile indices of key.
func (c Codec) XY(key uint64) (x, y uint32) { return Deinterleave(key) }

// TileBounds returns the area covered by tile (x, y).
func (c Codec) TileBounds(x, y uint32) graph.BBox {
	dLat, dLon := c.TileSize()
	return graph.BBox{
		MinLat: float64(y)*dLat - 90,
		MaxLat: float64(y+1)*dLat - 90,
		MinLon: float64(x)*dLon - 180,
		MaxLon: float64(x+1)*dLon - 180,
	}
}

// TilePath returns the child index (0..3) taken at every level from the root
// down to the tile identified by key.
func (c Codec) TilePath(key uint64) []int {
	path := make([]int, c.depth)
	for level := range path {
		path[level] = ChildIndex(key, c.depth, level)
	}
	return path
}

// ChildIndex returns the child slot taken at level (0 = root) for a key of
// the given depth. Bit 1 of the slot is the latitude bit, bit 0 the longitude
// bit.
func ChildIndex(key uint64, depth, level int) int {
	shift := uint(2 * (depth - 1 - level))
	return int((key >> shift) & 3)
}

// Interleave builds a Z-order key from tile indices, latitude bit first.
func Interleave(x, y uint32) uint64 {
	return spread(y)<<1 | spread(x)
}

// Deinterleave splits a Z-order key back into tile indices.
func Deinterleave(key uint64) (x, y uint32) {
	return compact(key), compact(key >> 1)
}

func spread(v uint32) uint64 {
	x := uint64(v)
	x = (x | x<<16) & 0x0000FFFF0000FFFF
	x = (x | x<<8) & 0x00FF00FF00FF00FF
	x = (x | x<<4) & 0x0F0F0F0F0F0F0F0F
	x = (x | x<<2) & 0x3333333333333333
	x = (x | x<<1) & 0x5555555555555555
	return x
}

func compact(x uint64) uint32 {
	x &= 0x5555555555555555
	x = (x | x>>1) & 0x3333333333333333
	x = (x | x>>2) & 0x0F0F0F0F0F0F0F0F
	x = (x | x>>4) & 0x00FF00FF00FF00FF
	x = (x | x>>8) & 0x0000FFFF0000FFFF
	x = (x | x>>16) & 0x00000000FFFFFFFF
	return uint32(x)
}
