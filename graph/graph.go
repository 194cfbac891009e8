// Package graph defines the read-only routing graph contract consumed by the
// location index, plus an in-memory implementation.
//
// The index never mutates a graph. Implementations backed by on-disk storage
// only need to answer coordinate, edge and geometry lookups; everything else
// (contraction, flag encoding, import) stays outside this module.
package graph

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// PointFromOrb converts an orb point (lon, lat) into a Point.
func PointFromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lon: p.Lon()}
}

// Orb returns p as an orb point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func (p Point) String() string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

// EdgeView is a value snapshot of one edge, handed to filters.
// It is passed by value so filters stay allocation-free.
type EdgeView struct {
	ID    int
	Base  int
	Adj   int
	Flags uint64
}

// EdgeFilter reports whether an edge may be snapped to.
// A nil EdgeFilter accepts every edge.
type EdgeFilter func(e EdgeView) bool

// NodeFilter reports whether a tower node may be returned by node searches.
// A nil NodeFilter accepts every node.
type NodeFilter func(node int) bool

// AllEdges accepts every edge.
var AllEdges EdgeFilter = func(EdgeView) bool { return true }

// FlagFilter accepts edges having all bits of mask set.
func FlagFilter(mask uint64) EdgeFilter {
	return func(e EdgeView) bool {
		return e.Flags&mask == mask
	}
}

// Graph is the read-only routing graph used to build and query an index.
//
// Implementations must be safe for concurrent readers.
type Graph interface {
	// NumNodes returns the number of tower nodes. Node ids are [0, NumNodes).
	NumNodes() int
	// NumEdges returns the number of edges. Edge ids are [0, NumEdges).
	NumEdges() int
	// Point returns the coordinate of a tower node.
	Point(node int) Point
	// Edge returns the endpoints and attribute flags of an edge.
	Edge(edge int) EdgeView
	// Geometry appends the full polyline of an edge to dst and returns it:
	// base tower node, pillar points, adjacent tower node.
	Geometry(edge int, dst []Point) []Point
	// BBox returns the bounding box of all node and pillar coordinates.
	BBox() BBox
}

// BBox is an axis-aligned latitude/longitude rectangle.
type BBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// EmptyBBox returns an inverted box that any Extend call will overwrite.
func EmptyBBox() BBox {
	return BBox{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
}

// IsValid reports whether the box contains at least one point.
func (b BBox) IsValid() bool {
	return b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// BBoxFromBound converts an orb bound into a BBox.
func BBoxFromBound(b orb.Bound) BBox {
	return BBox{
		MinLat: b.Min.Lat(), MaxLat: b.Max.Lat(),
		MinLon: b.Min.Lon(), MaxLon: b.Max.Lon(),
	}
}

// Bound returns b as an orb bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Extend grows the box to include p.
func (b *BBox) Extend(p Point) {
	*b = BBoxFromBound(b.Bound().Extend(p.Orb()))
}

// Contains reports whether p lies inside the box (borders included).
func (b BBox) Contains(p Point) bool {
	return b.Bound().Contains(p.Orb())
}

// Intersects reports whether the two boxes share at least one point.
func (b BBox) Intersects(o BBox) bool {
	return b.Bound().Intersects(o.Bound())
}

// Pad returns the box grown by latDeg and lonDeg on every side.
func (b BBox) Pad(latDeg, lonDeg float64) BBox {
	return BBox{
		MinLat: b.MinLat - latDeg, MaxLat: b.MaxLat + latDeg,
		MinLon: b.MinLon - lonDeg, MaxLon: b.MaxLon + lonDeg,
	}
}

func (b BBox) String() string {
	return fmt.Sprintf("%f,%f,%f,%f", b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
}
