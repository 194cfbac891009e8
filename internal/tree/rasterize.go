package tree

import (
	"math"

	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/internal/spatialkey"
)

// Rasterize calls emit with the key of every tile the polyline passes through.
//
// Each segment is walked across tile boundaries in order of crossing, so no
// tile the segment touches is skipped. When a segment passes exactly through
// a tile corner both side tiles are emitted as well. A degenerate polyline
// still emits the tile of its first point. Consecutive duplicates are
// suppressed; non-consecutive duplicates are possible.
//
// All points must satisfy spatialkey.Valid.
func Rasterize(c spatialkey.Codec, poly []graph.Point, emit func(key uint64)) {
	r := rasterizer{codec: c, emit: emit, last: math.MaxUint64}
	if len(poly) == 1 {
		r.point(poly[0])
		return
	}
	for i := 1; i < len(poly); i++ {
		a, b := poly[i-1], poly[i]
		if distance.SeamHop(a, b) {
			r.point(a)
			r.point(b)
			continue
		}
		r.segment(a, b)
	}
}

type rasterizer struct {
	codec spatialkey.Codec
	emit  func(uint64)
	last  uint64
}

func (r *rasterizer) visit(x, y int64) {
	limit := int64(r.codec.TilesPerAxis())
	if x < 0 || y < 0 || x >= limit || y >= limit {
		return
	}
	key := spatialkey.Interleave(uint32(x), uint32(y))
	if key == r.last {
		return
	}
	r.last = key
	r.emit(key)
}

func (r *rasterizer) point(p graph.Point) {
	fx, fy := r.codec.Fraction(p.Lat, p.Lon)
	r.visit(int64(r.codec.Clamp(int64(fx))), int64(r.codec.Clamp(int64(fy))))
}

func (r *rasterizer) segment(a, b graph.Point) {
	x0, y0 := r.codec.Fraction(a.Lat, a.Lon)
	x1, y1 := r.codec.Fraction(b.Lat, b.Lon)

	ix, iy := int64(r.codec.Clamp(int64(x0))), int64(r.codec.Clamp(int64(y0)))
	ex, ey := int64(r.codec.Clamp(int64(x1))), int64(r.codec.Clamp(int64(y1)))

	r.visit(ix, iy)
	if ix == ex && iy == ey {
		return
	}

	dx, dy := x1-x0, y1-y0
	stepX, tMaxX, tDeltaX := axis(x0, dx, ix)
	stepY, tMaxY, tDeltaY := axis(y0, dy, iy)

	// Every step moves one axis one tile closer to the end tile, so the walk
	// finishes in at most the Manhattan distance. Floating point noise may
	// order two crossings wrongly; once an axis has arrived it is pinned.
	for steps := abs(ex-ix) + abs(ey-iy); steps > 0 && (ix != ex || iy != ey); steps-- {
		switch {
		case ix == ex:
			iy += stepY
			tMaxY += tDeltaY
		case iy == ey:
			ix += stepX
			tMaxX += tDeltaX
		case tMaxX < tMaxY:
			ix += stepX
			tMaxX += tDeltaX
		case tMaxY < tMaxX:
			iy += stepY
			tMaxY += tDeltaY
		default:
			// Exactly through a corner.
			r.visit(ix+stepX, iy)
			r.visit(ix, iy+stepY)
			ix += stepX
			iy += stepY
			tMaxX += tDeltaX
			tMaxY += tDeltaY
			steps--
		}
		r.visit(ix, iy)
	}
}

// axis returns the step direction, the parametric distance to the first
// tile boundary and the parametric length of one tile along one axis.
func axis(origin, delta float64, tile int64) (step int64, tMax, tDelta float64) {
	switch {
	case delta > 0:
		return 1, (float64(tile+1) - origin) / delta, 1 / delta
	case delta < 0:
		return -1, (float64(tile) - origin) / delta, -1 / delta
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
