package locindex

import (
	"context"

	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/internal/searcher"
	"github.com/hupe1980/locindex/internal/spatialkey"
)

// tileRect is an inclusive range of tile indices. An empty rect has x0 > x1.
type tileRect struct {
	x0, y0, x1, y1 int64
}

func (r tileRect) empty() bool { return r.x0 > r.x1 || r.y0 > r.y1 }

func (r tileRect) contains(x, y int64) bool {
	return x >= r.x0 && x <= r.x1 && y >= r.y0 && y <= r.y1
}

// boundsRect returns the tiles touching bbox, padded by one tile to absorb
// rounding at tile borders.
func boundsRect(c spatialkey.Codec, bbox graph.BBox) tileRect {
	if !bbox.IsValid() {
		return tileRect{x0: 1, x1: 0}
	}
	fx0, fy0 := c.Fraction(bbox.MinLat, bbox.MinLon)
	fx1, fy1 := c.Fraction(bbox.MaxLat, bbox.MaxLon)
	return tileRect{
		x0: int64(c.Clamp(int64(fx0) - 1)),
		y0: int64(c.Clamp(int64(fy0) - 1)),
		x1: int64(c.Clamp(int64(fx1) + 1)),
		y1: int64(c.Clamp(int64(fy1) + 1)),
	}
}

// query is one validated region search.
type query struct {
	lat, lon   float64
	k          int
	radius     float64 // meters, 0 = unbounded
	rings      int
	nodes      bool
	edgeFilter graph.EdgeFilter
	nodeFilter graph.NodeFilter
}

// search runs the ring expansion for q and leaves up to q.k candidates in
// s.Results.
//
// Ring r holds the tiles at Chebyshev distance r from the home tile. After
// each ring the search stops once the k-th best distance is below rMin, the
// distance from the query to the border of the square searched so far: every
// unseen edge lies entirely outside that square. Rings are skipped where they
// do not touch the indexed bounding box.
func (idx *Index) search(ctx context.Context, q *query, s *searcher.Searcher) error {
	if idx.bounds.empty() {
		return nil
	}
	hx, hy, err := idx.codec.Tile(q.lat, q.lon)
	if err != nil {
		return &CoordinateOutOfRangeError{Edge: -1, Point: graph.Point{Lat: q.lat, Lon: q.lon}}
	}
	x, y := int64(hx), int64(hy)
	b := idx.bounds

	visit := func(tx, ty int64) {
		s.Tiles++
		idx.store.Lookup(idx.codec.Key(uint32(tx), uint32(ty)), func(edge int) {
			if s.Edges.Visit(edge) {
				idx.evaluate(q, s, edge)
			}
		})
	}

	for r := int64(0); r < int64(q.rings); r++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Top and bottom rows, then the columns between them.
		for _, ty := range [2]int64{y - r, y + r} {
			if ty >= b.y0 && ty <= b.y1 {
				for tx := max(x-r, b.x0); tx <= min(x+r, b.x1); tx++ {
					visit(tx, ty)
				}
			}
			if r == 0 {
				break
			}
		}
		for _, tx := range [2]int64{x - r, x + r} {
			if r == 0 || tx < b.x0 || tx > b.x1 {
				continue
			}
			for ty := max(y-r+1, b.y0); ty <= min(y+r-1, b.y1); ty++ {
				visit(tx, ty)
			}
		}

		if x-r <= b.x0 && x+r >= b.x1 && y-r <= b.y0 && y+r >= b.y1 {
			// Every indexed tile has been seen.
			return nil
		}

		rMin := idx.rMin(q.lat, q.lon, hx, hy, int(r))
		if q.radius > 0 && rMin > q.radius {
			return nil
		}
		if worst, ok := s.Results.TopItem(); ok && s.Results.Len() >= q.k && worst.Distance < rMin {
			return nil
		}
	}
	return nil
}

// evaluate scores one candidate edge, or its tower nodes in node mode.
func (idx *Index) evaluate(q *query, s *searcher.Searcher, edge int) {
	e := idx.graph.Edge(edge)

	if q.nodes {
		for _, n := range [2]int{e.Base, e.Adj} {
			if !s.Nodes.Visit(n) {
				continue
			}
			if q.nodeFilter != nil && !q.nodeFilter(n) {
				continue
			}
			p := idx.graph.Point(n)
			idx.offer(q, s, n, idx.calc.Dist(q.lat, q.lon, p.Lat, p.Lon))
		}
		return
	}

	if q.edgeFilter != nil && !q.edgeFilter(e) {
		return
	}
	s.Geometry = idx.graph.Geometry(edge, s.Geometry[:0])
	snap := distance.Snap(idx.calc, q.lat, q.lon, s.Geometry)
	idx.offer(q, s, edge, snap.Dist)
}

func (idx *Index) offer(q *query, s *searcher.Searcher, id int, dist float64) {
	if q.radius > 0 && dist > q.radius {
		return
	}
	s.Results.PushItemBounded(searcher.Candidate{ID: id, Distance: dist}, q.k)
}

// rMin returns a lower bound of the distance from (lat, lon) to any point
// outside the square of ring radius r around the home tile (hx, hy).
//
// Like the square's nearest border it is measured along the query's own
// latitude and longitude, so near the poles it may slightly overestimate the
// distance to a corner region.
func (idx *Index) rMin(lat, lon float64, hx, hy uint32, r int) float64 {
	dLat, dLon := idx.codec.TileSize()
	home := idx.codec.TileBounds(hx, hy)
	sq := home.Pad(float64(r)*dLat, float64(r)*dLon)

	var dMinLat, dMinLon float64
	if lat-sq.MinLat < sq.MaxLat-lat {
		dMinLat = idx.calc.Dist(lat, lon, sq.MinLat, lon)
	} else {
		dMinLat = idx.calc.Dist(lat, lon, sq.MaxLat, lon)
	}
	if lon-sq.MinLon < sq.MaxLon-lon {
		dMinLon = idx.calc.Dist(lat, lon, lat, sq.MinLon)
	} else {
		dMinLon = idx.calc.Dist(lat, lon, lat, sq.MaxLon)
	}
	return min(dMinLat, dMinLon)
}
