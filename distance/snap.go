package distance

import (
	"math"

	"github.com/hupe1980/locindex/graph"
)

// Position describes where on an edge's geometry a snap point lies.
type Position uint8

const (
	// PositionTower means the snap point is the base or adjacent tower node.
	PositionTower Position = iota
	// PositionPillar means the snap point is one of the pillar points.
	PositionPillar
	// PositionEdge means the snap point lies strictly between two geometry points.
	PositionEdge
)

func (p Position) String() string {
	switch p {
	case PositionTower:
		return "TOWER"
	case PositionPillar:
		return "PILLAR"
	default:
		return "EDGE"
	}
}

// SnapResult is the closest point on a polyline to a query point.
type SnapResult struct {
	// Dist is the distance in meters between the query and Point.
	Dist float64
	// Point is the snap point.
	Point graph.Point
	// WayIndex is the index of the geometry point at or immediately before
	// the snap point. Splitting the edge after WayIndex inserts the snap point.
	WayIndex int
	Position Position
}

// Snap finds the point of the polyline closest to (lat, lon).
//
// Every vertex is checked by point distance and every segment by its
// perpendicular projection when that projection falls inside the segment;
// otherwise the segment's nearer endpoint already competes as a vertex.
// Ties keep the earliest candidate. An empty polyline yields Dist = +Inf and
// WayIndex = -1.
func Snap(calc Calc, lat, lon float64, polyline []graph.Point) SnapResult {
	best := SnapResult{Dist: math.Inf(1), WayIndex: -1}
	last := len(polyline) - 1

	for i, p := range polyline {
		if d := calc.Dist(lat, lon, p.Lat, p.Lon); d < best.Dist {
			pos := PositionPillar
			if i == 0 || i == last {
				pos = PositionTower
			}
			best = SnapResult{Dist: d, Point: p, WayIndex: i, Position: pos}
		}
		if i == 0 {
			continue
		}

		a := polyline[i-1]
		if SeamHop(a, p) {
			continue
		}
		if !calc.ValidEdgeDistance(lat, lon, a.Lat, a.Lon, p.Lat, p.Lon) {
			continue
		}
		cLat, cLon := calc.CrossingPoint(lat, lon, a.Lat, a.Lon, p.Lat, p.Lon)
		if d := calc.Dist(lat, lon, cLat, cLon); d < best.Dist {
			best = SnapResult{
				Dist:     d,
				Point:    graph.Point{Lat: cLat, Lon: cLon},
				WayIndex: i - 1,
				Position: PositionEdge,
			}
		}
	}

	return best
}

// SeamHop reports whether a-b jumps across the antimeridian between lon +180
// and lon -180. Such segments have no real length; they exist only because
// importers pre-split edges crossing the seam.
func SeamHop(a, b graph.Point) bool {
	return math.Abs(a.Lon) == 180 && a.Lon == -b.Lon
}
