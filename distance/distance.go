// Package distance provides the geodesic distance and snapping primitives used by
// the location index.
package distance

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6_371_000.0

// MetersPerDegree is the length of one degree of latitude in meters.
const MetersPerDegree = EarthRadius * math.Pi / 180

// Calc computes distances in meters between coordinates in degrees.
//
// Implementations must be pure and deterministic: the pruning bound of the
// region search and the snapping code rely on a single consistent Calc.
type Calc interface {
	// Dist returns the distance in meters between two points.
	Dist(fromLat, fromLon, toLat, toLon float64) float64

	// NormedDist returns a value that orders like Dist but is cheaper to
	// compute. Convert it back with DenormalizeDist.
	NormedDist(fromLat, fromLon, toLat, toLon float64) float64

	// DenormalizeDist converts a NormedDist result into meters.
	DenormalizeDist(normed float64) float64

	// CrossingPoint projects r onto the infinite line through a and b.
	CrossingPoint(rLat, rLon, aLat, aLon, bLat, bLon float64) (lat, lon float64)

	// ValidEdgeDistance reports whether the projection of r falls strictly
	// inside the segment a-b.
	ValidEdgeDistance(rLat, rLon, aLat, aLon, bLat, bLon float64) bool
}

// PlaneProjection approximates the earth locally as a plane, scaling
// longitudes by the cosine of the mean latitude. It is the default Calc.
type PlaneProjection struct{}

// Dist implements Calc.
func (PlaneProjection) Dist(fromLat, fromLon, toLat, toLon float64) float64 {
	dLat := toRadians(toLat - fromLat)
	dLon := toRadians(toLon - fromLon)
	left := math.Cos(toRadians((fromLat+toLat)/2)) * dLon
	return EarthRadius * math.Sqrt(dLat*dLat+left*left)
}

// NormedDist implements Calc.
func (PlaneProjection) NormedDist(fromLat, fromLon, toLat, toLon float64) float64 {
	dLat := toRadians(toLat - fromLat)
	left := math.Cos(toRadians((fromLat+toLat)/2)) * toRadians(toLon-fromLon)
	return dLat*dLat + left*left
}

// DenormalizeDist implements Calc.
func (PlaneProjection) DenormalizeDist(normed float64) float64 {
	return EarthRadius * math.Sqrt(normed)
}

// CrossingPoint implements Calc.
func (PlaneProjection) CrossingPoint(rLat, rLon, aLat, aLon, bLat, bLon float64) (float64, float64) {
	return crossingPoint(rLat, rLon, aLat, aLon, bLat, bLon)
}

// ValidEdgeDistance implements Calc.
func (PlaneProjection) ValidEdgeDistance(rLat, rLon, aLat, aLon, bLat, bLon float64) bool {
	return validEdgeDistance(rLat, rLon, aLat, aLon, bLat, bLon)
}

// Haversine computes great-circle distances on a sphere of EarthRadius.
// Projections onto segments use the same local planar approximation as
// PlaneProjection.
type Haversine struct{}

// Dist implements Calc.
func (h Haversine) Dist(fromLat, fromLon, toLat, toLon float64) float64 {
	return h.DenormalizeDist(h.NormedDist(fromLat, fromLon, toLat, toLon))
}

// NormedDist implements Calc. It is the central angle in radians.
func (Haversine) NormedDist(fromLat, fromLon, toLat, toLon float64) float64 {
	from := s2.LatLngFromDegrees(fromLat, fromLon)
	return from.Distance(s2.LatLngFromDegrees(toLat, toLon)).Radians()
}

// DenormalizeDist implements Calc.
func (Haversine) DenormalizeDist(normed float64) float64 {
	return EarthRadius * normed
}

// CrossingPoint implements Calc.
func (Haversine) CrossingPoint(rLat, rLon, aLat, aLon, bLat, bLon float64) (float64, float64) {
	return crossingPoint(rLat, rLon, aLat, aLon, bLat, bLon)
}

// ValidEdgeDistance implements Calc.
func (Haversine) ValidEdgeDistance(rLat, rLon, aLat, aLon, bLat, bLon float64) bool {
	return validEdgeDistance(rLat, rLon, aLat, aLon, bLat, bLon)
}

func crossingPoint(rLat, rLon, aLat, aLon, bLat, bLon float64) (float64, float64) {
	shrink := math.Cos(toRadians((aLat + bLat) / 2))
	aLonS := aLon * shrink
	bLonS := bLon * shrink
	rLonS := rLon * shrink

	dLat := bLat - aLat
	dLon := bLonS - aLonS
	if dLat == 0 {
		return aLat, rLonS / shrink
	}
	if dLon == 0 {
		return rLat, aLonS / shrink
	}

	norm := dLon*dLon + dLat*dLat
	factor := ((rLonS-aLonS)*dLon + (rLat-aLat)*dLat) / norm
	return aLat + factor*dLat, (aLonS + factor*dLon) / shrink
}

func validEdgeDistance(rLat, rLon, aLat, aLon, bLat, bLon float64) bool {
	shrink := math.Cos(toRadians((aLat + bLat) / 2))
	aLonS := aLon * shrink
	bLonS := bLon * shrink
	rLonS := rLon * shrink

	arX, arY := rLonS-aLonS, rLat-aLat
	abX, abY := bLonS-aLonS, bLat-aLat
	rbX, rbY := bLonS-rLonS, bLat-rLat

	return arX*abX+arY*abY > 0 && rbX*abX+rbY*abY > 0
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Metric selects a Calc implementation.
type Metric int

const (
	MetricPlane Metric = iota
	MetricHaversine
)

func (m Metric) String() string {
	switch m {
	case MetricPlane:
		return "Plane"
	case MetricHaversine:
		return "Haversine"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Provider returns the Calc for the given metric.
func Provider(m Metric) (Calc, error) {
	switch m {
	case MetricPlane:
		return PlaneProjection{}, nil
	case MetricHaversine:
		return Haversine{}, nil
	default:
		return nil, fmt.Errorf("unsupported distance metric: %v", m)
	}
}
