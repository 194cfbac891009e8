// Package distance provides geodesic distances and point-to-polyline snapping.
//
// # Metrics
//
//   - MetricPlane: local plane projection (default, fast, sub-meter accurate
//     at road-network scales)
//   - MetricHaversine: great-circle distance
//
// # Usage
//
//	calc := distance.PlaneProjection{}
//	meters := calc.Dist(52.5, 13.4, 52.6, 13.5)
//
//	res := distance.Snap(calc, lat, lon, polyline)
//	fmt.Println(res.Point, res.Dist, res.WayIndex, res.Position)
//
// All functions are pure and never fail; inputs are validated upstream.
package distance
