package locindex

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/internal/searcher"
)

// QueryResult is the outcome of a closest-element query.
//
// A query that found nothing returns a QueryResult whose IsValid reports
// false. That is a normal outcome, not an error.
type QueryResult struct {
	// Query is the queried coordinate.
	Query graph.Point
	// Snapped is the point of the closest element nearest to Query.
	Snapped graph.Point
	// Distance is the distance in meters between Query and Snapped.
	Distance float64
	// ClosestNode is the tower node nearest to the query on the closest
	// edge, or the closest node itself in node searches.
	ClosestNode int
	// ClosestEdge is the closest edge. Its ID is -1 in node searches.
	ClosestEdge graph.EdgeView
	// WayIndex is the index of the geometry point at or before Snapped.
	WayIndex int
	// Position tells whether Snapped is a tower node, a pillar point or lies
	// on a segment.
	Position distance.Position

	valid bool
}

func notFound(lat, lon float64) QueryResult {
	return QueryResult{
		Query:       graph.Point{Lat: lat, Lon: lon},
		Distance:    math.Inf(1),
		ClosestNode: -1,
		ClosestEdge: graph.EdgeView{ID: -1, Base: -1, Adj: -1},
		WayIndex:    -1,
	}
}

// IsValid reports whether the query found an element.
func (r QueryResult) IsValid() bool { return r.valid }

func (r QueryResult) String() string {
	if !r.valid {
		return fmt.Sprintf("not found: %v", r.Query)
	}
	return fmt.Sprintf("node %d, edge %d, %s at %v (%.3fm)", r.ClosestNode, r.ClosestEdge.ID, r.Position, r.Snapped, r.Distance)
}

// FindClosest returns the edge closest to (lat, lon) accepted by filter.
// A nil filter accepts every edge.
func (idx *Index) FindClosest(lat, lon float64, filter graph.EdgeFilter) (QueryResult, error) {
	return idx.Search(lat, lon).EdgeFilter(filter).First(context.Background())
}

// FindClosestNode returns the tower node closest to (lat, lon) accepted by
// filter. A nil filter accepts every node.
func (idx *Index) FindClosestNode(lat, lon float64, filter graph.NodeFilter) (QueryResult, error) {
	return idx.Search(lat, lon).Nodes().NodeFilter(filter).First(context.Background())
}

// FindNClosest returns up to k edges closest to (lat, lon) accepted by
// filter, closest first. Equal distances are ordered by edge id.
func (idx *Index) FindNClosest(lat, lon float64, filter graph.EdgeFilter, k int) ([]QueryResult, error) {
	return idx.Search(lat, lon).EdgeFilter(filter).K(k).Execute(context.Background())
}

// Search creates a new fluent search builder for the given query point.
//
// Example:
//
//	results, err := idx.Search(lat, lon).
//	    K(5).
//	    Radius(25).
//	    EdgeFilter(graph.FlagFilter(carAccess)).
//	    Execute(ctx)
func (idx *Index) Search(lat, lon float64) *SearchBuilder {
	return &SearchBuilder{
		idx:   idx,
		lat:   lat,
		lon:   lon,
		k:     1,
		rings: idx.rings,
	}
}

// SearchBuilder is a fluent builder for constructing search queries.
type SearchBuilder struct {
	idx      *Index
	lat, lon float64
	k        int
	radius   float64
	rings    int
	nodes    bool

	edgeFilter graph.EdgeFilter
	nodeFilter graph.NodeFilter
}

// K sets the maximum number of results.
func (sb *SearchBuilder) K(k int) *SearchBuilder {
	sb.k = k
	return sb
}

// Radius limits results to elements within meters of the query point and
// stops the search once no closer element can exist. Zero means unbounded.
func (sb *SearchBuilder) Radius(meters float64) *SearchBuilder {
	sb.radius = meters
	return sb
}

// MaxRegionSearch overrides the number of tile rings searched at most.
func (sb *SearchBuilder) MaxRegionSearch(rings int) *SearchBuilder {
	sb.rings = rings
	return sb
}

// Nodes switches to tower node search.
func (sb *SearchBuilder) Nodes() *SearchBuilder {
	sb.nodes = true
	return sb
}

// EdgeFilter restricts an edge search to accepted edges.
func (sb *SearchBuilder) EdgeFilter(fn graph.EdgeFilter) *SearchBuilder {
	sb.edgeFilter = fn
	return sb
}

// NodeFilter restricts a node search to accepted nodes.
func (sb *SearchBuilder) NodeFilter(fn graph.NodeFilter) *SearchBuilder {
	sb.nodeFilter = fn
	return sb
}

func (sb *SearchBuilder) query() (*query, error) {
	switch {
	case sb.k < 1:
		return nil, ErrInvalidK
	case sb.nodes && sb.edgeFilter != nil:
		return nil, fmt.Errorf("%w: node search with an edge filter", ErrInvalidFilterCombination)
	case !sb.nodes && sb.nodeFilter != nil:
		return nil, fmt.Errorf("%w: edge search with a node filter", ErrInvalidFilterCombination)
	case math.IsNaN(sb.radius) || sb.radius < 0:
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidOption, sb.radius)
	case sb.rings < 1:
		return nil, fmt.Errorf("%w: max region search %d", ErrInvalidOption, sb.rings)
	}
	return &query{
		lat:        sb.lat,
		lon:        sb.lon,
		k:          sb.k,
		radius:     sb.radius,
		rings:      sb.rings,
		nodes:      sb.nodes,
		edgeFilter: sb.edgeFilter,
		nodeFilter: sb.nodeFilter,
	}, nil
}

// Execute runs the search and returns the results, closest first.
// An empty slice means nothing was found.
func (sb *SearchBuilder) Execute(ctx context.Context) ([]QueryResult, error) {
	idx := sb.idx
	start := time.Now()

	q, err := sb.query()
	if err == nil && idx.closed.Load() {
		err = ErrClosed
	}
	if err != nil {
		idx.metrics.RecordSearch(sb.k, 0, time.Since(start), err)
		idx.logger.LogSearch(ctx, sb.k, 0, 0, err)
		return nil, err
	}

	s := searcher.Get()
	defer searcher.Put(s)

	if err := idx.search(ctx, q, s); err != nil {
		idx.metrics.RecordSearch(q.k, s.Tiles, time.Since(start), err)
		idx.logger.LogSearch(ctx, q.k, 0, s.Tiles, err)
		return nil, err
	}

	candidates := s.Results.AppendSorted(make([]searcher.Candidate, 0, s.Results.Len()))
	results := make([]QueryResult, len(candidates))
	for i, c := range candidates {
		results[i] = idx.result(q, s, c)
	}

	idx.metrics.RecordSearch(q.k, s.Tiles, time.Since(start), nil)
	idx.logger.LogSearch(ctx, q.k, len(results), s.Tiles, nil)
	return results, nil
}

// First returns only the closest result. If nothing was found the result's
// IsValid reports false and the error is nil.
func (sb *SearchBuilder) First(ctx context.Context) (QueryResult, error) {
	sb.k = 1
	results, err := sb.Execute(ctx)
	if err != nil {
		return notFound(sb.lat, sb.lon), err
	}
	if len(results) == 0 {
		return notFound(sb.lat, sb.lon), nil
	}
	return results[0], nil
}

// result expands a candidate into a QueryResult.
func (idx *Index) result(q *query, s *searcher.Searcher, c searcher.Candidate) QueryResult {
	r := QueryResult{
		Query:    graph.Point{Lat: q.lat, Lon: q.lon},
		Distance: c.Distance,
		valid:    true,
	}

	if q.nodes {
		r.Snapped = idx.graph.Point(c.ID)
		r.ClosestNode = c.ID
		r.ClosestEdge = graph.EdgeView{ID: -1, Base: -1, Adj: -1}
		r.Position = distance.PositionTower
		return r
	}

	e := idx.graph.Edge(c.ID)
	s.Geometry = idx.graph.Geometry(c.ID, s.Geometry[:0])
	snap := distance.Snap(idx.calc, q.lat, q.lon, s.Geometry)

	r.Snapped = snap.Point
	r.ClosestEdge = e
	r.WayIndex = snap.WayIndex
	r.Position = snap.Position

	switch {
	case snap.Position == distance.PositionTower && snap.WayIndex == 0:
		r.ClosestNode = e.Base
	case snap.Position == distance.PositionTower:
		r.ClosestNode = e.Adj
	default:
		base, adj := idx.graph.Point(e.Base), idx.graph.Point(e.Adj)
		if idx.calc.Dist(q.lat, q.lon, adj.Lat, adj.Lon) < idx.calc.Dist(q.lat, q.lon, base.Lat, base.Lon) {
			r.ClosestNode = e.Adj
		} else {
			r.ClosestNode = e.Base
		}
	}
	return r
}
