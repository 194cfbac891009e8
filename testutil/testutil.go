package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/graph"
)

// SearchResult is an edge or node id with its distance in meters.
type SearchResult struct {
	ID       int
	Distance float64
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Point returns a uniformly distributed point inside box.
func (r *RNG) Point(box graph.BBox) graph.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pointLocked(box)
}

func (r *RNG) pointLocked(box graph.BBox) graph.Point {
	return graph.Point{
		Lat: box.MinLat + r.rand.Float64()*(box.MaxLat-box.MinLat),
		Lon: box.MinLon + r.rand.Float64()*(box.MaxLon-box.MinLon),
	}
}

// Points returns n uniformly distributed points inside box.
func (r *RNG) Points(box graph.BBox, n int) []graph.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]graph.Point, n)
	for i := range out {
		out[i] = r.pointLocked(box)
	}
	return out
}

// RoadGraph generates a random graph with towers tower nodes inside box and
// edges edges between them. Every node gets at least one edge when
// edges >= towers-1. Each edge carries up to maxPillars pillar points placed
// near the straight line between its towers, and random flags in [0, 4).
func (r *RNG) RoadGraph(box graph.BBox, towers, edges, maxPillars int) *graph.Memory {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := graph.NewMemory()
	for i := range towers {
		p := r.pointLocked(box)
		g.SetNode(i, p.Lat, p.Lon)
	}
	if towers < 2 {
		return g
	}

	for e := range edges {
		var base, adj int
		if e < towers-1 {
			// Chain first so no tower stays isolated.
			base, adj = e, e+1
		} else {
			base, adj = r.rand.Intn(towers), r.rand.Intn(towers)
		}

		a, b := g.Point(base), g.Point(adj)
		pillars := make([]graph.Point, r.rand.Intn(maxPillars+1))
		for i := range pillars {
			f := float64(i+1) / float64(len(pillars)+1)
			jitter := 0.1 * (r.rand.Float64()*2 - 1)
			pillars[i] = graph.Point{
				Lat: clamp(a.Lat+(b.Lat-a.Lat)*f+jitter*(b.Lon-a.Lon), box.MinLat, box.MaxLat),
				Lon: clamp(a.Lon+(b.Lon-a.Lon)*f-jitter*(b.Lat-a.Lat), box.MinLon, box.MaxLon),
			}
		}

		id := g.MustAddEdge(base, adj, pillars...)
		g.SetFlags(id, uint64(r.rand.Intn(4)))
	}

	return g
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// BruteForceEdges returns the k edges closest to (lat, lon) that pass filter,
// ordered by distance and then id. A nil filter accepts every edge.
func BruteForceEdges(g graph.Graph, calc distance.Calc, lat, lon float64, filter graph.EdgeFilter, k int) []SearchResult {
	var (
		results []SearchResult
		geom    []graph.Point
	)
	for e := range g.NumEdges() {
		if filter != nil && !filter(g.Edge(e)) {
			continue
		}
		geom = g.Geometry(e, geom[:0])
		snap := distance.Snap(calc, lat, lon, geom)
		results = append(results, SearchResult{ID: e, Distance: snap.Dist})
	}
	return topK(results, k)
}

// BruteForceNodes returns the k tower nodes closest to (lat, lon) that pass
// filter. Only nodes with at least one edge are considered.
func BruteForceNodes(g graph.Graph, calc distance.Calc, lat, lon float64, filter graph.NodeFilter, k int) []SearchResult {
	seen := make(map[int]struct{})
	var results []SearchResult
	for e := range g.NumEdges() {
		ev := g.Edge(e)
		for _, n := range [2]int{ev.Base, ev.Adj} {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			if filter != nil && !filter(n) {
				continue
			}
			p := g.Point(n)
			results = append(results, SearchResult{ID: n, Distance: calc.Dist(lat, lon, p.Lat, p.Lon)})
		}
	}
	return topK(results, k)
}

func topK(results []SearchResult, k int) []SearchResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// ComputeRecall computes recall@k by comparing approximate results against ground truth.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[int]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate {
		if _, ok := truthSet[r.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
