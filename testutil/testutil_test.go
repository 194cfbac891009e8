package testutil

import (
	"testing"

	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var box = graph.BBox{MinLat: 49.94, MaxLat: 49.96, MinLon: 11.56, MaxLon: 11.59}

func TestRoadGraph(t *testing.T) {
	rng := NewRNG(4711)

	g := rng.RoadGraph(box, 50, 120, 3)

	assert.Equal(t, 50, g.NumNodes())
	assert.Equal(t, 120, g.NumEdges())

	var geom []graph.Point
	for e := range g.NumEdges() {
		geom = g.Geometry(e, geom[:0])
		require.GreaterOrEqual(t, len(geom), 2)
		assert.LessOrEqual(t, len(geom), 5)
		for _, p := range geom {
			assert.True(t, box.Contains(p), "edge %d point %v", e, p)
		}
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	p1 := rng.Points(box, 3)

	rng.Reset()
	p2 := rng.Points(box, 3)

	assert.Equal(t, p1, p2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestBruteForceEdges(t *testing.T) {
	g := graph.NewMemory()
	g.SetNode(0, 0, 0)
	g.SetNode(1, 0, 1)
	g.SetNode(2, 1, 0)
	g.MustAddEdge(0, 1)
	g.MustAddEdge(0, 2)
	g.MustAddEdge(1, 2)

	calc := distance.PlaneProjection{}

	got := BruteForceEdges(g, calc, 0.1, 0.5, nil, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
	assert.Less(t, got[0].Distance, got[1].Distance)

	got = BruteForceEdges(g, calc, 0.1, 0.5, func(e graph.EdgeView) bool { return e.ID != 0 }, 5)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
}

func TestBruteForceNodes(t *testing.T) {
	g := graph.NewMemory()
	g.SetNode(0, 0, 0)
	g.SetNode(1, 0, 1)
	g.SetNode(2, 0.01, 0.01) // isolated
	g.MustAddEdge(0, 1)

	got := BruteForceNodes(g, distance.PlaneProjection{}, 0, 0.02, nil, 3)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
}

func TestComputeRecall(t *testing.T) {
	truth := []SearchResult{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	assert.InDelta(t, 1.0, ComputeRecall(truth, truth), 1e-9)
	assert.InDelta(t, 0.5, ComputeRecall(truth, []SearchResult{{ID: 1}, {ID: 9}}), 1e-9)
	assert.InDelta(t, 0.0, ComputeRecall(truth, nil), 1e-9)
	assert.InDelta(t, 1.0, ComputeRecall(nil, nil), 1e-9)
}
