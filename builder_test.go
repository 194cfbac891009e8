package locindex_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/locindex"
	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/testutil"
)

func invalidGraph() *graph.Memory {
	g := testGraph()
	g.SetNode(5, 95, 0)
	g.MustAddEdge(4, 5)                                // edge 7
	g.MustAddEdge(3, 4, graph.Point{Lat: 0, Lon: 200}) // edge 8
	return g
}

func TestBuildInvalidCoordinate(t *testing.T) {
	_, err := locindex.Build(context.Background(), invalidGraph(), locindex.WithWorkers(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, locindex.ErrCoordinateOutOfRange)

	var rangeErr *locindex.CoordinateOutOfRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 7, rangeErr.Edge)
	assert.Equal(t, graph.Point{Lat: 95, Lon: 0}, rangeErr.Point)
	assert.Contains(t, err.Error(), "edge 7")
}

func TestBuildSkipInvalidEdges(t *testing.T) {
	var buf bytes.Buffer
	logger := locindex.NewLogger(slog.NewTextHandler(&buf, nil))
	metrics := &locindex.BasicMetricsCollector{}

	idx := build(t, invalidGraph(),
		locindex.WithResolution(500000),
		locindex.WithSkipInvalidEdges(),
		locindex.WithLogger(logger),
		locindex.WithMetricsCollector(metrics),
	)

	st := idx.Stats()
	assert.Equal(t, 2, st.SkippedEdges)
	assert.Equal(t, 9, st.Edges)
	assert.Equal(t, graph.BBox{MinLat: -1, MaxLat: 0.5, MinLon: -1, MaxLon: 1.6}, st.BBox)
	assert.Equal(t, int64(2), metrics.GetStats().BuildSkipped)

	assert.Contains(t, buf.String(), "edge skipped")
	assert.Contains(t, buf.String(), "build completed with skipped edges")

	// Valid edges still work.
	res, err := idx.FindClosest(-0.2, 0.3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ClosestEdge.ID)
}

func TestBuildInvalidOptions(t *testing.T) {
	ctx := context.Background()
	g := testGraph()

	for _, opt := range []locindex.Option{
		locindex.WithResolution(0),
		locindex.WithResolution(-5),
		locindex.WithResolution(math.NaN()),
		locindex.WithResolution(math.Inf(1)),
		locindex.WithMaxRegionSearch(0),
	} {
		_, err := locindex.Build(ctx, g, opt)
		assert.ErrorIs(t, err, locindex.ErrInvalidOption)
	}

	_, err := locindex.Load(nil, g, locindex.WithMaxRegionSearch(-1))
	assert.Error(t, err)
}

func TestBuildResolutionDepth(t *testing.T) {
	g := testGraph()

	tests := []struct {
		resolution float64
		depth      int
	}{
		{500000, 7},
		{50000, 10},
		{500, 17},
		{300, 18},
		{1e9, 1},
	}

	for _, tt := range tests {
		idx := build(t, g, locindex.WithResolution(tt.resolution))
		assert.Equal(t, tt.depth, idx.Stats().Depth, "resolution %v", tt.resolution)
	}
}

func TestBuildWorkersDeterministic(t *testing.T) {
	rng := testutil.NewRNG(11)
	g := rng.RoadGraph(berlin, 3000, 9000, 2)

	single := build(t, g, locindex.WithResolution(1000), locindex.WithWorkers(1))
	parallel := build(t, g, locindex.WithResolution(1000), locindex.WithWorkers(4))

	a, err := single.MarshalBinary()
	require.NoError(t, err)
	b, err := parallel.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locindex.Build(ctx, testGraph())
	assert.ErrorIs(t, err, context.Canceled)
}
