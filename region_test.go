package locindex

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/internal/searcher"
	"github.com/hupe1980/locindex/internal/spatialkey"
)

func testIndex(t *testing.T, resolution float64) *Index {
	t.Helper()
	g := graph.NewMemory()
	g.SetNode(0, 0.5, -0.5)
	g.SetNode(1, -0.5, -0.5)
	g.SetNode(2, -1, -1)
	g.MustAddEdge(0, 1)
	g.MustAddEdge(1, 2)

	idx, err := Build(context.Background(), g, WithResolution(resolution))
	require.NoError(t, err)
	return idx
}

func TestRMin(t *testing.T) {
	// Depth 10: tiles span 180/1024 deg of latitude and 360/1024 deg of
	// longitude. Both queries fall into the tile lat [0, 0.17578125],
	// lon [-0.3515625, 0].
	idx := testIndex(t, 50000)
	require.Equal(t, 10, idx.codec.Depth())

	tests := []struct {
		name     string
		lat, lon float64
		r        int
		want     float64
	}{
		// The equator is 0.05 deg south.
		{"LatBorder", 0.05, -0.3, 0, 0.05 * distance.MetersPerDegree},
		// One ring out the southern border moves one tile height further.
		{"LatBorderRing1", 0.05, -0.3, 1, (0.05 + 0.17578125) * distance.MetersPerDegree},
		// The western border is 0.0115625 deg of longitude away at lat 0.1.
		{"LonBorder", 0.1, -0.34, 0, 0.0115625 * distance.MetersPerDegree * math.Cos(0.1*math.Pi/180)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hx, hy, err := idx.codec.Tile(tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, [2]uint32{511, 512}, [2]uint32{hx, hy})
			assert.InDelta(t, tt.want, idx.rMin(tt.lat, tt.lon, hx, hy, tt.r), 1e-6)
		})
	}

	// Rounded figures for the three cases.
	assert.InDelta(t, 5559.75, tests[0].want, 0.01)
	assert.InDelta(t, 25105.73, tests[1].want, 0.01)
	assert.InDelta(t, 1285.69, tests[2].want, 0.01)
}

func TestRMinBoundsOutsidePoints(t *testing.T) {
	idx := testIndex(t, 2000)
	calc := distance.PlaneProjection{}
	dLat, dLon := idx.codec.TileSize()
	rng := rand.New(rand.NewSource(17))

	for range 200 {
		lat := rng.Float64()*120 - 60
		lon := rng.Float64()*340 - 170
		hx, hy, err := idx.codec.Tile(lat, lon)
		require.NoError(t, err)

		prev := 0.0
		for r := range 5 {
			rMin := idx.rMin(lat, lon, hx, hy, r)
			assert.GreaterOrEqual(t, rMin, prev, "rMin must grow with the ring")
			prev = rMin

			sq := idx.codec.TileBounds(hx, hy).Pad(float64(r)*dLat, float64(r)*dLon)
			outer := sq.Pad(2*dLat, 2*dLon)
			for range 50 {
				p := graph.Point{
					Lat: outer.MinLat + rng.Float64()*(outer.MaxLat-outer.MinLat),
					Lon: outer.MinLon + rng.Float64()*(outer.MaxLon-outer.MinLon),
				}
				if sq.Contains(p) {
					continue
				}
				d := calc.Dist(lat, lon, p.Lat, p.Lon)
				assert.GreaterOrEqual(t, d, rMin*(1-1e-6), "q=%v,%v r=%d p=%v", lat, lon, r, p)
			}
		}
	}
}

func TestBoundsRect(t *testing.T) {
	c, err := spatialkey.New(4)
	require.NoError(t, err)

	assert.True(t, boundsRect(c, graph.EmptyBBox()).empty())

	// A single point is padded by one tile on every side.
	r := boundsRect(c, graph.BBox{MinLat: 1, MaxLat: 1, MinLon: 1, MaxLon: 1})
	assert.Equal(t, tileRect{x0: 7, y0: 7, x1: 9, y1: 9}, r)
	assert.True(t, r.contains(8, 8))
	assert.False(t, r.contains(10, 8))

	// Padding is clamped to the world.
	r = boundsRect(c, graph.BBox{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180})
	assert.Equal(t, tileRect{x0: 0, y0: 0, x1: 15, y1: 15}, r)
}

func TestSearchStopsEarly(t *testing.T) {
	idx := testIndex(t, 5000)
	q := &query{lat: -0.5, lon: -0.5, k: 1, rings: 1000}

	s := searcher.NewSearcher(16)
	require.NoError(t, idx.search(context.Background(), q, s))
	require.Equal(t, 1, s.Results.Len())

	// An exact hit in the home tile ends the search after ring 0.
	assert.Equal(t, 1, s.Tiles)
}
