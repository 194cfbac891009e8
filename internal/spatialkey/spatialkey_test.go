package spatialkey

import (
	"math"
	"math/rand"
	"testing"

	"github.com/hupe1980/locindex/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidDepth)
	_, err = New(MaxDepth + 1)
	assert.ErrorIs(t, err, ErrInvalidDepth)

	c, err := New(3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Depth())
	assert.Equal(t, 6, c.Bits())
	assert.Equal(t, uint32(8), c.TilesPerAxis())

	dLat, dLon := c.TileSize()
	assert.Equal(t, 22.5, dLat)
	assert.Equal(t, 45.0, dLon)
}

func TestDepthForResolution(t *testing.T) {
	tests := []struct {
		meters float64
		depth  int
	}{
		{500_000, 7},
		{50_000, 10},
		{500, 17},
		{1, MaxDepth - 5},
		{1e-9, MaxDepth},
		{1e12, 1},
		{0, MaxDepth},
		{-3, MaxDepth},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.depth, DepthForResolution(tt.meters), "meters=%v", tt.meters)
	}
}

func TestEncode(t *testing.T) {
	c, err := New(1)
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
		key      uint64
	}{
		{"SouthWest", -45, -90, 0b00},
		{"SouthEast", -45, 90, 0b01},
		{"NorthWest", 45, -90, 0b10},
		{"NorthEast", 45, 90, 0b11},
		{"Origin", 0, 0, 0b11},
		{"Corner", -90, -180, 0b00},
		{"UpperBorder", 90, 180, 0b11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := c.Encode(tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	for _, p := range [][2]float64{{91, 0}, {-90.5, 0}, {0, 180.1}, {0, -181}, {math.NaN(), 0}, {0, math.NaN()}} {
		_, err := c.Encode(p[0], p[1])
		assert.ErrorIs(t, err, ErrCoordinateOutOfRange)
	}
}

func TestDecode(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	lat, lon := c.Decode(0)
	assert.Equal(t, -67.5, lat)
	assert.Equal(t, -135.0, lon)

	key, err := c.Encode(10, 10)
	require.NoError(t, err)
	lat, lon = c.Decode(key)
	assert.Equal(t, 22.5, lat)
	assert.Equal(t, 45.0, lon)
}

func TestEncodeDecodeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, depth := range []int{1, 7, 17, 24, MaxDepth} {
		c, err := New(depth)
		require.NoError(t, err)
		for range 1000 {
			lat := rng.Float64()*180 - 90
			lon := rng.Float64()*360 - 180

			key, err := c.Encode(lat, lon)
			require.NoError(t, err)
			cLat, cLon := c.Decode(key)
			again, err := c.Encode(cLat, cLon)
			require.NoError(t, err)
			require.Equal(t, key, again, "depth=%d lat=%v lon=%v", depth, lat, lon)
		}
	}
}

func TestInterleave(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 1000 {
		x, y := rng.Uint32()>>1, rng.Uint32()>>1
		key := Interleave(x, y)
		gx, gy := Deinterleave(key)
		require.Equal(t, x, gx)
		require.Equal(t, y, gy)
	}

	assert.Equal(t, uint64(0b10), Interleave(0, 1))
	assert.Equal(t, uint64(0b01), Interleave(1, 0))
	assert.Equal(t, uint64(0b1001), Interleave(0b01, 0b10))
}

func TestTilePath(t *testing.T) {
	c, err := New(3)
	require.NoError(t, err)

	key := Interleave(0b101, 0b011)
	path := c.TilePath(key)
	// level 0: y=0 x=1, level 1: y=1 x=0, level 2: y=1 x=1
	assert.Equal(t, []int{1, 2, 3}, path)

	for level, slot := range path {
		assert.Equal(t, slot, ChildIndex(key, 3, level))
	}
}

func TestTileSubdivision(t *testing.T) {
	// A tile at depth d splits exactly into the four tiles at depth d+1 whose
	// keys share its key as prefix.
	coarse, err := New(5)
	require.NoError(t, err)
	fine, err := New(6)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for range 500 {
		lat := rng.Float64()*180 - 90
		lon := rng.Float64()*360 - 180
		ck, err := coarse.Encode(lat, lon)
		require.NoError(t, err)
		fk, err := fine.Encode(lat, lon)
		require.NoError(t, err)
		require.Equal(t, ck, fk>>2)
	}
}

func TestFractionAndClamp(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	fx, fy := c.Fraction(0, 0)
	assert.Equal(t, 2.0, fx)
	assert.Equal(t, 2.0, fy)

	assert.Equal(t, uint32(0), c.Clamp(-4))
	assert.Equal(t, uint32(3), c.Clamp(9))
	assert.Equal(t, uint32(2), c.Clamp(2))
}

func TestTileBounds(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	b := c.TileBounds(1, 2)
	assert.Equal(t, 0.0, b.MinLat)
	assert.Equal(t, 45.0, b.MaxLat)
	assert.Equal(t, -90.0, b.MinLon)
	assert.Equal(t, 0.0, b.MaxLon)

	x, y := c.XY(c.Key(1, 2))
	assert.Equal(t, uint32(1), x)
	assert.Equal(t, uint32(2), y)

	lat, lon := c.TileCenter(1, 2)
	assert.True(t, b.Contains(graph.Point{Lat: lat, Lon: lon}))
}
