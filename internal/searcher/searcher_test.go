package searcher

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue(t *testing.T) {
	t.Run("MinHeap", func(t *testing.T) {
		pq := NewPriorityQueue(false)
		pq.PushItem(Candidate{ID: 1, Distance: 10})
		pq.PushItem(Candidate{ID: 2, Distance: 5})
		pq.PushItem(Candidate{ID: 3, Distance: 20})

		top, ok := pq.TopItem()
		require.True(t, ok)
		assert.Equal(t, 5.0, top.Distance)

		var order []float64
		for pq.Len() > 0 {
			item, _ := pq.PopItem()
			order = append(order, item.Distance)
		}
		assert.Equal(t, []float64{5, 10, 20}, order)

		_, ok = pq.PopItem()
		assert.False(t, ok)
	})

	t.Run("MaxHeap", func(t *testing.T) {
		pq := NewPriorityQueue(true)
		pq.PushItem(Candidate{ID: 1, Distance: 10})
		pq.PushItem(Candidate{ID: 2, Distance: 5})
		pq.PushItem(Candidate{ID: 3, Distance: 20})

		top, _ := pq.TopItem()
		assert.Equal(t, 20.0, top.Distance)
	})

	t.Run("TieBreakByID", func(t *testing.T) {
		pq := NewPriorityQueue(true)
		for _, id := range []int{4, 1, 3, 2} {
			pq.PushItem(Candidate{ID: id, Distance: 7})
		}
		got := pq.AppendSorted(nil)
		assert.Equal(t, []Candidate{{1, 7}, {2, 7}, {3, 7}, {4, 7}}, got)
	})
}

func TestPushItemBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	all := make([]Candidate, 500)
	for i := range all {
		all[i] = Candidate{ID: i, Distance: float64(rng.Intn(100))}
	}

	pq := NewPriorityQueue(true)
	for _, c := range all {
		pq.PushItemBounded(c, 10)
	}
	require.Equal(t, 10, pq.Len())

	sort.Slice(all, func(i, j int) bool { return worse(all[j], all[i]) })
	assert.Equal(t, all[:10], pq.AppendSorted(nil))
}

func TestPushItemBoundedZero(t *testing.T) {
	pq := NewPriorityQueue(true)
	pq.PushItemBounded(Candidate{ID: 1, Distance: 1}, 0)
	assert.Equal(t, 0, pq.Len())
}

func TestVisitedSet(t *testing.T) {
	v := NewVisitedSet(64)
	ids := []int{0, 1, 63, 64, 100, 1000}

	for _, id := range ids {
		assert.False(t, v.Visited(id))
		assert.True(t, v.Visit(id))
	}
	for _, id := range ids {
		assert.True(t, v.Visited(id))
		assert.False(t, v.Visit(id), "second visit of %d", id)
	}
	assert.False(t, v.Visited(2))
	assert.Equal(t, len(ids), v.Len())

	v.Reset()
	for _, id := range ids {
		assert.False(t, v.Visited(id))
	}
	assert.Equal(t, 0, v.Len())
}

func TestSearcherPool(t *testing.T) {
	s := Get()
	s.Edges.Visit(3)
	s.Results.PushItem(Candidate{ID: 3, Distance: 1})
	s.Tiles = 9
	Put(s)

	s = Get()
	defer Put(s)
	assert.False(t, s.Edges.Visited(3))
	assert.Equal(t, 0, s.Results.Len())
	assert.Equal(t, 0, s.Tiles)
}
