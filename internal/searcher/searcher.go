package searcher

import (
	"sync"

	"github.com/hupe1980/locindex/graph"
)

// Searcher is a reusable execution context for one query.
//
// Searcher is NOT thread-safe. It is intended to be owned by a single goroutine
// during a search operation.
type Searcher struct {
	// Edges holds the edges already evaluated.
	Edges *VisitedSet

	// Nodes holds the tower nodes already evaluated in node mode.
	Nodes *VisitedSet

	// Results is a max-heap keeping the k best candidates.
	Results *PriorityQueue

	// Geometry is a reusable polyline buffer.
	Geometry []graph.Point

	// Tiles counts the tiles looked up.
	Tiles int
}

var searcherPool = sync.Pool{
	New: func() any {
		return NewSearcher(1024)
	},
}

// NewSearcher creates a searcher whose visited sets start with room for
// capacity ids.
func NewSearcher(capacity int) *Searcher {
	return &Searcher{
		Edges:    NewVisitedSet(capacity),
		Nodes:    NewVisitedSet(capacity),
		Results:  NewPriorityQueue(true),
		Geometry: make([]graph.Point, 0, 16),
	}
}

// Get returns a Searcher from the pool.
func Get() *Searcher {
	s := searcherPool.Get().(*Searcher)
	s.Reset()
	return s
}

// Put returns a Searcher to the pool.
func Put(s *Searcher) {
	searcherPool.Put(s)
}

// Reset clears the searcher state for reuse.
func (s *Searcher) Reset() {
	s.Edges.Reset()
	s.Nodes.Reset()
	s.Results.Reset()
	s.Geometry = s.Geometry[:0]
	s.Tiles = 0
}
