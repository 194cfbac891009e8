package graph

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownNode is returned when an edge references a node that was never set.
var ErrUnknownNode = errors.New("graph: unknown node")

type memEdge struct {
	base, adj int
	flags     uint64
	pillars   []Point
}

// Memory is a simple in-memory Graph.
//
// Mutations must finish before the graph is handed to an index builder.
// Reads are safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	nodes []Point
	set   []bool
	edges []memEdge
	bbox  BBox
}

// NewMemory creates an empty in-memory graph.
func NewMemory() *Memory {
	return &Memory{bbox: EmptyBBox()}
}

// SetNode sets the coordinate of node id, growing the node table as needed.
func (m *Memory) SetNode(id int, lat, lon float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id >= len(m.nodes) {
		grow := id + 1 - len(m.nodes)
		m.nodes = append(m.nodes, make([]Point, grow)...)
		m.set = append(m.set, make([]bool, grow)...)
	}
	p := Point{Lat: lat, Lon: lon}
	m.nodes[id] = p
	m.set[id] = true
	m.bbox.Extend(p)
}

// AddEdge adds an edge between two existing nodes and returns its id.
// Pillars are the intermediate geometry points, in order from base to adj.
func (m *Memory) AddEdge(base, adj int, pillars ...Point) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range [2]int{base, adj} {
		if n < 0 || n >= len(m.nodes) || !m.set[n] {
			return -1, fmt.Errorf("%w: %d", ErrUnknownNode, n)
		}
	}
	for _, p := range pillars {
		m.bbox.Extend(p)
	}
	m.edges = append(m.edges, memEdge{
		base:    base,
		adj:     adj,
		pillars: append([]Point(nil), pillars...),
	})
	return len(m.edges) - 1, nil
}

// MustAddEdge is like AddEdge but panics on error. Intended for tests and
// fixtures.
func (m *Memory) MustAddEdge(base, adj int, pillars ...Point) int {
	id, err := m.AddEdge(base, adj, pillars...)
	if err != nil {
		panic(err)
	}
	return id
}

// SetFlags replaces the attribute flags of an edge.
func (m *Memory) SetFlags(edge int, flags uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[edge].flags = flags
}

// NumNodes implements Graph.
func (m *Memory) NumNodes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// NumEdges implements Graph.
func (m *Memory) NumEdges() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.edges)
}

// Point implements Graph.
func (m *Memory) Point(node int) Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nodes[node]
}

// Edge implements Graph.
func (m *Memory) Edge(edge int) EdgeView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.edges[edge]
	return EdgeView{ID: edge, Base: e.base, Adj: e.adj, Flags: e.flags}
}

// Geometry implements Graph.
func (m *Memory) Geometry(edge int, dst []Point) []Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.edges[edge]
	dst = append(dst, m.nodes[e.base])
	dst = append(dst, e.pillars...)
	return append(dst, m.nodes[e.adj])
}

// BBox implements Graph.
func (m *Memory) BBox() BBox {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bbox
}
