// Package tree implements the build-time quadtree of the location index.
//
// The tree lives in an arena of nodes addressed by int32 index. Intermediate
// nodes own four lazily created child slots; leaves (nodes at the codec's
// depth) hold a roaring bitmap of edge ids whose geometry touches the tile.
// Nothing is pre-allocated for empty space.
//
// A Tree is single-writer and short-lived: it is released once it has been
// serialized and must not be used afterwards.
package tree

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/locindex/internal/spatialkey"
)

// Null is the child slot value for "no child". The root occupies index 0
// and is never anyone's child, so 0 is free to mean null.
const Null int32 = 0

type node struct {
	children [4]int32
	entries  *roaring.Bitmap
}

// Tree is an arena-backed quadtree over tile keys.
type Tree struct {
	codec    spatialkey.Codec
	nodes    []node
	layers   []int // nodes created per level below the root
	released bool
}

// New creates an empty tree for keys of the codec's depth.
func New(codec spatialkey.Codec) *Tree {
	return &Tree{
		codec:  codec,
		nodes:  make([]node, 1, 1024),
		layers: make([]int, codec.Depth()),
	}
}

// Codec returns the key codec of the tree.
func (t *Tree) Codec() spatialkey.Codec { return t.codec }

// Depth returns the leaf level.
func (t *Tree) Depth() int { return t.codec.Depth() }

// Insert adds id to the leaf of key, creating the path on demand.
func (t *Tree) Insert(key uint64, id uint32) {
	if t.released {
		panic("tree: insert after release")
	}

	depth := t.codec.Depth()
	n := int32(0)
	for level := range depth {
		slot := spatialkey.ChildIndex(key, depth, level)
		child := t.nodes[n].children[slot]
		if child == Null {
			child = int32(len(t.nodes))
			t.nodes = append(t.nodes, node{})
			t.nodes[n].children[slot] = child
			t.layers[level]++
		}
		n = child
	}

	leaf := &t.nodes[n]
	if leaf.entries == nil {
		leaf.entries = roaring.New()
	}
	leaf.entries.Add(id)
}

// Root returns the index of the root node.
func (t *Tree) Root() int32 { return 0 }

// Children returns the child slots of node n.
func (t *Tree) Children(n int32) [4]int32 {
	return t.nodes[n].children
}

// Entries returns the edge ids of leaf n, or nil for intermediate nodes.
func (t *Tree) Entries(n int32) *roaring.Bitmap {
	return t.nodes[n].entries
}

// EntriesOf returns how many nodes exist at level (0 = children of the root).
func (t *Tree) EntriesOf(level int) int {
	if level < 0 || level >= len(t.layers) {
		return 0
	}
	return t.layers[level]
}

// Len returns the number of nodes in the arena, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Find returns the entries stored for key, or nil.
func (t *Tree) Find(key uint64) *roaring.Bitmap {
	depth := t.codec.Depth()
	n := int32(0)
	for level := range depth {
		n = t.nodes[n].children[spatialkey.ChildIndex(key, depth, level)]
		if n == Null {
			return nil
		}
	}
	return t.nodes[n].entries
}

// Leaves calls fn for every leaf in key order.
func (t *Tree) Leaves(fn func(key uint64, entries *roaring.Bitmap)) {
	t.leaves(0, 0, 0, fn)
}

func (t *Tree) leaves(n int32, level int, prefix uint64, fn func(uint64, *roaring.Bitmap)) {
	if level == t.codec.Depth() {
		fn(prefix, t.nodes[n].entries)
		return
	}
	for slot, child := range t.nodes[n].children {
		if child != Null {
			t.leaves(child, level+1, prefix<<2|uint64(slot), fn)
		}
	}
}

// Release drops the arena. The tree must not be used afterwards.
func (t *Tree) Release() {
	t.nodes = nil
	t.released = true
}

// Released reports whether Release was called.
func (t *Tree) Released() bool { return t.released }
