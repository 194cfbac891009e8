package compact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/internal/arena"
	"github.com/hupe1980/locindex/internal/hash"
	"github.com/hupe1980/locindex/internal/spatialkey"
	"github.com/hupe1980/locindex/internal/tree"
)

const (
	// Magic identifies an uncompressed index region ("LIDX").
	Magic = 0x4C494458
	// Version is the current layout version.
	Version = 1
	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 80
	// MaxDirectLevels is the number of top tree levels flattened into the
	// direct table.
	MaxDirectLevels = 3

	headerWords = HeaderSize / arena.WordSize
)

var (
	// ErrCorrupt is returned when a region fails validation.
	ErrCorrupt = errors.New("corrupt index data")
	// ErrTreeReleased is returned when serializing a tree that was already
	// serialized once.
	ErrTreeReleased = errors.New("tree already released")
)

// Header carries the metadata persisted with an index.
type Header struct {
	Depth      int
	Resolution float64
	BBox       graph.BBox
	EdgeCount  int
}

// DirectLevels returns the number of levels held in the direct table.
func (h Header) DirectLevels() int { return min(h.Depth, MaxDirectLevels) }

// Store is an immutable, validated index region. All methods are safe for
// concurrent use.
type Store struct {
	data   []byte
	header Header
	direct int // direct levels
	layers []int
}

// Write serializes t into a new region and releases the tree.
//
// Records are laid out in preorder, so every child reference is larger than
// the reference of its parent.
func Write(t *tree.Tree, h Header) (*Store, error) {
	if t.Released() {
		return nil, ErrTreeReleased
	}
	if h.Depth != t.Depth() {
		return nil, fmt.Errorf("header depth %d does not match tree depth %d", h.Depth, t.Depth())
	}
	if h.EdgeCount < 0 || h.EdgeCount > math.MaxInt32 {
		return nil, fmt.Errorf("edge count %d not representable", h.EdgeCount)
	}

	w := writer{
		tree:   t,
		arena:  arena.NewFlat(headerWords, HeaderSize+16*t.Len()),
		depth:  t.Depth(),
		direct: h.DirectLevels(),
	}
	table, err := w.arena.Alloc(1 << (2 * w.direct))
	if err != nil {
		return nil, err
	}
	w.table = table
	if err := w.descend(t.Root(), 0, 0); err != nil {
		return nil, err
	}

	buf := w.arena.Freeze()
	putHeader(buf, h)
	t.Release()

	return Open(buf)
}

type writer struct {
	tree   *tree.Tree
	arena  *arena.FlatArena
	depth  int
	direct int
	table  uint32
}

// descend walks the top levels and writes one direct table slot per node at
// the last direct level.
func (w *writer) descend(n int32, level int, prefix uint32) error {
	if level == w.direct {
		ref, err := w.write(n, level)
		if err != nil {
			return err
		}
		w.arena.PutInt32(w.table+prefix, ref)
		return nil
	}
	for slot, child := range w.tree.Children(n) {
		if child == tree.Null {
			continue
		}
		if err := w.descend(child, level+1, prefix<<2|uint32(slot)); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) write(n int32, level int) (int32, error) {
	if level == w.depth {
		entries := w.tree.Entries(n)
		if entries == nil || entries.IsEmpty() {
			return 0, nil
		}
		if entries.GetCardinality() == 1 {
			return -int32(entries.Minimum()) - 1, nil
		}
		count := int(entries.GetCardinality())
		off, err := w.arena.Alloc(1 + count)
		if err != nil {
			return 0, err
		}
		w.arena.PutInt32(off, int32(count))
		i := off + 1
		it := entries.Iterator()
		for it.HasNext() {
			w.arena.PutInt32(i, int32(it.Next()))
			i++
		}
		return int32(off), nil
	}

	off, err := w.arena.Alloc(4)
	if err != nil {
		return 0, err
	}
	for slot, child := range w.tree.Children(n) {
		if child == tree.Null {
			continue
		}
		ref, err := w.write(child, level+1)
		if err != nil {
			return 0, err
		}
		w.arena.PutInt32(off+uint32(slot), ref)
	}
	return int32(off), nil
}

func putHeader(buf []byte, h Header) {
	le := binary.LittleEndian
	le.PutUint32(buf[0:], Magic)
	le.PutUint32(buf[4:], Version)
	le.PutUint32(buf[8:], uint32(h.Depth))
	le.PutUint32(buf[12:], uint32(h.DirectLevels()))
	le.PutUint64(buf[16:], math.Float64bits(h.Resolution))
	le.PutUint64(buf[24:], math.Float64bits(h.BBox.MinLat))
	le.PutUint64(buf[32:], math.Float64bits(h.BBox.MaxLat))
	le.PutUint64(buf[40:], math.Float64bits(h.BBox.MinLon))
	le.PutUint64(buf[48:], math.Float64bits(h.BBox.MaxLon))
	le.PutUint64(buf[56:], uint64(h.EdgeCount))
	le.PutUint64(buf[64:], uint64(len(buf)))
	le.PutUint32(buf[72:], hash.CRC32C(buf[HeaderSize:]))
	le.PutUint32(buf[76:], 0)
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

// Open validates data and returns a Store reading from it. data is not
// copied and must not be modified while the Store is in use.
func Open(data []byte) (*Store, error) {
	if len(data) < HeaderSize {
		return nil, corrupt("region of %d bytes is shorter than the header", len(data))
	}
	if len(data)%arena.WordSize != 0 {
		return nil, corrupt("region length %d is not word aligned", len(data))
	}

	le := binary.LittleEndian
	if m := le.Uint32(data[0:]); m != Magic {
		return nil, corrupt("invalid magic %#x", m)
	}
	if v := le.Uint32(data[4:]); v != Version {
		return nil, corrupt("unsupported version %d", v)
	}
	if n := le.Uint64(data[64:]); n != uint64(len(data)) {
		return nil, corrupt("header records %d bytes, region has %d", n, len(data))
	}
	if sum := hash.CRC32C(data[HeaderSize:]); sum != le.Uint32(data[72:]) {
		return nil, corrupt("checksum mismatch")
	}

	depth := le.Uint32(data[8:])
	if depth < 1 || depth > spatialkey.MaxDepth {
		return nil, corrupt("invalid depth %d", depth)
	}
	edges := le.Uint64(data[56:])
	if edges > math.MaxInt32 {
		return nil, corrupt("invalid edge count %d", edges)
	}

	h := Header{
		Depth:      int(depth),
		Resolution: math.Float64frombits(le.Uint64(data[16:])),
		BBox: graph.BBox{
			MinLat: math.Float64frombits(le.Uint64(data[24:])),
			MaxLat: math.Float64frombits(le.Uint64(data[32:])),
			MinLon: math.Float64frombits(le.Uint64(data[40:])),
			MaxLon: math.Float64frombits(le.Uint64(data[48:])),
		},
		EdgeCount: int(edges),
	}
	if dl := le.Uint32(data[12:]); int(dl) != h.DirectLevels() {
		return nil, corrupt("direct levels %d, want %d", dl, h.DirectLevels())
	}

	s := &Store{
		data:   data,
		header: h,
		direct: h.DirectLevels(),
		layers: make([]int, h.Depth-h.DirectLevels()+1),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) words() int { return len(s.data) / arena.WordSize }

func (s *Store) word(off int) int32 {
	return int32(binary.LittleEndian.Uint32(s.data[off*arena.WordSize:]))
}

func (s *Store) tableSize() int { return 1 << (2 * s.direct) }

func (s *Store) validate() error {
	end := headerWords + s.tableSize()
	if end > s.words() {
		return corrupt("direct table exceeds region")
	}
	v := validator{store: s, budget: s.words()}
	for i := range s.tableSize() {
		if err := v.ref(s.word(headerWords+i), end-1, s.direct); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	store  *Store
	budget int
}

// ref checks the reference r to a node at level, stored by a record at
// offset parent.
func (v *validator) ref(r int32, parent, level int) error {
	s := v.store
	if r == 0 {
		return nil
	}
	v.budget--
	if v.budget < 0 {
		return corrupt("reference graph visits more records than the region holds")
	}
	s.layers[level-s.direct]++

	if r < 0 {
		if level != s.header.Depth {
			return corrupt("inline entry above leaf level %d", level)
		}
		if id := -int64(r) - 1; id >= int64(s.header.EdgeCount) {
			return corrupt("edge id %d out of range", id)
		}
		return nil
	}

	off := int(r)
	if off <= parent {
		return corrupt("reference %d does not follow its parent %d", off, parent)
	}
	if level == s.header.Depth {
		if off >= s.words() {
			return corrupt("leaf %d exceeds region", off)
		}
		count := int(s.word(off))
		if count < 1 || off+1+count > s.words() {
			return corrupt("leaf %d has invalid count %d", off, count)
		}
		prev := int32(-1)
		for i := range count {
			id := s.word(off + 1 + i)
			if id <= prev || int(id) >= s.header.EdgeCount {
				return corrupt("leaf %d has invalid edge id %d", off, id)
			}
			prev = id
		}
		return nil
	}

	if off+4 > s.words() {
		return corrupt("branch %d exceeds region", off)
	}
	for slot := range 4 {
		if err := v.ref(s.word(off+slot), off, level+1); err != nil {
			return err
		}
	}
	return nil
}

// Header returns the persisted metadata.
func (s *Store) Header() Header { return s.header }

// Lookup calls fn with every edge id stored for key, in ascending order.
func (s *Store) Lookup(key uint64, fn func(edge int)) {
	depth := s.header.Depth
	ref := s.word(headerWords + int(key>>(2*(depth-s.direct))))
	for level := s.direct; ref > 0 && level < depth; level++ {
		ref = s.word(int(ref) + spatialkey.ChildIndex(key, depth, level))
	}
	switch {
	case ref == 0:
	case ref < 0:
		fn(int(-ref - 1))
	default:
		off := int(ref)
		for i := range int(s.word(off)) {
			fn(int(s.word(off + 1 + i)))
		}
	}
}

// Capacity returns the size of the region in bytes.
func (s *Store) Capacity() int64 { return int64(len(s.data)) }

// EntryCountsByLayer returns the number of non-empty references per layer.
// Layer 0 is the direct table; each following layer is one tree level.
func (s *Store) EntryCountsByLayer() []int {
	return append([]int(nil), s.layers...)
}

// LayerFanOut returns the number of reference slots per record for each
// layer, matching EntryCountsByLayer.
func (s *Store) LayerFanOut() []int {
	fanOut := make([]int, len(s.layers))
	fanOut[0] = s.tableSize()
	for i := 1; i < len(fanOut); i++ {
		fanOut[i] = 4
	}
	return fanOut
}

// Bytes returns the underlying region.
func (s *Store) Bytes() []byte { return s.data }

// MarshalBinary returns a copy of the region.
func (s *Store) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), s.data...), nil
}

// WriteTo writes the region to w.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.data)
	return int64(n), err
}
