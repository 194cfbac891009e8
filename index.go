package locindex

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/hupe1980/locindex/blobstore"
	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/internal/compact"
	"github.com/hupe1980/locindex/internal/mmap"
	"github.com/hupe1980/locindex/internal/spatialkey"
)

// Index answers closest-edge and closest-node queries over an immutable graph.
//
// An Index is safe for concurrent queries. Close must not be called while
// queries are running.
type Index struct {
	graph   graph.Graph
	store   *compact.Store
	codec   spatialkey.Codec
	calc    distance.Calc
	rings   int
	bounds  tileRect
	skipped int

	metrics MetricsCollector
	logger  *Logger

	closer io.Closer
	closed atomic.Bool
}

// Stats describes an index.
type Stats struct {
	// Depth is the number of tree levels below the root.
	Depth int
	// Resolution is the requested tile edge length in meters.
	Resolution float64
	// TileLat and TileLon are the tile edge lengths in degrees.
	TileLat, TileLon float64
	// BBox bounds all indexed geometry.
	BBox graph.BBox
	// Edges is the number of edges of the graph the index was built for.
	Edges int
	// SkippedEdges is the number of edges Build left out. Zero for loaded
	// indexes.
	SkippedEdges int
	// Bytes is the size of the serialized region.
	Bytes int64
	// EntryCountsByLayer is the number of non-empty references per layer.
	EntryCountsByLayer []int
	// LayerFanOut is the number of reference slots per record per layer.
	LayerFanOut []int
}

func newIndex(g graph.Graph, store *compact.Store, o options) (*Index, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	h := store.Header()
	codec, err := spatialkey.New(h.Depth)
	if err != nil {
		return nil, translateError(err)
	}
	return &Index{
		graph:   g,
		store:   store,
		codec:   codec,
		calc:    o.calc,
		rings:   o.maxRegionSearch,
		bounds:  boundsRect(codec, h.BBox),
		metrics: o.metricsCollector,
		logger:  o.logger,
	}, nil
}

// Load opens serialized index data produced by Save, WriteTo or
// MarshalBinary. Uncompressed data is used in place and must not be modified
// while the index is in use.
//
// g must be the graph the index was built for.
func Load(data []byte, g graph.Graph, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	return load(context.Background(), data, g, nil, o)
}

// OpenFile memory-maps an index file written by Save on a local store or by
// WriteTo. Uncompressed files are used without copying; Close unmaps them.
func OpenFile(path string, g graph.Graph, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	o.logger = o.logger.WithSource(path)
	ctx := context.Background()

	m, err := mapFile(path)
	if err != nil {
		return nil, loadFailed(ctx, o, err)
	}

	idx, err := load(ctx, m.Bytes(), g, m, o)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return idx, nil
}

// mapFile maps path for random access.
func mapFile(path string) (*mmap.Mapping, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	if err := m.Advise(mmap.AccessRandom); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// loadFailed reports a load that failed before any index data was read.
func loadFailed(ctx context.Context, o options, err error) error {
	o.metricsCollector.RecordLoad(0, 0, err)
	o.logger.LogLoad(ctx, 0, CompressionNone, err)
	return err
}

// Open loads the index stored under name. Blobs from stores supporting
// memory mapping are used without copying when uncompressed.
func Open(ctx context.Context, store blobstore.BlobStore, name string, g graph.Graph, optFns ...Option) (*Index, error) {
	o := applyOptions(optFns)
	o.logger = o.logger.WithSource(name)

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, loadFailed(ctx, o, err)
	}
	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		_ = blob.Close()
		return nil, loadFailed(ctx, o, err)
	}

	var closer io.Closer = blob
	if _, ok := blob.(blobstore.Mappable); !ok {
		// data is a private copy
		_ = blob.Close()
		closer = nil
	}

	idx, err := load(ctx, data, g, closer, o)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	return idx, nil
}

// load takes ownership of closer on success. Compressed data is decoded into
// a private buffer, so closer is released right away in that case.
func load(ctx context.Context, data []byte, g graph.Graph, closer io.Closer, o options) (idx *Index, err error) {
	start := time.Now()
	size := int64(len(data))
	compression := CompressionNone
	defer func() {
		o.metricsCollector.RecordLoad(size, time.Since(start), err)
		o.logger.LogLoad(ctx, size, compression, err)
	}()

	raw, compression, err := compact.Unframe(data)
	if err != nil {
		return nil, translateError(err)
	}
	store, err := compact.Open(raw)
	if err != nil {
		return nil, translateError(err)
	}
	if n := store.Header().EdgeCount; n != g.NumEdges() {
		return nil, fmt.Errorf("%w: index has %d edges, graph has %d", ErrGraphMismatch, n, g.NumEdges())
	}

	idx, err = newIndex(g, store, o)
	if err != nil {
		return nil, err
	}
	if compression != CompressionNone && closer != nil {
		_ = closer.Close()
		closer = nil
	}
	idx.closer = closer
	return idx, nil
}

// Save writes the index to store under name.
func (idx *Index) Save(ctx context.Context, store blobstore.BlobStore, name string, optFns ...SaveOption) (err error) {
	start := time.Now()
	o := saveOptions{compression: CompressionNone}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	var size int64
	defer func() {
		idx.metrics.RecordSave(size, time.Since(start), err)
		idx.logger.LogSave(ctx, name, size, o.compression, err)
	}()

	if idx.closed.Load() {
		return ErrClosed
	}

	data := idx.store.Bytes()
	if o.compression != CompressionNone {
		data, err = compact.Frame(data, o.compression)
		if err != nil {
			return err
		}
	}
	size = int64(len(data))
	return store.Put(ctx, name, data)
}

// WriteTo writes the uncompressed index region to w.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	if idx.closed.Load() {
		return 0, ErrClosed
	}
	return idx.store.WriteTo(w)
}

// MarshalBinary returns a copy of the uncompressed index region.
func (idx *Index) MarshalBinary() ([]byte, error) {
	if idx.closed.Load() {
		return nil, ErrClosed
	}
	return idx.store.MarshalBinary()
}

// Close releases the memory mapping or blob backing the index. It is
// idempotent.
func (idx *Index) Close() error {
	if idx == nil || idx.closed.Swap(true) {
		return nil
	}
	if idx.closer != nil {
		return idx.closer.Close()
	}
	return nil
}

// Capacity returns the size of the index region in bytes.
func (idx *Index) Capacity() int64 { return idx.store.Capacity() }

// EntryCountsByLayer returns the number of non-empty references per layer.
// Layer 0 is the direct lookup table, every following layer one tree level.
func (idx *Index) EntryCountsByLayer() []int { return idx.store.EntryCountsByLayer() }

// LayerFanOut returns the number of reference slots per record for every
// layer, e.g. [64 4 4 ...].
func (idx *Index) LayerFanOut() []int { return idx.store.LayerFanOut() }

// Stats returns a description of the index.
func (idx *Index) Stats() Stats {
	h := idx.store.Header()
	dLat, dLon := idx.codec.TileSize()
	return Stats{
		Depth:              h.Depth,
		Resolution:         h.Resolution,
		TileLat:            dLat,
		TileLon:            dLon,
		BBox:               h.BBox,
		Edges:              h.EdgeCount,
		SkippedEdges:       idx.skipped,
		Bytes:              idx.store.Capacity(),
		EntryCountsByLayer: idx.store.EntryCountsByLayer(),
		LayerFanOut:        idx.store.LayerFanOut(),
	}
}
