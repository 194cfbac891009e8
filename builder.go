package locindex

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/locindex/graph"
	"github.com/hupe1980/locindex/internal/compact"
	"github.com/hupe1980/locindex/internal/spatialkey"
	"github.com/hupe1980/locindex/internal/tree"
)

// minChunk is the smallest number of edges handed to one rasterization task.
const minChunk = 4096

// chunk holds the rasterized tiles of a contiguous edge range.
type chunk struct {
	keys    []uint64
	edges   []uint32
	bbox    graph.BBox
	skipped []*CoordinateOutOfRangeError
}

// Build indexes every edge of g.
//
// Edges are rasterized concurrently (see WithWorkers) and merged into the
// construction tree by a single writer, which is then serialized into the
// immutable index region. Build fails with a *CoordinateOutOfRangeError on
// the first edge with an invalid coordinate unless WithSkipInvalidEdges is
// set.
func Build(ctx context.Context, g graph.Graph, optFns ...Option) (idx *Index, err error) {
	start := time.Now()
	o := applyOptions(optFns)

	numEdges := g.NumEdges()
	var (
		skipped int
		depth   int
	)
	defer func() {
		o.metricsCollector.RecordBuild(numEdges, skipped, time.Since(start), err)
		o.logger.LogBuild(ctx, numEdges, skipped, depth, time.Since(start), err)
	}()

	if err := o.validate(); err != nil {
		return nil, err
	}
	if numEdges > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d edges exceed the supported maximum", ErrInvalidOption, numEdges)
	}

	depth = spatialkey.DepthForResolution(o.resolution)
	codec, err := spatialkey.New(depth)
	if err != nil {
		return nil, translateError(err)
	}

	chunks, err := rasterize(ctx, g, codec, o)
	if err != nil {
		return nil, err
	}

	t := tree.New(codec)
	bbox := graph.EmptyBBox()
	for _, c := range chunks {
		for i, key := range c.keys {
			t.Insert(key, c.edges[i])
		}
		if c.bbox.IsValid() {
			bbox.Extend(graph.Point{Lat: c.bbox.MinLat, Lon: c.bbox.MinLon})
			bbox.Extend(graph.Point{Lat: c.bbox.MaxLat, Lon: c.bbox.MaxLon})
		}
		for _, e := range c.skipped {
			o.logger.LogSkippedEdge(ctx, e.Edge, e)
		}
		skipped += len(c.skipped)
	}

	store, err := compact.Write(t, compact.Header{
		Depth:      depth,
		Resolution: o.resolution,
		BBox:       bbox,
		EdgeCount:  numEdges,
	})
	if err != nil {
		return nil, translateError(err)
	}

	idx, err = newIndex(g, store, o)
	if err != nil {
		return nil, err
	}
	idx.skipped = skipped
	return idx, nil
}

// rasterize splits the edge range into chunks and rasterizes them on up to
// o.workers goroutines. Results are returned in edge order.
func rasterize(ctx context.Context, g graph.Graph, codec spatialkey.Codec, o options) ([]chunk, error) {
	numEdges := g.NumEdges()
	size := max(minChunk, (numEdges+o.workers-1)/o.workers)
	chunks := make([]chunk, (numEdges+size-1)/size)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(o.workers)

	for i := range chunks {
		lo := i * size
		hi := min(lo+size, numEdges)
		c := &chunks[i]

		eg.Go(func() error {
			c.bbox = graph.EmptyBBox()
			var geom []graph.Point

			for e := lo; e < hi; e++ {
				if (e-lo)%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}

				geom = g.Geometry(e, geom[:0])
				if bad, ok := invalidPoint(geom); ok {
					err := &CoordinateOutOfRangeError{Edge: e, Point: bad}
					if !o.skipInvalidEdges {
						return err
					}
					c.skipped = append(c.skipped, err)
					continue
				}

				for _, p := range geom {
					c.bbox.Extend(p)
				}
				tree.Rasterize(codec, geom, func(key uint64) {
					c.keys = append(c.keys, key)
					c.edges = append(c.edges, uint32(e))
				})
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func invalidPoint(geom []graph.Point) (graph.Point, bool) {
	for _, p := range geom {
		if !spatialkey.Valid(p.Lat, p.Lon) {
			return p, true
		}
	}
	return graph.Point{}, false
}
