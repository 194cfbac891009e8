// Package locindex provides a spatial index that snaps GPS coordinates to the
// closest edge or tower node of a routing graph.
//
// The index partitions the world into a grid of tiles whose edge length is
// chosen from a resolution in meters. Every edge is rasterized onto the tiles
// its geometry touches and the resulting tile tree is serialized into a
// compact, immutable region that can be memory-mapped straight from disk.
//
// # Quick Start
//
//	g := graph.NewMemory()
//	g.SetNode(0, 52.5200, 13.4050)
//	g.SetNode(1, 52.5210, 13.4070)
//	g.MustAddEdge(0, 1)
//
//	idx, _ := locindex.Build(ctx, g, locindex.WithResolution(300))
//	res, _ := idx.FindClosest(52.5204, 13.4061, nil)
//	if res.IsValid() {
//	    fmt.Println(res.ClosestEdge.ID, res.Snapped, res.Distance)
//	}
//
// # Searching
//
// Searches expand ring by ring around the tile containing the query point and
// stop as soon as no unseen edge can beat the results found so far, or after
// WithMaxRegionSearch rings.
//
//	// Closest edge accepted by a filter
//	res, _ := idx.FindClosest(lat, lon, graph.FlagFilter(carAccess))
//
//	// Closest tower node
//	res, _ := idx.FindClosestNode(lat, lon, nil)
//
//	// Up to 5 edges within 25 meters
//	results, _ := idx.Search(lat, lon).K(5).Radius(25).Execute(ctx)
//
// A query that finds nothing is not an error: FindClosest returns a
// QueryResult whose IsValid reports false and Execute returns an empty slice.
//
// # Persistence
//
// An index only stores edge ids, so it must be loaded together with the graph
// it was built for:
//
//	store := blobstore.NewLocalStore("./data")
//	_ = idx.Save(ctx, store, "berlin.lidx", locindex.WithCompression(locindex.CompressionZstd))
//
//	idx, _ = locindex.Open(ctx, store, "berlin.lidx", g)
//	idx, _ = locindex.OpenFile("./data/berlin.lidx", g) // memory-mapped
//	defer idx.Close()
//
// Remote stores live in blobstore/s3 and blobstore/minio.
//
// # Observability
//
// Build, search, load and save report to a MetricsCollector (see
// WithMetricsCollector and the metrics/prometheus package) and log through
// log/slog (see WithLogger).
//
// # Concurrency
//
// An Index is immutable and safe for concurrent queries. Build rasterizes
// edges on WithWorkers goroutines.
package locindex
