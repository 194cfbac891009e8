package benchmark_test

import (
	"context"
	"testing"

	"github.com/hupe1980/locindex"
	"github.com/hupe1980/locindex/blobstore"
)

// blobstoreWith returns a memory store holding idx saved with c.
func blobstoreWith(b *testing.B, idx *locindex.Index, c locindex.Compression) blobstore.BlobStore {
	b.Helper()
	store := blobstore.NewMemoryStore()
	if err := idx.Save(context.Background(), store, "bench.lidx", locindex.WithCompression(c)); err != nil {
		b.Fatal(err)
	}
	return store
}
