// Package minio stores serialized location indexes in MinIO or any other
// S3-compatible server reachable through minio-go (Ceph, Garage, SeaweedFS).
//
// Indexes are written with a single PutObject and read back either whole,
// when an index is opened, or by byte range through Blob.ReadAt, which is
// enough to inspect the header of a large index without downloading it.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	if err != nil {
//	    return err
//	}
//
//	store := minioblob.NewStore(client, "maps", "indexes/")
//	if err := idx.Save(ctx, store, "berlin.lidx", locindex.WithCompression(locindex.CompressionZstd)); err != nil {
//	    return err
//	}
//	idx, err = locindex.Open(ctx, store, "berlin.lidx", g)
//
// Object keys are rootPrefix + name. Missing objects map to
// blobstore.ErrNotFound.
package minio
