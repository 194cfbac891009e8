// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	idx, err := locindex.Open(ctx, store, "berlin.lidx", g)
//
// # Features
//
//   - CRC32C-checked single-request uploads for small indexes
//   - Multipart uploads for large indexes
//   - Range reads and automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
