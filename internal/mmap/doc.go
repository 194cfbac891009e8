// Package mmap maps serialized index files into memory read-only.
//
//	m, err := mmap.Open("berlin.lidx")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes() // zero-copy view, valid until Close
//	_ = m.Advise(mmap.AccessRandom)
//
// Unix systems use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// A Mapping is safe for concurrent readers. Close is idempotent; callers
// must not touch the bytes after Close returns.
package mmap
