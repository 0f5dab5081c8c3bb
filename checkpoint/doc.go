// Package checkpoint persists preconditioner setups.
//
// Building a setup is the expensive part of a solve: the
// partition-of-unity scaling takes a round of neighbor exchanges and
// the deflation basis costs a generalized eigenvalue solve per
// subdomain. Both depend only on the decomposition and the assembled
// matrices, so a run that is restarted on the same decomposition can
// skip the eigensolves entirely by reloading them.
//
// A Snapshot carries the scaling diagonal and the deflation basis
// for one subdomain. Save and Load move snapshots through a Store:
//
//	store, _ := checkpoint.NewLocalStore("/scratch/snapshots")
//
//	err := checkpoint.Save(ctx, store, "setup/rank-3", snap)
//	...
//	snap, err := checkpoint.Load(ctx, store, "setup/rank-3")
//
// # File Format
//
// Snapshots are single files:
//
//	FileHeader | codec name | metadata | scaling block | basis block | CRC32
//
// The header pins magic, version, and compression. Metadata is
// encoded with a pluggable codec whose name is recorded in the file,
// so the reader picks the right one without configuration. Payload
// blocks are LZ4 or ZSTD compressed (or stored verbatim when
// compression does not pay). The trailing CRC32 covers the whole
// file; Load rejects corrupt snapshots before trusting any field.
//
// # Stores
//
// LocalStore writes atomically into a directory tree and serves
// reads from memory mappings. MemoryStore backs tests. Object store
// backends live in the s3 and minio subpackages.
package checkpoint
