package checkpoint

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a snapshot does not exist in a store.
// It aliases os.ErrNotExist so errors.Is works against either.
var ErrNotFound = os.ErrNotExist

// Store is a named blob space holding encoded snapshots. Local
// directories, in-memory maps, and object stores all implement it.
type Store interface {
	// Open returns a read handle for the named snapshot.
	// The error wraps ErrNotFound when the name does not exist.
	Open(ctx context.Context, name string) (Blob, error)

	// Create starts a new write. The snapshot must not become
	// visible under name until the returned handle is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Delete removes the named snapshot. Deleting a missing name
	// is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read handle on a stored snapshot.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off, following the
	// io.ReaderAt contract.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// Size returns the total size in bytes.
	Size() int64

	io.Closer
}

// Mappable is implemented by blobs whose full contents are already
// addressable in memory, such as memory-mapped files. Readers use it
// to decode without an intermediate copy. The returned bytes are
// read-only and valid until the blob is closed.
type Mappable interface {
	Bytes() ([]byte, error)
}

// WritableBlob is a write handle for a snapshot under construction.
// Close publishes the written bytes atomically; Abort discards them.
// After either, the handle is spent.
type WritableBlob interface {
	io.Writer

	// Sync flushes written bytes to stable storage where the
	// backend supports it.
	Sync() error

	// Close publishes the blob.
	Close() error

	// Abort drops the blob without publishing it.
	Abort() error
}
