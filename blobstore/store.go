// Package blobstore abstracts where persisted snapshots live: the local
// filesystem, memory (tests), or S3-compatible object storage.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore reads and writes named immutable blobs.
//
// Put must be atomic from the reader's perspective: a concurrent Get sees
// either the previous blob or the complete new one, never a partial write.
type BlobStore interface {
	// Put writes the blob under name, replacing any existing blob.
	Put(ctx context.Context, name string, data io.Reader) error

	// Get opens the named blob for reading. The caller must close the
	// returned reader.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the named blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
}
