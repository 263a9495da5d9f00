package skinmatch

import (
	"github.com/dermalens/skinmatch/blobstore"
	"github.com/dermalens/skinmatch/index"
	"github.com/dermalens/skinmatch/snapshot"
)

// Aliases for the error types callers are expected to match against, so the
// facade can be used without importing the subpackages.

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = index.ErrInvalidK

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch = index.ErrDimensionMismatch

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension = index.ErrInvalidDimension

// ErrCorruptSnapshot is returned by Restore when the persisted blob cannot
// be parsed.
var ErrCorruptSnapshot = snapshot.ErrCorrupt

// ErrSnapshotNotFound is returned by Restore when no blob exists under the
// requested name.
var ErrSnapshotNotFound = blobstore.ErrNotFound
