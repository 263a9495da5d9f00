package skinmatch

import (
	"log/slog"
	"time"

	"github.com/dermalens/skinmatch/blobstore"
	"github.com/dermalens/skinmatch/codec"
	"github.com/dermalens/skinmatch/demographics"
	"github.com/dermalens/skinmatch/rerank"
	"github.com/dermalens/skinmatch/snapshot"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	codec            codec.Codec
	compression      snapshot.Compression
	store            blobstore.BlobStore
	lookup           rerank.Lookup
	lookupTimeout    time.Duration
	lookupConcurrency int
	weights          demographics.Weights
}

// Option configures the engine at construction time.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithCodec configures the codec used for snapshot bodies.
//
// If nil is passed, codec.Default is used. Existing snapshots are
// self-describing and unaffected.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the snapshot body compression scheme.
func WithCompression(c snapshot.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBlobStore configures where snapshots are persisted.
// Defaults to an in-memory store; use blobstore.NewLocalStore or the
// s3/minio stores for durable persistence.
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLookup configures the metadata lookup used to resolve candidate
// demographic profiles. Without a lookup, SearchWithDemographics falls back
// to visual-only ranking.
func WithLookup(lookup rerank.Lookup) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithLookupTimeout bounds each per-candidate metadata fetch.
func WithLookupTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lookupTimeout = d
	}
}

// WithLookupConcurrency bounds the parallel metadata fetches per search.
func WithLookupConcurrency(n int) Option {
	return func(o *options) {
		o.lookupConcurrency = n
	}
}

// WithWeights sets the default blend weights, overridable per call.
func WithWeights(w demographics.Weights) Option {
	return func(o *options) {
		o.weights = w
	}
}
