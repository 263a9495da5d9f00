package skinmatch

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dermalens/skinmatch/blobstore"
	"github.com/dermalens/skinmatch/codec"
	"github.com/dermalens/skinmatch/demographics"
	"github.com/dermalens/skinmatch/index"
	"github.com/dermalens/skinmatch/index/flat"
	"github.com/dermalens/skinmatch/rerank"
	"github.com/dermalens/skinmatch/snapshot"
)

// Engine owns an embedding index, its persistence and the demographic
// re-ranking pipeline. Create one per reference-case collection; independent
// engines never share state.
//
// Add is infrequent (batch ingestion) and Search is frequent and
// latency-sensitive; the engine is safe for concurrent use under that
// single-writer-many-readers pattern.
type Engine struct {
	mu       sync.RWMutex // guards idx swaps on Restore
	idx      *flat.Flat
	attrs    *demographics.AttributeIndex
	reranker *rerank.ReRanker

	dimension   int
	store       blobstore.BlobStore
	codec       codec.Codec
	compression snapshot.Compression
	weights     demographics.Weights
	logger      *Logger
	metrics     MetricsCollector
}

// searcherFunc adapts a closure to index.Searcher so the re-ranker always
// sees the engine's current index, including after a Restore swap.
type searcherFunc func(q []float32, k int) ([]index.SearchResult, error)

func (f searcherFunc) Search(q []float32, k int) ([]index.SearchResult, error) {
	return f(q, k)
}

// New creates an engine for vectors of the given fixed dimension.
func New(dimension int, optFns ...Option) (*Engine, error) {
	opts := options{
		compression:       snapshot.CompressionZstd,
		lookupTimeout:     250 * time.Millisecond,
		lookupConcurrency: 8,
		weights:           demographics.DefaultWeights,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.logger == nil {
		opts.logger = NoopLogger()
	}
	if opts.metricsCollector == nil {
		opts.metricsCollector = NoopMetricsCollector{}
	}
	if opts.codec == nil {
		opts.codec = codec.Default
	}
	if opts.store == nil {
		opts.store = blobstore.NewMemoryStore()
	}

	idx, err := flat.New(dimension, flat.WithLogger(opts.logger.Logger))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		idx:         idx,
		attrs:       demographics.NewAttributeIndex(),
		dimension:   dimension,
		store:       opts.store,
		codec:       opts.codec,
		compression: opts.compression,
		weights:     opts.weights,
		logger:      opts.logger,
		metrics:     opts.metricsCollector,
	}

	e.reranker = rerank.New(
		searcherFunc(func(q []float32, k int) ([]index.SearchResult, error) {
			return e.current().Search(q, k)
		}),
		opts.lookup,
		rerank.WithWeights(opts.weights),
		rerank.WithLookupTimeout(opts.lookupTimeout),
		rerank.WithConcurrency(opts.lookupConcurrency),
		rerank.WithLogger(opts.logger.Logger),
	)

	return e, nil
}

func (e *Engine) current() *flat.Flat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx
}

// Dimension returns the fixed vector dimension of the engine.
func (e *Engine) Dimension() int {
	return e.dimension
}

// Len returns the number of indexed vectors.
func (e *Engine) Len() int {
	return e.current().Len()
}

// Stats returns a snapshot of the index contents.
func (e *Engine) Stats() flat.Stats {
	return e.current().Stats()
}

// Add indexes a vector under the given id, generating a UUID when id is
// empty. It reports whether the vector was accepted: a dimension mismatch is
// logged and counted, the index is left unchanged and Add returns false.
func (e *Engine) Add(ctx context.Context, id string, vector []float32) bool {
	return e.AddWithProfile(ctx, id, vector, demographics.Profile{})
}

// AddWithProfile is Add plus cohort registration: the known attributes of
// profile become searchable via SearchCohort. The profile itself is NOT
// stored here; candidate profiles are resolved through the configured
// lookup at search time.
func (e *Engine) AddWithProfile(ctx context.Context, id string, vector []float32, profile demographics.Profile) bool {
	start := time.Now()

	if id == "" {
		id = uuid.NewString()
	}

	row, err := e.current().Add(id, vector)
	e.metrics.RecordAdd(time.Since(start), err)
	e.logger.LogAdd(ctx, id, len(vector), err)

	if err != nil {
		return false
	}

	e.attrs.Register(row, profile)
	return true
}

// AddBatch indexes rows under the corresponding ids and returns the number
// accepted. Rows that fail validation are skipped, not fatal.
func (e *Engine) AddBatch(ctx context.Context, ids []string, rows [][]float32) int {
	if len(ids) != len(rows) {
		e.logger.WarnContext(ctx, "batch add rejected",
			"ids", len(ids),
			"rows", len(rows),
		)
		return 0
	}

	added := 0
	for i := range rows {
		if e.Add(ctx, ids[i], rows[i]) {
			added++
		}
	}
	return added
}

// Search returns the k visually nearest reference cases, ascending by
// distance. Soft failures (wrong-length query, empty index, invalid k) are
// logged and yield an empty result; Search never fails the caller.
func (e *Engine) Search(ctx context.Context, query []float32, k int) []index.SearchResult {
	start := time.Now()

	results, err := e.current().Search(query, k)
	e.metrics.RecordSearch(k, time.Since(start), err)
	e.logger.LogSearch(ctx, k, len(results), err)

	if err != nil {
		return []index.SearchResult{}
	}
	return results
}

// SearchCohort is Search restricted to reference cases registered (via
// AddWithProfile) with every known attribute of cohort. An empty cohort
// applies no restriction.
func (e *Engine) SearchCohort(ctx context.Context, query []float32, cohort demographics.Profile, k int) []index.SearchResult {
	start := time.Now()

	results, err := e.current().SearchFilter(query, k, e.attrs.Filter(cohort))
	e.metrics.RecordSearch(k, time.Since(start), err)
	e.logger.LogSearch(ctx, k, len(results), err)

	if err != nil {
		return []index.SearchResult{}
	}
	return results
}

// SearchWithDemographics ranks the k best reference cases for the user,
// blending visual distance with demographic similarity under the engine's
// default weights. Results are ascending by blended distance (lower = more
// similar). All degraded conditions yield a well-formed, possibly empty,
// result.
func (e *Engine) SearchWithDemographics(ctx context.Context, query []float32, user demographics.Profile, k int) []index.SearchResult {
	return e.SearchWithDemographicsWeights(ctx, query, user, k, e.weights)
}

// SearchWithDemographicsWeights is SearchWithDemographics with a per-call
// weight override.
func (e *Engine) SearchWithDemographicsWeights(ctx context.Context, query []float32, user demographics.Profile, k int, w demographics.Weights) []index.SearchResult {
	start := time.Now()

	results, err := e.reranker.SearchWithWeights(ctx, query, user, k, w)
	e.metrics.RecordRerank(k, time.Since(start), err)
	e.logger.LogRerank(ctx, k, len(results), err)

	if err != nil {
		return []index.SearchResult{}
	}
	return results
}

// Persist writes the full index to the configured blob store under name.
// The snapshot round-trips every (id, normalized vector) pair plus the
// dimension, so Restore can validate compatibility before serving queries.
func (e *Engine) Persist(ctx context.Context, name string) error {
	start := time.Now()

	snap := e.current().Snapshot()

	var buf bytes.Buffer
	err := snapshot.Write(&buf, snap,
		snapshot.WithCodec(e.codec),
		snapshot.WithCompression(e.compression),
	)
	if err == nil {
		err = e.store.Put(ctx, name, &buf)
	}

	e.metrics.RecordPersist(time.Since(start), err)
	e.logger.LogPersist(ctx, name, len(snap.IDs), err)

	if err != nil {
		return fmt.Errorf("persist %q: %w", name, err)
	}
	return nil
}

// Restore replaces the index contents from the named snapshot.
//
// A missing, corrupt or dimension-incompatible snapshot is reported as an
// error, but the engine remains serviceable: its index is reset to empty
// rather than left in a partial state. Cohort registrations refer to index
// rows and are cleared on every restore; re-register them with
// AddWithProfile-time data if cohort search is in use.
func (e *Engine) Restore(ctx context.Context, name string) error {
	start := time.Now()

	restored, count, err := e.load(ctx, name)
	if err != nil {
		// Serve an empty index rather than partial or stale state.
		restored, _ = flat.New(e.dimension, flat.WithLogger(e.logger.Logger))
	}

	e.mu.Lock()
	e.idx = restored
	e.attrs = demographics.NewAttributeIndex()
	e.mu.Unlock()

	e.metrics.RecordRestore(time.Since(start), err)
	e.logger.LogRestore(ctx, name, count, err)

	if err != nil {
		return fmt.Errorf("restore %q: %w", name, err)
	}
	return nil
}

func (e *Engine) load(ctx context.Context, name string) (*flat.Flat, int, error) {
	rc, err := e.store.Get(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	snap, err := snapshot.Read(rc)
	if err != nil {
		return nil, 0, err
	}

	if snap.Dimension != e.dimension {
		return nil, 0, &index.ErrDimensionMismatch{Expected: e.dimension, Actual: snap.Dimension}
	}

	restored, err := flat.FromSnapshot(snap, flat.WithLogger(e.logger.Logger))
	if err != nil {
		return nil, 0, err
	}

	return restored, len(snap.IDs), nil
}
