package rerank

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dermalens/skinmatch/demographics"
	"github.com/dermalens/skinmatch/index"
)

// maxOversample caps the raw candidate pool requested from the index.
// Oversampling compensates for candidates whose blended score worsens after
// demographic adjustment, so the true top-k are not dropped by a visual-only
// cutoff.
const maxOversample = 50

// Options contains configuration options for the re-ranker.
type Options struct {
	// Weights is the default blend configuration, overridable per call via
	// SearchWithWeights.
	Weights demographics.Weights

	// LookupTimeout bounds each per-candidate metadata fetch. A fetch that
	// exceeds it degrades that candidate to a visual-only score.
	LookupTimeout time.Duration

	// Concurrency bounds the parallel metadata fetches per search.
	Concurrency int

	// Logger receives structured warnings for degraded searches. If nil,
	// warnings are discarded.
	Logger *slog.Logger
}

// DefaultOptions contains the default re-ranker configuration.
var DefaultOptions = Options{
	Weights:       demographics.DefaultWeights,
	LookupTimeout: 250 * time.Millisecond,
	Concurrency:   8,
}

// WithWeights sets the default blend weights.
func WithWeights(w demographics.Weights) func(o *Options) {
	return func(o *Options) {
		o.Weights = w
	}
}

// WithLookupTimeout sets the per-candidate metadata fetch timeout.
func WithLookupTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) {
		o.LookupTimeout = d
	}
}

// WithConcurrency sets the parallel fetch bound.
func WithConcurrency(n int) func(o *Options) {
	return func(o *Options) {
		o.Concurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// ReRanker orchestrates index search, per-candidate metadata fetch, score
// blending and the final re-sort. It holds no per-search state and is safe
// for concurrent use.
type ReRanker struct {
	searcher index.Searcher
	lookup   Lookup
	opts     Options
	logger   *slog.Logger
}

// New creates a ReRanker over the given index. lookup may be nil, in which
// case every candidate scores as visually ranked.
func New(searcher index.Searcher, lookup Lookup, optFns ...func(o *Options)) *ReRanker {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultOptions.LookupTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions.Concurrency
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ReRanker{
		searcher: searcher,
		lookup:   lookup,
		opts:     opts,
		logger:   logger,
	}
}

// Search ranks the top k candidates for the query using the configured
// default weights. Results are ascending by blended distance (lower = more
// similar).
func (r *ReRanker) Search(ctx context.Context, q []float32, user demographics.Profile, k int) ([]index.SearchResult, error) {
	return r.SearchWithWeights(ctx, q, user, k, r.opts.Weights)
}

// SearchWithWeights is Search with a per-call weight override.
//
// Pipeline: oversample min(k*3, 50) candidates from the index; fetch each
// candidate's profile best-effort; blend
//
//	blended = visualWeight*distance - demographicWeight*similarity
//
// so higher demographic similarity strictly decreases blended distance; then
// stable-sort ascending and return the first k. Candidates without metadata
// are kept with similarity 0 — absence degrades, never drops, a result. If
// every lookup fails outright, the raw visual order is returned unchanged
// (fail-open on a degraded dependency).
func (r *ReRanker) SearchWithWeights(ctx context.Context, q []float32, user demographics.Profile, k int, w demographics.Weights) ([]index.SearchResult, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	baseK := k * 3
	if baseK > maxOversample {
		baseK = maxOversample
	}

	visual, err := r.searcher.Search(q, baseK)
	if err != nil {
		return nil, err
	}

	if len(visual) == 0 {
		return []index.SearchResult{}, nil
	}

	if r.lookup == nil || user.IsEmpty() {
		return top(visual, k), nil
	}

	w = w.Normalized()

	sims := make([]float64, len(visual))
	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, candidate := range visual {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, r.opts.LookupTimeout)
			defer cancel()

			p, ok, err := r.lookup.Get(fetchCtx, candidate.ID)
			if err != nil {
				failures.Add(1)
				r.logger.Debug("metadata lookup failed, candidate kept with visual-only score",
					"id", candidate.ID, "error", err)
				return nil
			}
			if !ok {
				return nil
			}

			sims[i] = demographics.Score(user, p, w)
			return nil
		})
	}

	// Workers never return errors; Wait is for completion only.
	_ = g.Wait()

	if int(failures.Load()) == len(visual) {
		r.logger.Warn("metadata lookup unavailable, serving visual-only ranking",
			"candidates", len(visual))
		return top(visual, k), nil
	}

	blended := make([]index.SearchResult, len(visual))
	for i, candidate := range visual {
		blended[i] = index.SearchResult{
			ID:       candidate.ID,
			Distance: float32(w.Visual()*float64(candidate.Distance) - w.Demographic*sims[i]),
		}
	}

	slices.SortStableFunc(blended, func(a, b index.SearchResult) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	return top(blended, k), nil
}

func top(results []index.SearchResult, k int) []index.SearchResult {
	if k < len(results) {
		return results[:k]
	}
	return results
}
