// Package flat provides an exact brute-force embedding index.
//
// Vectors are unit-normalized on insert, so the squared L2 distance used for
// ranking is 2 - 2*cos(a, b) and ascending distance order is exactly
// descending cosine-similarity order. At the target scale (tens of thousands
// of vectors) an exact scan is fast enough that no approximate structure is
// needed.
package flat

import (
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/dermalens/skinmatch/index"
	"github.com/dermalens/skinmatch/metric"
	"github.com/dermalens/skinmatch/snapshot"
)

// Compile-time check that Flat satisfies the Searcher interface.
var _ index.Searcher = (*Flat)(nil)

// Node represents an indexed vector with its identifier.
// Duplicate IDs are permitted; the index has no dedup or merge semantics.
type Node struct {
	ID     string
	Vector []float32
}

// Options contains configuration options for the flat index.
type Options struct {
	// Logger receives structured warnings for soft failures (degenerate
	// vectors, empty-index searches). If nil, warnings are discarded.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Logger: nil,
}

// Stats describes the current contents of the index.
type Stats struct {
	Dimension  int
	Size       int
	Degenerate int // vectors stored unnormalized because their norm was zero
}

// Flat is an insertion-ordered exact index over unit-normalized vectors.
//
// Writes are rare (batch ingestion) and reads are short brute-force scans,
// so a single coarse read/write lock around the node slice is sufficient.
type Flat struct {
	mu         sync.RWMutex
	dimension  int
	nodes      []Node
	degenerate int
	logger     *slog.Logger
}

// New creates a new flat index with the given fixed dimension.
// The dimension is immutable for the lifetime of the index.
func New(dimension int, optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if dimension <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: dimension}
	}

	return &Flat{
		dimension: dimension,
		logger:    ensureLogger(opts.Logger),
	}, nil
}

func ensureLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// Dimension returns the fixed vector dimension of the index.
func (f *Flat) Dimension() int {
	return f.dimension
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.nodes)
}

// Stats returns a snapshot of the index contents.
func (f *Flat) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return Stats{
		Dimension:  f.dimension,
		Size:       len(f.nodes),
		Degenerate: f.degenerate,
	}
}

// Add validates, unit-normalizes and appends a vector under the given id.
// It returns the insertion row of the new vector.
//
// A wrong-length vector is rejected with *index.ErrDimensionMismatch and the
// index is left unchanged. An all-zero vector has no direction to preserve;
// it is stored unnormalized and a degenerate-vector warning is logged.
func (f *Flat) Add(id string, v []float32) (uint32, error) {
	if len(v) != f.dimension {
		return 0, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(v)}
	}

	normalized, ok := metric.Normalize(v)
	if !ok {
		f.logger.Warn("degenerate vector stored unnormalized", "id", id, "dimension", f.dimension)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !ok {
		f.degenerate++
	}

	row := uint32(len(f.nodes))
	f.nodes = append(f.nodes, Node{ID: id, Vector: normalized})

	return row, nil
}

// AddBatch adds rows under the corresponding ids, skipping rows whose length
// does not match the index dimension. It returns the number of vectors added.
// A single-row batch behaves exactly like a single Add.
func (f *Flat) AddBatch(ids []string, rows [][]float32) (int, error) {
	if len(ids) != len(rows) {
		return 0, &index.ErrDimensionMismatch{Expected: len(ids), Actual: len(rows)}
	}

	added := 0
	for i, row := range rows {
		if _, err := f.Add(ids[i], row); err != nil {
			f.logger.Warn("batch add skipped row", "id", ids[i], "row", i, "error", err)
			continue
		}
		added++
	}

	return added, nil
}

// Search returns the k nearest stored vectors to q, ascending by squared L2
// distance, ties broken by insertion order. If fewer than k vectors are
// stored, all of them are returned.
func (f *Flat) Search(q []float32, k int) ([]index.SearchResult, error) {
	return f.SearchFilter(q, k, nil)
}

// SearchFilter is Search restricted to rows for which filter returns true.
// A nil filter admits every row.
func (f *Flat) SearchFilter(q []float32, k int, filter func(row uint32) bool) ([]index.SearchResult, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	if len(q) != f.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(q)}
	}

	query, ok := metric.Normalize(q)
	if !ok {
		f.logger.Warn("degenerate query vector", "dimension", f.dimension)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.nodes) == 0 {
		f.logger.Warn("search on empty index", "k", k)
		return []index.SearchResult{}, nil
	}

	results := make([]index.SearchResult, 0, len(f.nodes))
	for row, node := range f.nodes {
		if filter != nil && !filter(uint32(row)) {
			continue
		}

		d, err := metric.SquaredL2(query, node.Vector)
		if err != nil {
			return nil, err
		}

		results = append(results, index.SearchResult{ID: node.ID, Distance: d})
	}

	// Stable sort keeps insertion order for equal distances.
	slices.SortStableFunc(results, func(a, b index.SearchResult) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	if k < len(results) {
		results = results[:k]
	}

	return results, nil
}

// Snapshot returns a serializable copy of the index contents.
func (f *Flat) Snapshot() *snapshot.Index {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s := &snapshot.Index{
		Dimension: f.dimension,
		IDs:       make([]string, len(f.nodes)),
		Vectors:   make([][]float32, len(f.nodes)),
	}

	for i, node := range f.nodes {
		s.IDs[i] = node.ID
		s.Vectors[i] = slices.Clone(node.Vector)
	}

	return s
}

// FromSnapshot rebuilds a flat index from a snapshot. Stored vectors were
// normalized before persisting, so they are loaded as-is; every row is
// validated against the snapshot dimension before serving queries.
func FromSnapshot(s *snapshot.Index, optFns ...func(o *Options)) (*Flat, error) {
	f, err := New(s.Dimension, optFns...)
	if err != nil {
		return nil, err
	}

	if len(s.IDs) != len(s.Vectors) {
		return nil, &index.ErrDimensionMismatch{Expected: len(s.IDs), Actual: len(s.Vectors)}
	}

	f.nodes = make([]Node, len(s.IDs))
	for i, v := range s.Vectors {
		if len(v) != s.Dimension {
			return nil, &index.ErrDimensionMismatch{Expected: s.Dimension, Actual: len(v)}
		}
		if metric.Magnitude(v) == 0 {
			f.degenerate++
		}
		f.nodes[i] = Node{ID: s.IDs[i], Vector: slices.Clone(v)}
	}

	return f, nil
}

// WithLogger configures the index logger.
func WithLogger(l *slog.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = l
	}
}
