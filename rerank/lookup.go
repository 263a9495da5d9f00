// Package rerank blends visual similarity with demographic similarity to
// produce the final candidate ranking.
package rerank

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/dermalens/skinmatch/demographics"
)

// Lookup resolves a candidate id to its demographic profile.
//
// The contract distinguishes "absent" from "unavailable": ok=false with a
// nil error means the id has no profile (a normal condition), while a
// non-nil error means the backing store could not answer. Both degrade the
// candidate to a visual-only score, but only errors count toward the
// total-outage fallback.
type Lookup interface {
	Get(ctx context.Context, id string) (demographics.Profile, bool, error)
}

// MapLookup is an in-memory Lookup backed by a map. Useful for tests and
// for small, fully materialized reference sets.
type MapLookup struct {
	mu       sync.RWMutex
	profiles map[string]demographics.Profile
}

// NewMapLookup creates a MapLookup with the given initial profiles.
func NewMapLookup(profiles map[string]demographics.Profile) *MapLookup {
	m := make(map[string]demographics.Profile, len(profiles))
	for id, p := range profiles {
		m[id] = p
	}
	return &MapLookup{profiles: m}
}

// Set stores or replaces the profile for id.
func (l *MapLookup) Set(id string, p demographics.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profiles[id] = p
}

// Get implements Lookup.
func (l *MapLookup) Get(ctx context.Context, id string) (demographics.Profile, bool, error) {
	if err := ctx.Err(); err != nil {
		return demographics.Profile{}, false, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.profiles[id]
	return p, ok, nil
}

// CachedLookup wraps a Lookup with an in-process LRU cache. Both hits and
// confirmed absences are cached; lookup errors are not, so a recovering
// backend is retried on the next request.
type CachedLookup struct {
	next  Lookup
	cache *lru.Cache[string, cachedProfile]
}

type cachedProfile struct {
	profile demographics.Profile
	present bool
}

// NewCachedLookup wraps next with an LRU of the given size.
func NewCachedLookup(next Lookup, size int) (*CachedLookup, error) {
	cache, err := lru.New[string, cachedProfile](size)
	if err != nil {
		return nil, err
	}
	return &CachedLookup{next: next, cache: cache}, nil
}

// Get implements Lookup.
func (l *CachedLookup) Get(ctx context.Context, id string) (demographics.Profile, bool, error) {
	if c, ok := l.cache.Get(id); ok {
		return c.profile, c.present, nil
	}

	p, present, err := l.next.Get(ctx, id)
	if err != nil {
		return demographics.Profile{}, false, err
	}

	l.cache.Add(id, cachedProfile{profile: p, present: present})
	return p, present, nil
}

// BreakerLookup wraps a Lookup with a circuit breaker so a struggling
// metadata store sheds load instead of slowing every search to its timeout.
// While the breaker is open, Get fails fast; the reranker treats that like
// any other lookup failure and keeps serving visual-only results.
type BreakerLookup struct {
	next    Lookup
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings tunes the circuit breaker.
type BreakerSettings struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // rolling window for failure counts
	Timeout      time.Duration // how long the breaker stays open
	FailureRatio float64       // open when this ratio of requests fail
	MinRequests  uint32        // minimum requests before the ratio applies
}

// DefaultBreakerSettings are conservative defaults for a metadata store on
// the query path.
var DefaultBreakerSettings = BreakerSettings{
	MaxRequests:  5,
	Interval:     30 * time.Second,
	Timeout:      15 * time.Second,
	FailureRatio: 0.5,
	MinRequests:  5,
}

// NewBreakerLookup wraps next with a circuit breaker.
func NewBreakerLookup(next Lookup, settings BreakerSettings) *BreakerLookup {
	if settings.MaxRequests == 0 {
		settings.MaxRequests = DefaultBreakerSettings.MaxRequests
	}
	if settings.Interval == 0 {
		settings.Interval = DefaultBreakerSettings.Interval
	}
	if settings.Timeout == 0 {
		settings.Timeout = DefaultBreakerSettings.Timeout
	}
	if settings.FailureRatio == 0 {
		settings.FailureRatio = DefaultBreakerSettings.FailureRatio
	}
	if settings.MinRequests == 0 {
		settings.MinRequests = DefaultBreakerSettings.MinRequests
	}

	return &BreakerLookup{
		next: next,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "metadata-lookup",
			MaxRequests: settings.MaxRequests,
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= settings.MinRequests && ratio >= settings.FailureRatio
			},
		}),
	}
}

// Get implements Lookup.
func (l *BreakerLookup) Get(ctx context.Context, id string) (demographics.Profile, bool, error) {
	res, err := l.breaker.Execute(func() (any, error) {
		p, ok, err := l.next.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedProfile{profile: p, present: ok}, nil
	})
	if err != nil {
		return demographics.Profile{}, false, err
	}

	c := res.(cachedProfile)
	return c.profile, c.present, nil
}

// RateLimitedLookup bounds the request rate against the backing store,
// protecting it from oversampling bursts (every search fans out up to 50
// lookups).
type RateLimitedLookup struct {
	next    Lookup
	limiter *rate.Limiter
}

// NewRateLimitedLookup wraps next with a token-bucket limiter.
func NewRateLimitedLookup(next Lookup, limit rate.Limit, burst int) *RateLimitedLookup {
	return &RateLimitedLookup{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Get implements Lookup. Waiting respects the caller's context deadline, so
// a rate-starved lookup degrades like a timed-out one.
func (l *RateLimitedLookup) Get(ctx context.Context, id string) (demographics.Profile, bool, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return demographics.Profile{}, false, err
	}
	return l.next.Get(ctx, id)
}
