package rerank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dermalens/skinmatch/demographics"
)

// countingLookup counts calls and can be switched into a failing mode.
type countingLookup struct {
	calls int
	fail  bool
	inner Lookup
}

func (l *countingLookup) Get(ctx context.Context, id string) (demographics.Profile, bool, error) {
	l.calls++
	if l.fail {
		return demographics.Profile{}, false, errors.New("backend failure")
	}
	return l.inner.Get(ctx, id)
}

func TestMapLookup(t *testing.T) {
	ctx := context.Background()
	l := NewMapLookup(map[string]demographics.Profile{
		"a": {Ethnicity: "east-asian"},
	})

	t.Run("Present", func(t *testing.T) {
		p, ok, err := l.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "east-asian", p.Ethnicity)
	})

	t.Run("Absent", func(t *testing.T) {
		_, ok, err := l.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set", func(t *testing.T) {
		l.Set("b", demographics.Profile{SkinType: "oily"})
		p, ok, err := l.Get(ctx, "b")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "oily", p.SkinType)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := l.Get(canceled, "a")
		assert.Error(t, err)
	})
}

func TestCachedLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("CachesHits", func(t *testing.T) {
		backend := &countingLookup{inner: NewMapLookup(map[string]demographics.Profile{
			"a": {Ethnicity: "east-asian"},
		})}
		cached, err := NewCachedLookup(backend, 16)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			p, ok, err := cached.Get(ctx, "a")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "east-asian", p.Ethnicity)
		}
		assert.Equal(t, 1, backend.calls)
	})

	t.Run("CachesAbsence", func(t *testing.T) {
		backend := &countingLookup{inner: NewMapLookup(nil)}
		cached, err := NewCachedLookup(backend, 16)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, ok, err := cached.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		}
		assert.Equal(t, 1, backend.calls)
	})

	t.Run("DoesNotCacheErrors", func(t *testing.T) {
		backend := &countingLookup{inner: NewMapLookup(nil), fail: true}
		cached, err := NewCachedLookup(backend, 16)
		require.NoError(t, err)

		_, _, err = cached.Get(ctx, "a")
		require.Error(t, err)

		// The backend recovers; the next call goes through.
		backend.fail = false
		_, _, err = cached.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 2, backend.calls)
	})
}

func TestBreakerLookup(t *testing.T) {
	ctx := context.Background()

	backend := &countingLookup{inner: NewMapLookup(nil), fail: true}
	breaker := NewBreakerLookup(backend, BreakerSettings{
		MinRequests:  3,
		FailureRatio: 0.5,
		Timeout:      time.Minute,
	})

	// Enough failures to trip the breaker.
	for i := 0; i < 5; i++ {
		_, _, err := breaker.Get(ctx, "a")
		require.Error(t, err)
	}

	callsWhenTripped := backend.calls

	// Open breaker fails fast without reaching the backend.
	_, _, err := breaker.Get(ctx, "a")
	require.Error(t, err)
	assert.Equal(t, callsWhenTripped, backend.calls)
}

func TestBreakerLookupPassesThrough(t *testing.T) {
	breaker := NewBreakerLookup(NewMapLookup(map[string]demographics.Profile{
		"a": {SkinType: "dry"},
	}), BreakerSettings{})

	p, ok, err := breaker.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dry", p.SkinType)
}

func TestRateLimitedLookup(t *testing.T) {
	t.Run("AllowsWithinLimit", func(t *testing.T) {
		limited := NewRateLimitedLookup(NewMapLookup(map[string]demographics.Profile{
			"a": {AgeGroup: "25-34"},
		}), rate.Limit(1000), 10)

		p, ok, err := limited.Get(context.Background(), "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "25-34", p.AgeGroup)
	})

	t.Run("DeadlineBeatsStarvation", func(t *testing.T) {
		// Zero burst means the limiter can never admit the request; the
		// caller's deadline turns that into a lookup failure, not a hang.
		limited := NewRateLimitedLookup(NewMapLookup(nil), rate.Limit(0.001), 0)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, _, err := limited.Get(ctx, "a")
		assert.Error(t, err)
	})
}
