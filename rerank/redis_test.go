package rerank

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermalens/skinmatch/demographics"
)

func setupRedisLookup(t *testing.T) (*miniredis.Miniredis, *RedisLookup) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisLookup(client)
}

func TestRedisLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		_, lookup := setupRedisLookup(t)

		want := demographics.Profile{Ethnicity: "east-asian", SkinType: "oily", AgeGroup: "25-34"}
		require.NoError(t, lookup.Set(ctx, "case-1", want))

		got, ok, err := lookup.Get(ctx, "case-1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("MissingKeyIsAbsent", func(t *testing.T) {
		_, lookup := setupRedisLookup(t)

		_, ok, err := lookup.Get(ctx, "never-stored")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("EmptyProfileIsAbsent", func(t *testing.T) {
		_, lookup := setupRedisLookup(t)
		require.NoError(t, lookup.Set(ctx, "empty", demographics.Profile{}))

		_, ok, err := lookup.Get(ctx, "empty")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CorruptPayloadIsError", func(t *testing.T) {
		mr, lookup := setupRedisLookup(t)
		mr.Set("profile:bad", "{not json")

		_, _, err := lookup.Get(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("ServerDownIsError", func(t *testing.T) {
		mr, lookup := setupRedisLookup(t)
		mr.Close()

		_, _, err := lookup.Get(ctx, "case-1")
		assert.Error(t, err)
	})

	t.Run("KeyPrefix", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)

		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		lookup := NewRedisLookup(client, func(o *RedisLookupOptions) {
			o.KeyPrefix = "ref:"
		})

		require.NoError(t, lookup.Set(ctx, "x", demographics.Profile{SkinType: "dry"}))
		assert.True(t, mr.Exists("ref:x"))
	})
}
