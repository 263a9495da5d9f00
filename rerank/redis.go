package rerank

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/dermalens/skinmatch/codec"
	"github.com/dermalens/skinmatch/demographics"
)

// RedisLookup resolves demographic profiles from Redis. Profiles are stored
// as JSON under "<prefix><id>".
type RedisLookup struct {
	client *redis.Client
	prefix string
	codec  codec.Codec
}

// RedisLookupOptions configures a RedisLookup.
type RedisLookupOptions struct {
	// KeyPrefix is prepended to candidate ids. Defaults to "profile:".
	KeyPrefix string

	// Codec decodes stored profiles. Defaults to codec.Default.
	Codec codec.Codec
}

// NewRedisLookup creates a Lookup backed by the given Redis client.
func NewRedisLookup(client *redis.Client, optFns ...func(o *RedisLookupOptions)) *RedisLookup {
	opts := RedisLookupOptions{
		KeyPrefix: "profile:",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	return &RedisLookup{
		client: client,
		prefix: opts.KeyPrefix,
		codec:  c,
	}
}

// Get implements Lookup. A missing key is "absent", not an error.
func (l *RedisLookup) Get(ctx context.Context, id string) (demographics.Profile, bool, error) {
	data, err := l.client.Get(ctx, l.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return demographics.Profile{}, false, nil
		}
		return demographics.Profile{}, false, fmt.Errorf("redis lookup %q: %w", id, err)
	}

	var p demographics.Profile
	if err := l.codec.Unmarshal(data, &p); err != nil {
		return demographics.Profile{}, false, fmt.Errorf("decode profile %q: %w", id, err)
	}

	return p, !p.IsEmpty(), nil
}

// Set stores the profile for id. Primarily used by ingestion and tests.
func (l *RedisLookup) Set(ctx context.Context, id string, p demographics.Profile) error {
	data, err := l.codec.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %q: %w", id, err)
	}
	return l.client.Set(ctx, l.prefix+id, data, 0).Err()
}
