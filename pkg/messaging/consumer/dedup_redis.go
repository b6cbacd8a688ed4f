package consumer

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisDeduplicator struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisDeduplicator stores keys as "<prefix><key>" with SET NX and a TTL.
func NewRedisDeduplicator(client redis.Cmdable, prefix string, ttl time.Duration) Deduplicator {
	return &redisDeduplicator{client: client, prefix: prefix, ttl: ttl}
}

func (d *redisDeduplicator) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *redisDeduplicator) Mark(ctx context.Context, key string) error {
	return d.client.SetNX(ctx, d.prefix+key, 1, d.ttl).Err()
}
