package redisdedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/manthysbr/openclaw/internal/core/ports"
)

const DefaultKeyPrefix = "openclaw:seen_cast:"

// Deduplicator remembers cast ids in Redis with a TTL, so memory stays bounded
// and several restarts share one view of what was already seen.
type Deduplicator struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ ports.CastDeduplicator = (*Deduplicator)(nil)

// NewClient builds a client the same way the rate limiter store does.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func New(client redis.Cmdable, prefix string, ttl time.Duration) *Deduplicator {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Deduplicator{client: client, prefix: prefix, ttl: ttl}
}

// MarkSeen sets the key only if it is absent. A zero TTL keeps keys forever.
func (d *Deduplicator) MarkSeen(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(id), time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis dedup error: %w", err)
	}
	return ok, nil
}

// Ping checks the connection at startup.
func (d *Deduplicator) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}
	return nil
}

func (d *Deduplicator) key(id string) string {
	return d.prefix + id
}
