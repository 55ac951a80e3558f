package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Cache implements ports.TransitionCache using Redis.
//
// Entries are JSON-encoded TransitionSets. The cache only ever holds
// successfully loaded sets: the engine does not write back degraded loads,
// so a replica with a broken contract cannot poison the others.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration for cached contracts.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached contracts.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	cache := &Cache{
		client: client,
		prefix: "espalier:contract:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *Cache) key(node string) string {
	return c.prefix + node
}

// Get retrieves the cached set for a node. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, node string) (*domain.TransitionSet, bool, error) {
	val, err := c.client.Get(ctx, c.key(node)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get from redis: %w", err)
	}

	var set domain.TransitionSet
	if err := json.Unmarshal([]byte(val), &set); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal transition set: %w", err)
	}

	return &set, true, nil
}

// Put stores the set for a node, honoring the configured TTL.
func (c *Cache) Put(ctx context.Context, node string, set *domain.TransitionSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal transition set: %w", err)
	}

	if err := c.client.Set(ctx, c.key(node), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete evicts the set for a node.
func (c *Cache) Delete(ctx context.Context, node string) error {
	return c.client.Del(ctx, c.key(node)).Err()
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
