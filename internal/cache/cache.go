package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rsilvagit/tutorfind/internal/model"
)

// Cache provides Redis-backed caching for fetched listings.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}
	return client, nil
}

// New returns a Cache over an existing client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get retrieves cached listings for the given source/location combination.
// A miss, or an entry that no longer decodes, reports false.
func (c *Cache) Get(ctx context.Context, source, location string) ([]model.Listing, bool, error) {
	data, err := c.client.Get(ctx, buildKey(source, location)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}

	var listings []model.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, false, nil
	}
	return listings, true, nil
}

// Set stores listings with the configured TTL.
func (c *Cache) Set(ctx context.Context, source, location string, listings []model.Listing) error {
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("cache: marshal error: %w", err)
	}
	if err := c.client.Set(ctx, buildKey(source, location), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

func buildKey(source, location string) string {
	raw := strings.ToLower(source + ":" + location)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("tutorfind:listings:%s:%x", strings.ToLower(source), hash[:8])
}
