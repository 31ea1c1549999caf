// Package redisstore provides a Redis-backed state store for pending
// payments, for servers that need state to survive restarts or be shared
// across processes.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	paymcp "github.com/paymcp/paymcp-go"
)

const keyPrefix = "paymcp:"

// Store keeps pending payment state in Redis as JSON values with a TTL.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a Store on an existing Redis client. A zero ttl uses the
// default state TTL.
func New(client redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = paymcp.DefaultStateTTL
	}
	return &Store{client: client, ttl: ttl}
}

// NewFromURL creates a Store from a Redis connection URL.
func NewFromURL(url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return New(redis.NewClient(opts), ttl), nil
}

func (s *Store) Put(ctx context.Context, key string, value map[string]interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store state: %w", err)
	}
	return nil
}

// Get returns the stored value, or nil when the key is absent or expired.
func (s *Store) Get(ctx context.Context, key string) (map[string]interface{}, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var value map[string]interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return value, nil
}

// Consume removes the key and returns its value in one GETDEL round trip,
// so concurrent consumers for the same key see at most one value.
func (s *Store) Consume(ctx context.Context, key string) (map[string]interface{}, error) {
	data, err := s.client.GetDel(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume state: %w", err)
	}

	var value map[string]interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

var _ paymcp.StateStore = (*Store)(nil)
