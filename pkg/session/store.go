package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/redis"
)

type keyValueStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(token string) string
}

// Store tracks live guest session tokens in Redis with a sliding TTL.
// A token disappears either when its cart merges into a user cart or
// when the guest goes idle past the TTL.
type Store struct {
	kv  keyValueStore
	ttl time.Duration
}

// NewStore builds the guest session store.
func NewStore(client *redis.Client, cfg config.SessionConfig) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Store{kv: client, ttl: ttl}, nil
}

// Touch registers the token if new and refreshes its TTL otherwise.
func (s *Store) Touch(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("session token required")
	}
	key := s.kv.SessionKey(token)
	refreshed, err := s.kv.Expire(ctx, key, s.ttl)
	if err != nil {
		return fmt.Errorf("refreshing session ttl: %w", err)
	}
	if refreshed {
		return nil
	}
	if err := s.kv.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), s.ttl); err != nil {
		return fmt.Errorf("registering session: %w", err)
	}
	return nil
}

// Active reports whether the token is known and unexpired.
func (s *Store) Active(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	_, err := s.kv.Get(ctx, s.kv.SessionKey(token))
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("looking up session: %w", err)
	}
	return true, nil
}

// Forget drops the token. Called after a guest cart merges on login.
func (s *Store) Forget(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.kv.Del(ctx, s.kv.SessionKey(token)); err != nil {
		return fmt.Errorf("forgetting session: %w", err)
	}
	return nil
}
