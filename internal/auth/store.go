package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/af-corp/chatbot-gateway/internal/store"
	"github.com/af-corp/chatbot-gateway/internal/types"
)

const redisKeyPrefix = "chatbot:client:"

// ClientStore resolves an API key hash to an active client. A nil client
// with a nil error means the key is unknown or inactive.
type ClientStore interface {
	Lookup(ctx context.Context, keyHash string) (*types.Client, error)
}

// ClientLookup is the persistence behind the cache.
type ClientLookup interface {
	LookupClient(ctx context.Context, keyHash string) (*types.Client, error)
	DeactivateClient(ctx context.Context, keyHash string) error
}

// CachedClientStore implements ClientStore with a Redis cache in front of
// the database.
type CachedClientStore struct {
	db    ClientLookup
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedClientStore wraps db. rdb may be nil to disable caching.
func NewCachedClientStore(db ClientLookup, rdb *redis.Client, ttl time.Duration) *CachedClientStore {
	return &CachedClientStore{db: db, redis: rdb, ttl: ttl}
}

func (s *CachedClientStore) Lookup(ctx context.Context, keyHash string) (*types.Client, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, redisKeyPrefix+keyHash).Bytes()
		if err == nil {
			var client types.Client
			if err := json.Unmarshal(cached, &client); err == nil {
				client.APIKeyHash = keyHash
				return &client, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			slog.Warn("client cache read failed", "error", err)
		}
	}

	client, err := s.db.LookupClient(ctx, keyHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.redis != nil && s.ttl > 0 {
		if data, err := json.Marshal(client); err == nil {
			if err := s.redis.Set(ctx, redisKeyPrefix+keyHash, data, s.ttl).Err(); err != nil {
				slog.Warn("client cache write failed", "error", err)
			}
		}
	}
	return client, nil
}

// Revoke deactivates the client behind keyHash and drops its cached entry so
// the key stops working before the cache TTL runs out.
func (s *CachedClientStore) Revoke(ctx context.Context, keyHash string) error {
	if err := s.db.DeactivateClient(ctx, keyHash); err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}
	if err := s.Invalidate(ctx, keyHash); err != nil {
		return fmt.Errorf("invalidate cached client: %w", err)
	}
	return nil
}

// Invalidate drops a cached client.
func (s *CachedClientStore) Invalidate(ctx context.Context, keyHash string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, redisKeyPrefix+keyHash).Err()
}
