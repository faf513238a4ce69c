package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

const opTimeout = 2 * time.Second

// StateStore is a Redis implementation of app.StoreProvider.
// Each device gets its own key namespace: play:{deviceID}:{key}.
// Every write refreshes the key's TTL so abandoned devices age out.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

func (s *StateStore) Scope(deviceID string) app.PersistedStore {
	return &scopedStore{client: s.client, ttl: s.ttl, prefix: "play:" + deviceID + ":"}
}

type scopedStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func (s *scopedStore) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if isMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return raw, true, nil
}

func (s *scopedStore) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *scopedStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
