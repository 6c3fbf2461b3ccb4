package cursor

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/partner-reports/internal/model"
)

// DefaultKeyPrefix namespaces cursor keys in a shared Redis.
const DefaultKeyPrefix = "progress:"

// RedisStore keeps cursors as JSON strings in Redis. Keys never expire.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a RedisStore. An empty prefix selects DefaultKeyPrefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(appID, partnerID string) string {
	return s.prefix + model.CursorKey(appID, partnerID)
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, appID, partnerID string) (model.CursorState, bool, error) {
	data, err := s.client.Get(ctx, s.key(appID, partnerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load cursor: %w", err)
	}

	state, err := decodeState(data)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, appID, partnerID string, state model.CursorState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(appID, partnerID), string(data), 0).Err(); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}
