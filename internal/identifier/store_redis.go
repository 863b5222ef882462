package identifier

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSequenceStore backs counters with Redis INCRBY, which is atomic per
// key, so multiple service instances can allocate against the same day
// without coordination. An over-limit increment is rolled back with DECRBY;
// concurrent over-allocations both fail, both roll back, and the counter
// settles at the last successful allocation.
type RedisSequenceStore struct {
	client *redis.Client
}

// NewRedisSequenceStore wraps a connected client.
func NewRedisSequenceStore(client *redis.Client) *RedisSequenceStore {
	return &RedisSequenceStore{client: client}
}

func (s *RedisSequenceStore) key(k Key) string {
	return fmt.Sprintf("assetledger:seq:%s:%s", k.Prefix, k.DateStamp)
}

func (s *RedisSequenceStore) NextRange(ctx context.Context, key Key, count, max int) (int, error) {
	if count < 1 {
		return 0, fmt.Errorf("count must be positive, got %d", count)
	}
	redisKey := s.key(key)

	end, err := s.client.IncrBy(ctx, redisKey, int64(count)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr sequence %s: %w", redisKey, err)
	}
	if end > int64(max) {
		if _, derr := s.client.DecrBy(ctx, redisKey, int64(count)).Result(); derr != nil {
			return 0, fmt.Errorf("roll back over-limit sequence %s: %w", redisKey, derr)
		}
		return 0, fmt.Errorf("%s-%s would reach %d, max %d: %w",
			key.Prefix, key.DateStamp, end, max, ErrExhausted)
	}
	return int(end) - count + 1, nil
}
