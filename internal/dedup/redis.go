package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// announcedKey is the Redis set holding announced submission ids.
const announcedKey = "scorestr:announced"

// RedisSet is the Redis-backed announced set. Unlike the memory engine it
// survives restarts; instead of a count cap the whole set expires after the
// configured TTL, which refreshes on every write.
type RedisSet struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSet connects to Redis and verifies the connection.
func NewRedisSet(url string, ttlSeconds int) (*RedisSet, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	return &RedisSet{client: client, ttl: ttl}, nil
}

// MarkIfNew relies on SADD's return value: 1 means this caller added the id,
// 0 means it was already present. The add is atomic on the server, which
// covers concurrent delivery across processes too.
func (s *RedisSet) MarkIfNew(ctx context.Context, id string) (bool, error) {
	added, err := s.client.SAdd(ctx, announcedKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark announced: %w", err)
	}
	s.client.Expire(ctx, announcedKey, s.ttl)
	return added == 1, nil
}

// Contains reports membership without marking.
func (s *RedisSet) Contains(ctx context.Context, id string) (bool, error) {
	member, err := s.client.SIsMember(ctx, announcedKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check announced: %w", err)
	}
	return member, nil
}

// Mark marks id unconditionally.
func (s *RedisSet) Mark(ctx context.Context, id string) error {
	if err := s.client.SAdd(ctx, announcedKey, id).Err(); err != nil {
		return fmt.Errorf("failed to mark announced: %w", err)
	}
	s.client.Expire(ctx, announcedKey, s.ttl)
	return nil
}

// Len returns the set cardinality.
func (s *RedisSet) Len(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, announcedKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count announced: %w", err)
	}
	return int(n), nil
}

func (s *RedisSet) Close() error {
	return s.client.Close()
}
