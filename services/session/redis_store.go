package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTTL bounds how long a sign-in state survives without a fresh
// sign-in. After it lapses the next resolve greets again.
const stateTTL = 30 * 24 * time.Hour

// RedisStore implements StateStore on Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ StateStore = (*RedisStore)(nil)

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "session:",
	}
}

func (s *RedisStore) key(uid string) string {
	return s.prefix + uid
}

func (s *RedisStore) Save(ctx context.Context, uid string, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(uid), data, stateTTL).Err(); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func (s *RedisStore) Lookup(ctx context.Context, uid string) (*State, error) {
	data, err := s.client.Get(ctx, s.key(uid)).Result()
	if err == redis.Nil {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session state: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) Revoke(ctx context.Context, uid string) error {
	if err := s.client.Del(ctx, s.key(uid)).Err(); err != nil {
		return fmt.Errorf("revoke session state: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
