package store

import (
	"context"
	"errors"
	"time"

	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one session under namespace-prefixed keys, so several
// agents can share a Redis database.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisStore(cfg config.RedisConfig, namespace string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.New("failed to connect to Redis: " + err.Error())
	}

	return &RedisStore{client: client, namespace: namespace}, nil
}

func (rs *RedisStore) key(k Key) string {
	if rs.namespace == "" {
		return string(k)
	}
	return rs.namespace + ":" + string(k)
}

func (rs *RedisStore) Get(ctx context.Context, key Key) (string, error) {
	val, err := rs.client.Get(ctx, rs.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (rs *RedisStore) Set(ctx context.Context, key Key, value string) error {
	return rs.client.Set(ctx, rs.key(key), value, 0).Err()
}

func (rs *RedisStore) Delete(ctx context.Context, key Key) error {
	return rs.client.Del(ctx, rs.key(key)).Err()
}

// Clear deletes every key with a single DEL, which Redis applies atomically.
func (rs *RedisStore) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(Keys))
	for _, k := range Keys {
		keys = append(keys, rs.key(k))
	}
	return rs.client.Del(ctx, keys...).Err()
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
