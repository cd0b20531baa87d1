package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 200

// globEscaper quotes the characters SCAN MATCH treats as wildcards
var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// RedisOptions controls how the Redis substrate connects
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Root partitions this application's keys from anything else stored in
	// the same Redis database. It is invisible to callers of the Substrate.
	Root string
}

func (o RedisOptions) withDefaults() RedisOptions {
	if o.Addr == "" {
		o.Addr = "localhost:6379"
	}
	if o.DB < 0 {
		o.DB = 0
	}
	if o.Root == "" {
		o.Root = "nextrep:"
	}
	return o
}

// RedisStore implements Substrate on top of Redis
type RedisStore struct {
	client *redis.Client
	root   string
}

// NewRedisStore creates a new Redis-backed substrate
// Returns error if connection fails
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	opts = opts.withDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, root: opts.Root}, nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, root string) *RedisStore {
	if root == "" {
		root = "nextrep:"
	}
	return &RedisStore{client: client, root: root}
}

func (s *RedisStore) GetItem(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.rootKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

// SetItem stores without a Redis TTL; freshness is decided by the cache on read
func (s *RedisStore) SetItem(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, s.rootKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.rootKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// GetAllKeys walks the keyspace with SCAN so large databases are not blocked
func (s *RedisStore) GetAllKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.keyPattern(), scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.root))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	return keys, nil
}

// MultiRemove deletes the keys in a single pipeline round-trip
func (s *RedisStore) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for start := 0; start < len(keys); start += scanBatchSize {
		end := start + scanBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := make([]string, 0, end-start)
		for _, key := range keys[start:end] {
			batch = append(batch, s.rootKey(key))
		}
		pipe.Del(ctx, batch...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// keyPattern matches every key under root, with root taken literally
func (s *RedisStore) keyPattern() string {
	return globEscaper.Replace(s.root) + "*"
}

func (s *RedisStore) rootKey(key string) string {
	return s.root + key
}
