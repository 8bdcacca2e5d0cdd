package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trocalar/TrocaLar/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache connects to the Redis instance shared by the view counters,
// the plan cache flags and the statistics snapshots (DB 0; sessions and
// OAuth state use their own DBs).
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
		DB:   0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: could not connect to Redis cache: %v", err)
	}
}

// GetClient returns the Redis client, connecting lazily if needed.
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Set stores a value under key with the given expiration.
func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a string value by key.
func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// GetInt retrieves an integer value by key.
func GetInt(key string) (int, error) {
	return GetClient().Get(ctx, key).Int()
}

// Delete removes a key.
func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}
