// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"bookitgy/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient backs favorites and the cached service charge.
	CacheClient *redis.Client
	// AuthCacheClient backs the fallback token store.
	AuthCacheClient *redis.Client
)

func newRedisClient(db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis db %d unreachable: %w", db, err)
	}
	return client, nil
}

// InitCache connects the generic cache client. Unlike the server, the client core keeps
// running without Redis, so the error is returned instead of being fatal.
func InitCache() error {
	client, err := newRedisClient(config.AppConfig.RedisCacheDB)
	if err != nil {
		return err
	}
	CacheClient = client
	return nil
}

// InitAuthCache connects the client used by the fallback token store.
func InitAuthCache() error {
	client, err := newRedisClient(config.AppConfig.RedisAuthDB)
	if err != nil {
		return err
	}
	AuthCacheClient = client
	return nil
}

// GetCacheClient returns the generic cache client, or nil when Redis is unavailable.
func GetCacheClient() *redis.Client {
	return CacheClient
}

// GetAuthCacheClient returns the Redis client for token storage, or nil when Redis is unavailable.
func GetAuthCacheClient() *redis.Client {
	return AuthCacheClient
}

// CloseCaches closes whichever Redis clients were opened.
func CloseCaches() {
	for _, c := range []*redis.Client{CacheClient, AuthCacheClient} {
		if c != nil {
			_ = c.Close()
		}
	}
}
