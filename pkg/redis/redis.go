package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	blacklistPrefix = "blacklist:"
	cachePrefix     = "cache:"
)

var client *redis.Client

// Init opens the shared Redis connection and pings it.
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return nil
}

func GetClient() *redis.Client {
	return client
}

func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// Store is the token blacklist and JSON cache backed by one Redis client.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func BlacklistKey(token string) string {
	return blacklistPrefix + token
}

func CacheKey(name string) string {
	return cachePrefix + name
}

// BlacklistToken revokes token until expiry.
func (s *Store) BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	if err := s.rdb.Set(ctx, BlacklistKey(token), "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}
	return nil
}

func (s *Store) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	val, err := s.rdb.Get(ctx, BlacklistKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}

// GetJSON decodes the cached value into dest and reports whether it was present.
func (s *Store) GetJSON(ctx context.Context, name string, dest interface{}) (bool, error) {
	raw, err := s.rdb.Get(ctx, CacheKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to read cache", err, map[string]interface{}{"key": name})
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("Dropping undecodable cache entry", map[string]interface{}{"key": name, "error": err.Error()})
		_ = s.rdb.Del(ctx, CacheKey(name)).Err()
		return false, nil
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", name, err)
	}
	if err := s.rdb.Set(ctx, CacheKey(name), raw, ttl).Err(); err != nil {
		logger.Error("Failed to write cache", err, map[string]interface{}{"key": name})
		return err
	}
	logger.Debug("Cache entry written", map[string]interface{}{"key": name, "ttl": ttl.String()})
	return nil
}

func (s *Store) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = CacheKey(n)
	}
	return s.rdb.Del(ctx, keys...).Err()
}
