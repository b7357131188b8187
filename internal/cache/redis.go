package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dveridom/backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrNotFound возвращается, когда ключа нет в Redis.
var ErrNotFound = errors.New("cache: key not found")

// Client — тонкая обёртка над Redis. Значения хранятся как JSON-строки.
// При Enabled=false все операции превращаются в no-op: зеркало каталога
// и кэш списков необязательны, их отсутствие не должно ломать сервис.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		log.Warn().Msg("Redis is disabled, cache operations are no-ops")
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return &Client{rdb: rdb, enabled: true}, nil
}

// Enabled сообщает, работает ли кэш. Оркестратор по этому признаку
// пропускает путь восстановления из зеркала.
func (c *Client) Enabled() bool {
	return c.enabled
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if !c.enabled {
		return "", ErrNotFound
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("cache: failed to get key %s: %w", key, err)
	}
	return val, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	if !c.enabled {
		return nil
	}
	// Записи зеркала живут без TTL: они служат резервной копией каталога.
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("cache: failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: failed to delete keys: %w", err)
	}
	return nil
}

func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	if !c.enabled {
		return nil, nil
	}
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: failed to list keys for pattern %s: %w", pattern, err)
	}
	return keys, nil
}

// Incr увеличивает счётчик и возвращает новое значение. Используется
// rate-limit middleware.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	if !c.enabled {
		return 0, nil
	}
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache: failed to incr key %s: %w", key, err)
	}
	return n, nil
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to expire key %s: %w", key, err)
	}
	return nil
}

func (c *Client) Close() error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Close()
}
