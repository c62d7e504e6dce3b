package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okwaro/safaribook/config"
	"github.com/okwaro/safaribook/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds the normalized guide catalog and per-session
// submit locks.
type RedisCache struct {
	client    *redis.Client
	guidesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, guidesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		guidesTTL: guidesTTL,
	}
}

func (c *RedisCache) GetGuide(ctx context.Context, id string) (*domain.Guide, error) {
	data, err := c.client.Get(ctx, guideKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var g domain.Guide
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *RedisCache) SetGuide(ctx context.Context, g *domain.Guide) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, guideKey(g.ID), payload, c.guidesTTL).Err()
}

// AcquireSubmitLock guards against a double submit for one session:
// a second concurrent create must fail instead of producing two
// server-side bookings.
func (c *RedisCache) AcquireSubmitLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, submitLockKey(sessionID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSubmitLock(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, submitLockKey(sessionID)).Err()
}

func guideKey(id string) string {
	return fmt.Sprintf("cache:guide:%s", id)
}

func submitLockKey(sessionID string) string {
	return fmt.Sprintf("lock:submit:%s", sessionID)
}
