package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetCabinetSnapshot caches the dashboard view of a cabinet's inventory
func (c *Client) SetCabinetSnapshot(ctx context.Context, cabinetID int64, snapshot interface{}, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.rdb.Set(ctx, fmt.Sprintf("cabinet:%d:snapshot", cabinetID), data, ttl).Err()
}

// GetCabinetSnapshot returns the cached snapshot, or (nil, nil) on a miss
func (c *Client) GetCabinetSnapshot(ctx context.Context, cabinetID int64) ([]byte, error) {
	data, err := c.rdb.Get(ctx, fmt.Sprintf("cabinet:%d:snapshot", cabinetID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetStatusCounts caches per-status item counts for a cabinet
func (c *Client) SetStatusCounts(ctx context.Context, cabinetID int64, counts map[string]int) error {
	key := fmt.Sprintf("cabinet:%d:status", cabinetID)

	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, key)
	for status, count := range counts {
		pipe.HSet(ctx, key, status, count)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// AddActiveAlert records an active alert for a cabinet
func (c *Client) AddActiveAlert(ctx context.Context, cabinetID int64, message string) error {
	key := fmt.Sprintf("cabinet:%d:alerts", cabinetID)

	pipe := c.rdb.Pipeline()
	pipe.SAdd(ctx, key, message)
	pipe.Expire(ctx, key, 24*time.Hour)

	_, err := pipe.Exec(ctx)
	return err
}

// GetActiveAlerts returns the active alerts recorded for a cabinet
func (c *Client) GetActiveAlerts(ctx context.Context, cabinetID int64) ([]string, error) {
	return c.rdb.SMembers(ctx, fmt.Sprintf("cabinet:%d:alerts", cabinetID)).Result()
}

// ClearActiveAlerts drops all active alerts for a cabinet
func (c *Client) ClearActiveAlerts(ctx context.Context, cabinetID int64) error {
	return c.rdb.Del(ctx, fmt.Sprintf("cabinet:%d:alerts", cabinetID)).Err()
}

// AcquireLock acquires a short distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
