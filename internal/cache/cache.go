// Package cache keeps hot lookups (player profiles, latest encoded
// snapshots) in Redis so reconnects and rating reads skip the database. A
// nil *Cache is valid and turns every operation into a no-op.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"crossline/internal/domain"
)

const (
	ttlProfile  = 12 * time.Hour
	ttlSnapshot = 24 * time.Hour
)

type Cache struct {
	rdb *redis.Client
}

// New connects to Redis by URL and verifies the connection.
func New(redisURL string) (*Cache, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Cache{rdb: rdb}, nil
}

// NewWithClient wraps an already constructed client.
func NewWithClient(rdb *redis.Client) *Cache { return &Cache{rdb: rdb} }

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) keyProfile(name string) string    { return "profile:" + strings.TrimSpace(name) }
func (c *Cache) keySnapshot(gameID string) string { return "snap:" + strings.TrimSpace(gameID) }

func (c *Cache) SaveProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if c == nil || c.rdb == nil || profile == nil {
		return nil
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.keyProfile(profile.Name), raw, ttlProfile).Err()
}

func (c *Cache) LoadProfile(ctx context.Context, name string) (*domain.PlayerProfile, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, c.keyProfile(name)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p domain.PlayerProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Cache) DeleteProfile(ctx context.Context, name string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.keyProfile(name)).Err()
}

// SaveSnapshot caches the latest encoded frame for a game so a reconnecting
// client can be brought up to date without touching the session store.
func (c *Cache) SaveSnapshot(ctx context.Context, gameID string, data []byte) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, c.keySnapshot(gameID), data, ttlSnapshot).Err()
}

func (c *Cache) LoadSnapshot(ctx context.Context, gameID string) ([]byte, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, c.keySnapshot(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Cache) DeleteSnapshot(ctx context.Context, gameID string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.keySnapshot(gameID)).Err()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		// Bare host:port form.
		return &redis.Options{Addr: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
