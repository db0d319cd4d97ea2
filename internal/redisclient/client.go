package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"manai-service/internal/cart"
	"manai-service/internal/models"
)

// ErrCacheMiss means the key is not in Redis; callers fall back to the store.
var ErrCacheMiss = errors.New("cache miss")

const menuItemTTL = 10 * time.Minute

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

func menuKey(id string) string {
	return fmt.Sprintf("menu:%s", id)
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// SetMenuItem caches a menu item
func (c *Client) SetMenuItem(ctx context.Context, item *models.MenuItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal menu item: %w", err)
	}
	return c.rdb.Set(ctx, menuKey(item.ID), data, menuItemTTL).Err()
}

// GetMenuItem retrieves a cached menu item, or ErrCacheMiss
func (c *Client) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	data, err := c.rdb.Get(ctx, menuKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var item models.MenuItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu item: %w", err)
	}
	return &item, nil
}

// DeleteMenuItem invalidates a cached menu item after an admin write
func (c *Client) DeleteMenuItem(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, menuKey(id)).Err()
}

// SaveCart stores a session cart as JSON with a TTL. The pricing policy is
// not persisted; load with GetCart re-stamps it.
func (c *Client) SaveCart(ctx context.Context, sessionID string, crt *cart.Cart, ttl time.Duration) error {
	data, err := json.Marshal(crt)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	return c.rdb.Set(ctx, cartKey(sessionID), data, ttl).Err()
}

// GetCart loads a session cart and reprices it. A missing key yields a fresh
// empty cart, not an error: a new session simply has nothing in it yet.
func (c *Client) GetCart(ctx context.Context, sessionID string, pricing cart.Pricing) (*cart.Cart, error) {
	data, err := c.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if err == redis.Nil {
		return cart.New(pricing), nil
	}
	if err != nil {
		return nil, err
	}

	var crt cart.Cart
	if err := json.Unmarshal(data, &crt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	crt.Reprice(pricing)
	return &crt, nil
}

// DeleteCart discards a session cart, typically after a successful order
func (c *Client) DeleteCart(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, cartKey(sessionID)).Err()
}
