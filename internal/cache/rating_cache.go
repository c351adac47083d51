// Package cache keeps derived title ratings in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// noRating marks a title that has no reviews yet.
const noRating = "none"

type RatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRatingCache wraps an existing client. A nil client makes every call a no-op.
func NewRatingCache(client *redis.Client, ttl time.Duration) *RatingCache {
	return &RatingCache{client: client, ttl: ttl}
}

// Connect dials redisURL and verifies the connection.
func Connect(ctx context.Context, redisURL, password string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func ratingKey(titleID int64) string {
	return fmt.Sprintf("title:rating:%d", titleID)
}

// Get returns (rating, true) on a hit. rating is nil for a cached "no reviews".
func (c *RatingCache) Get(ctx context.Context, titleID int64) (*int, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	val, err := c.client.Get(ctx, ratingKey(titleID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if val == noRating {
		return nil, true, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		// corrupt entry, treat as miss
		return nil, false, nil
	}
	return &n, true, nil
}

func (c *RatingCache) Set(ctx context.Context, titleID int64, rating *int) error {
	if c == nil || c.client == nil {
		return nil
	}
	val := noRating
	if rating != nil {
		val = strconv.Itoa(*rating)
	}
	return c.client.Set(ctx, ratingKey(titleID), val, c.ttl).Err()
}

func (c *RatingCache) Invalidate(ctx context.Context, titleID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, ratingKey(titleID)).Err()
}
