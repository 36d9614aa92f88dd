package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"kasirstok/backend/internal/domain"
)

type RedisReportCache struct {
	client *redis.Client
}

func NewRedisReportCache(addr string, password string, db int) *RedisReportCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisReportCache{client: client}
}

func (c *RedisReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

func (c *RedisReportCache) Get(ctx context.Context, period domain.Period, rng domain.Range, anchor time.Time) (*domain.SalesChart, bool, error) {
	val, err := c.client.Get(ctx, ReportKey(period, rng, anchor)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var chart domain.SalesChart
	if err := json.Unmarshal(val, &chart); err != nil {
		return nil, false, err
	}
	return &chart, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, chart *domain.SalesChart, ttl time.Duration) error {
	if chart == nil {
		return nil
	}
	payload, err := json.Marshal(chart)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ReportKey(chart.Period, chart.Range, chart.Anchor), payload, ttl).Err()
}

// Invalidate drops every cached chart, whatever period it is anchored at.
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, reportKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
