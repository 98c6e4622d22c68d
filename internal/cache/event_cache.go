// Package cache provides a redis read-through cache for event summaries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clubgrid/ticketing/internal/config"
	"github.com/clubgrid/ticketing/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// EventSummaryCache caches the minimal event view served with ticket
// lookups. A cold or unreachable redis degrades to direct database reads;
// it is never fatal.
type EventSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventSummaryCache connects to redis and pings it once. A failed ping
// is logged and the client kept: redis may come up later.
func NewEventSummaryCache(ctx context.Context, cfg config.RedisConfig) *EventSummaryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("redis unreachable, event summary cache degraded")
	}
	return &EventSummaryCache{client: client, ttl: cfg.CacheTTL}
}

func summaryKey(eventID string) string {
	return "ticketing:event_summary:" + eventID
}

// Get returns a cached summary or ErrCacheMiss.
func (c *EventSummaryCache) Get(ctx context.Context, eventID string) (*model.EventSummary, error) {
	data, err := c.client.Get(ctx, summaryKey(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var s model.EventSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode cached summary: %w", err)
	}
	return &s, nil
}

// Set stores a summary with the configured TTL.
func (c *EventSummaryCache) Set(ctx context.Context, s *model.EventSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(s.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (c *EventSummaryCache) Close() error {
	return c.client.Close()
}
