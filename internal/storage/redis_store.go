package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"randomchat/backend/internal/config"
)

// EventChannel is the Redis pub/sub channel carrying the admin event feed.
const EventChannel = "events"

const banKeyPrefix = "ban:"

// withRetry runs fn with bounded exponential backoff, for transient Redis
// failures. redis.Nil is a lookup miss, not a failure.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	backoff := config.StoreRetryBackoff
	for attempt := 0; attempt < config.StoreRetryAttempts; attempt++ {
		err = fn()
		if err == nil || errors.Is(err, redis.Nil) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return err
}

// IsBanned checks the ban cache. A missing key means not banned.
func (s *Service) IsBanned(ctx context.Context, anonID string) (bool, error) {
	var status string
	err := withRetry(ctx, func() error {
		var e error
		status, e = s.Redis.Get(ctx, banKeyPrefix+anonID).Result()
		return e
	})
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// CacheBan records the ban in Redis so the hot path can skip PostgreSQL.
// Entries expire after BanCacheTTL; the is_banned column stays authoritative.
func (s *Service) CacheBan(ctx context.Context, anonID string) error {
	return withRetry(ctx, func() error {
		return s.Redis.Set(ctx, banKeyPrefix+anonID, "active", config.BanCacheTTL).Err()
	})
}

// ClearBan drops the cached ban entry on unban.
func (s *Service) ClearBan(ctx context.Context, anonID string) error {
	return withRetry(ctx, func() error {
		return s.Redis.Del(ctx, banKeyPrefix+anonID).Err()
	})
}

// PublishEvent pushes an event onto the feed channel. Events carry only
// anonymous ids, never platform handles.
func (s *Service) PublishEvent(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		return s.Redis.Publish(ctx, EventChannel, payload).Err()
	})
}

// SubscribeEvents opens a pub/sub subscription on the event feed. The caller
// owns the returned subscription and must Close it.
func (s *Service) SubscribeEvents(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, EventChannel)
}
