package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tiltedtrades/trades-api/internal/middleware"
)

// RedisStatsNotifier publishes stale-account notifications on a redis
// channel. Dispatch is fire-and-forget: the write that triggered it has
// already committed, so a failed publish is logged and dropped without
// surfacing an error to the caller.
type RedisStatsNotifier struct {
	rdb     *redis.Client
	channel string
}

// NewRedisStatsNotifier creates a notifier publishing on channel.
func NewRedisStatsNotifier(rdb *redis.Client, channel string) *RedisStatsNotifier {
	if channel == "" {
		channel = "stats:stale"
	}
	return &RedisStatsNotifier{rdb: rdb, channel: channel}
}

// NotifyStatsStale implements Notifier. It returns immediately; the publish
// happens on its own goroutine with a bounded deadline.
func (n *RedisStatsNotifier) NotifyStatsStale(accountID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := n.rdb.Publish(ctx, n.channel, accountID).Err(); err != nil {
			middleware.LogError("stats stale notification for account %s failed: %v", accountID, err)
		}
	}()
}

// Channel returns the channel the notifier publishes on, so the stats
// worker can subscribe to the same name.
func (n *RedisStatsNotifier) Channel() string {
	return n.channel
}
