package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSendBudget enforces per-campaign daily send caps with a Redis
// counter keyed by campaign and day. Keys expire shortly after midnight so
// stale counters never accumulate.
type RedisSendBudget struct {
	Client *redis.Client
}

// NewRedisSendBudget creates a budget tracker
func NewRedisSendBudget(client *redis.Client) *RedisSendBudget {
	return &RedisSendBudget{Client: client}
}

// Allow consumes one send slot and reports whether the campaign is still
// under today's limit. The increment happens first: going one over and
// refusing is simpler than a check-then-set race.
func (b *RedisSendBudget) Allow(campaignID uint, limit int) (bool, error) {
	ctx := context.Background()
	now := time.Now().UTC()
	key := fmt.Sprintf("sendbudget:%d:%s", campaignID, now.Format("2006-01-02"))

	count, err := b.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		b.Client.ExpireAt(ctx, key, midnight.Add(time.Hour))
	}
	return count <= int64(limit), nil
}
