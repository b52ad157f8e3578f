package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "spamstopper/pkg/domain"
)

const redisUsageKeyPrefix = "usage:"

// Counters expire two full months after their period ends so billing
// reconciliation can still read last month's numbers.
const redisUsageTTL = 62 * 24 * time.Hour

// RedisStore keeps usage counters in Redis. INCR is atomic, so concurrent
// screenings against the same subscriber cannot lose counts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed usage ledger.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Used(ctx context.Context, subscriberID id.SubscriberID, period Period) (int, error) {
	count, err := s.client.Get(ctx, usageKey(subscriberID, period)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read usage counter: %w", err)
	}
	return count, nil
}

func (s *RedisStore) Increment(ctx context.Context, subscriberID id.SubscriberID, period Period) (int, error) {
	key := usageKey(subscriberID, period)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, redisUsageTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment usage counter: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Reset(ctx context.Context, subscriberID id.SubscriberID, period Period) error {
	if err := s.client.Del(ctx, usageKey(subscriberID, period)).Err(); err != nil {
		return fmt.Errorf("reset usage counter: %w", err)
	}
	return nil
}

func usageKey(subscriberID id.SubscriberID, period Period) string {
	return redisUsageKeyPrefix + subscriberID.String() + ":" + period.String()
}
