package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/campuspoint/auth-service/internal/core/port"
)

const rateLimitPrefix = "auth:rate-limit"

// RateLimitRepository tracks request attempts in a Redis sorted set per
// identifier. Member scores are unix nanoseconds, which makes sliding
// window queries a score range lookup.
type RateLimitRepository struct {
	rdb *redis.Client
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)

func NewRateLimitRepository(rdb *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{rdb: rdb}
}

func key(identifier string) string {
	return rateLimitPrefix + ":" + identifier
}

func (r *RateLimitRepository) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	member := fmt.Sprintf("%d:%s", at.UnixNano(), uuid.NewString())

	pipe := r.rdb.TxPipeline()
	pipe.ZAdd(ctx, key(identifier), redis.Z{
		Score:  float64(at.UnixNano()),
		Member: member,
	})
	// Keys expire a little after the longest useful window so abandoned
	// identifiers do not accumulate.
	pipe.Expire(ctx, key(identifier), 2*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rate limit attempt: %w", err)
	}

	return nil
}

func (r *RateLimitRepository) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	min := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	max := strconv.FormatInt(reference.UnixNano(), 10)

	count, err := r.rdb.ZCount(ctx, key(identifier), min, max).Result()
	if err != nil {
		return 0, fmt.Errorf("count rate limit attempts: %w", err)
	}

	return int(count), nil
}

func (r *RateLimitRepository) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	max := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)

	if err := r.rdb.ZRemRangeByScore(ctx, key(identifier), "-inf", max).Err(); err != nil {
		return fmt.Errorf("trim rate limit window: %w", err)
	}

	return nil
}

func (r *RateLimitRepository) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	min := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	max := strconv.FormatInt(reference.UnixNano(), 10)

	entries, err := r.rdb.ZRangeByScoreWithScores(ctx, key(identifier), &redis.ZRangeBy{
		Min:   min,
		Max:   max,
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("oldest rate limit attempt: %w", err)
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}

	return time.Unix(0, int64(entries[0].Score)), true, nil
}
