package repository

import (
	"context"
	"errors"
	"fmt"

	pkgredis "github.com/evreg/lottery-service/pkg/redis"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RedisUnreadRepository implements UnreadCounter using Redis. Counters are
// best-effort badges; a miss reads as zero.
type RedisUnreadRepository struct {
	client *pkgredis.Client
}

// NewRedisUnreadRepository creates a new RedisUnreadRepository
func NewRedisUnreadRepository(client *pkgredis.Client) *RedisUnreadRepository {
	return &RedisUnreadRepository{client: client}
}

func unreadKey(userID string) string {
	return fmt.Sprintf("notifications:unread:%s", userID)
}

// Incr bumps the user's unread count by one
func (r *RedisUnreadRepository) Incr(ctx context.Context, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.unread.incr")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if err := r.client.IncrBy(ctx, unreadKey(userID), 1).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to increment unread count: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Decr lowers the user's unread count by one, never below zero
func (r *RedisUnreadRepository) Decr(ctx context.Context, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.unread.decr")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	n, err := r.client.DecrBy(ctx, unreadKey(userID), 1).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to decrement unread count: %w", err)
	}

	// Clamp a racing double-decrement back to zero
	if n < 0 {
		if err := r.client.Set(ctx, unreadKey(userID), 0, 0).Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to reset unread count: %w", err)
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Get returns the user's unread count
func (r *RedisUnreadRepository) Get(ctx context.Context, userID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.unread.get")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	n, err := r.client.Get(ctx, unreadKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Ok, "")
			return 0, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return n, nil
}
