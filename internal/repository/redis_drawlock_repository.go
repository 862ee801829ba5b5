package repository

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/evreg/lottery-service/pkg/redis"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RedisDrawLockRepository implements DrawLock using Redis SETNX with a TTL.
// The TTL bounds how long a crashed draw can block the next one.
type RedisDrawLockRepository struct {
	client *pkgredis.Client
}

// NewRedisDrawLockRepository creates a new RedisDrawLockRepository
func NewRedisDrawLockRepository(client *pkgredis.Client) *RedisDrawLockRepository {
	return &RedisDrawLockRepository{client: client}
}

func drawLockKey(eventID string) string {
	return fmt.Sprintf("lottery:draw:lock:%s", eventID)
}

// Acquire takes the per-event draw lock. Returns false when another draw
// already holds it.
func (r *RedisDrawLockRepository) Acquire(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.drawlock.acquire")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("ttl", ttl.String()),
	)

	ok, err := r.client.SetNX(ctx, drawLockKey(eventID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to acquire draw lock: %w", err)
	}

	span.SetAttributes(attribute.Bool("acquired", ok))
	span.SetStatus(codes.Ok, "")
	return ok, nil
}

// Release drops the per-event draw lock
func (r *RedisDrawLockRepository) Release(ctx context.Context, eventID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.drawlock.release")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if err := r.client.Del(ctx, drawLockKey(eventID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to release draw lock: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
