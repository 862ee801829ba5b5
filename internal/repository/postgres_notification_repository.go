package repository

import (
	"context"
	"fmt"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresNotificationRepository implements NotificationStore using PostgreSQL
type PostgresNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(pool *pgxpool.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

// Add inserts one notification row
func (r *PostgresNotificationRepository) Add(ctx context.Context, n *domain.Notification) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.add")
	defer span.End()

	span.SetAttributes(
		attribute.String("notification_id", n.ID),
		attribute.String("user_id", n.UserID),
		attribute.String("event_id", n.EventID),
	)

	query := `
		INSERT INTO notifications (
			id, user_id, event_id, organizer_id, title, body, category, read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		n.ID,
		n.UserID,
		n.EventID,
		n.OrganizerID,
		n.Title,
		n.Body,
		n.Category.String(),
		n.Read,
		n.CreatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to add notification: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetForUser returns the user's notifications, newest first
func (r *PostgresNotificationRepository) GetForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.get_for_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	query := `
		SELECT id, user_id, event_id, organizer_id, title, body, category, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		n := &domain.Notification{}
		var category string
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.EventID,
			&n.OrganizerID,
			&n.Title,
			&n.Body,
			&category,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Category = domain.Category(category)
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(notifications)))
	span.SetStatus(codes.Ok, "")
	return notifications, nil
}

// MarkRead flips the read flag on one of the user's notifications
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.notification.mark_read")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("notification_id", notificationID),
	)

	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrNotificationNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
