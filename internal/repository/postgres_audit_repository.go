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

// PostgresAuditRepository implements AuditStore using PostgreSQL.
// Rows are append-only; there is no update or delete path.
type PostgresAuditRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditRepository creates a new PostgresAuditRepository
func NewPostgresAuditRepository(pool *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{pool: pool}
}

// Record inserts one audit row
func (r *PostgresAuditRepository) Record(ctx context.Context, log *domain.NotificationLog) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.audit.record")
	defer span.End()

	span.SetAttributes(
		attribute.String("log_id", log.ID),
		attribute.String("organizer_id", log.OrganizerID),
		attribute.String("event_id", log.EventID),
		attribute.Int("recipient_count", len(log.RecipientIDs)),
	)

	query := `
		INSERT INTO notification_logs (
			id, organizer_id, event_id, category, recipient_ids, payload_preview, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID,
		log.OrganizerID,
		log.EventID,
		log.Category.String(),
		log.RecipientIDs,
		log.PayloadPreview,
		log.CreatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to record notification log: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetAllLogs returns every audit row, newest first
func (r *PostgresAuditRepository) GetAllLogs(ctx context.Context) ([]*domain.NotificationLog, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.audit.get_all_logs")
	defer span.End()

	query := `
		SELECT id, organizer_id, event_id, category, recipient_ids, payload_preview, created_at
		FROM notification_logs
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query notification logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*domain.NotificationLog, 0)
	for rows.Next() {
		l := &domain.NotificationLog{}
		var category string
		if err := rows.Scan(
			&l.ID,
			&l.OrganizerID,
			&l.EventID,
			&category,
			&l.RecipientIDs,
			&l.PayloadPreview,
			&l.CreatedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan notification log: %w", err)
		}
		l.Category = domain.Category(category)
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read notification logs: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(logs)))
	span.SetStatus(codes.Ok, "")
	return logs, nil
}
