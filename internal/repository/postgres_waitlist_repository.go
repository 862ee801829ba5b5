package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresWaitlistRepository implements WaitlistRepository using PostgreSQL.
// Entries keep an explicit position column so join order survives restore.
type PostgresWaitlistRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresWaitlistRepository creates a new PostgresWaitlistRepository
func NewPostgresWaitlistRepository(pool *pgxpool.Pool) *PostgresWaitlistRepository {
	return &PostgresWaitlistRepository{pool: pool}
}

// Load restores the event's waiting list in join order
func (r *PostgresWaitlistRepository) Load(ctx context.Context, eventID string) (*domain.WaitingList, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.waitlist.load")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	var capacity int
	err := r.pool.QueryRow(ctx,
		`SELECT waiting_list_capacity FROM events WHERE id = $1`, eventID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrInvalidEventID
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to load event capacity: %w", err)
	}

	query := `
		SELECT user_id, state
		FROM waiting_list_entries
		WHERE event_id = $1
		ORDER BY position ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query waiting list: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.WaitingListEntry, 0)
	for rows.Next() {
		var (
			userID string
			state  string
		)
		if err := rows.Scan(&userID, &state); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan waiting list entry: %w", err)
		}
		parsed, err := domain.ParseEntrantState(state)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("corrupt waiting list entry for %s: %w", userID, err)
		}
		entries = append(entries, domain.WaitingListEntry{UserID: userID, State: parsed})
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read waiting list: %w", err)
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))
	span.SetStatus(codes.Ok, "")
	return domain.RestoreWaitingList(capacity, entries), nil
}

// SaveEntry upserts one entrant row, appending it at the tail on first insert
func (r *PostgresWaitlistRepository) SaveEntry(ctx context.Context, eventID string, entry domain.WaitingListEntry) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.waitlist.save_entry")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", entry.UserID),
		attribute.String("state", entry.State.String()),
	)

	query := `
		INSERT INTO waiting_list_entries (event_id, user_id, state, position, joined_at)
		VALUES (
			$1, $2, $3,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM waiting_list_entries WHERE event_id = $1),
			NOW()
		)
		ON CONFLICT (event_id, user_id) DO UPDATE SET state = EXCLUDED.state
	`

	if _, err := r.pool.Exec(ctx, query, eventID, entry.UserID, entry.State.String()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to save waiting list entry: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteEntry removes one entrant row entirely
func (r *PostgresWaitlistRepository) DeleteEntry(ctx context.Context, eventID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.waitlist.delete_entry")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM waiting_list_entries WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete waiting list entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrNotInList
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SaveStates writes every entry's state in one batch, used after a draw
func (r *PostgresWaitlistRepository) SaveStates(ctx context.Context, eventID string, entries []domain.WaitingListEntry) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.waitlist.save_states")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("entries", len(entries)),
	)

	if len(entries) == 0 {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(
			`UPDATE waiting_list_entries SET state = $1 WHERE event_id = $2 AND user_id = $3`,
			entry.State.String(), eventID, entry.UserID,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to save waiting list states: %w", err)
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
