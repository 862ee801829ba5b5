package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// defaultOptInBatchSize caps how many candidate ids one opt-in lookup may
// carry. External membership stores limit multi-id reads, so candidate sets
// are split and queried in parallel.
const defaultOptInBatchSize = 10

// PostgresEntrantRepository implements EntrantSource using PostgreSQL
type PostgresEntrantRepository struct {
	pool      *pgxpool.Pool
	batchSize int
}

// NewPostgresEntrantRepository creates a new PostgresEntrantRepository.
// batchSize <= 0 falls back to the default.
func NewPostgresEntrantRepository(pool *pgxpool.Pool, batchSize int) *PostgresEntrantRepository {
	if batchSize <= 0 {
		batchSize = defaultOptInBatchSize
	}
	return &PostgresEntrantRepository{pool: pool, batchSize: batchSize}
}

// GetEntrantIDs returns the entrants whose waiting list state matches the
// group, in join order
func (r *PostgresEntrantRepository) GetEntrantIDs(ctx context.Context, eventID string, group domain.Group) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.entrant.get_entrant_ids")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("group", string(group)),
	)

	state, err := domain.StateForGroup(group)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	query := `
		SELECT user_id
		FROM waiting_list_entries
		WHERE event_id = $1 AND state = $2
		ORDER BY position ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID, state.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query entrants: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan entrant id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read entrant ids: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(ids)))
	span.SetStatus(codes.Ok, "")
	return ids, nil
}

// FilterOptedIn returns the candidates with notifications enabled. Candidate
// ids are split into batches queried concurrently; results keep candidate
// order. Any batch failure fails the whole call.
func (r *PostgresEntrantRepository) FilterOptedIn(ctx context.Context, eventID string, candidateIDs []string) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.entrant.filter_opted_in")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("candidates", len(candidateIDs)),
	)

	if len(candidateIDs) == 0 {
		span.SetStatus(codes.Ok, "")
		return []string{}, nil
	}

	chunks := chunkIDs(candidateIDs, r.batchSize)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		optedIn  = make(map[string]bool, len(candidateIDs))
	)

	for _, chunk := range chunks {
		wg.Add(1)
		go func(ids []string) {
			defer wg.Done()

			found, err := r.optedInBatch(ctx, ids)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			for _, id := range found {
				optedIn[id] = true
			}
		}(chunk)
	}

	wg.Wait()

	if firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, firstErr.Error())
		return nil, firstErr
	}

	result := make([]string, 0, len(optedIn))
	for _, id := range candidateIDs {
		if optedIn[id] {
			result = append(result, id)
		}
	}

	span.SetAttributes(attribute.Int("opted_in", len(result)))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (r *PostgresEntrantRepository) optedInBatch(ctx context.Context, ids []string) ([]string, error) {
	query := `
		SELECT id
		FROM users
		WHERE id = ANY($1) AND notifications_opt_in = TRUE
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query opt-in batch: %w", err)
	}
	defer rows.Close()

	found := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan opt-in id: %w", err)
		}
		found = append(found, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read opt-in batch: %w", err)
	}
	return found, nil
}

func chunkIDs(ids []string, size int) [][]string {
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
