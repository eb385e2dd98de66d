package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/happydata/happydata-engine/pkg/database"
	"github.com/happydata/happydata-engine/pkg/models"
)

// IngestionRunRepository records population batch outcomes.
type IngestionRunRepository interface {
	// Record persists one finished run. A zero ID is assigned.
	Record(ctx context.Context, run *models.IngestionRun) error
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]models.IngestionRun, error)
}

// ingestionRunRepository implements IngestionRunRepository using PostgreSQL.
type ingestionRunRepository struct {
	db *database.DB
}

// NewIngestionRunRepository creates a new ingestion run repository.
func NewIngestionRunRepository(db *database.DB) IngestionRunRepository {
	return &ingestionRunRepository{db: db}
}

func (r *ingestionRunRepository) Record(ctx context.Context, run *models.IngestionRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	query := `
		INSERT INTO ingestion_runs (id, kind, started_at, finished_at, created, updated, unmatched, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		run.ID, run.Kind, run.StartedAt, run.FinishedAt,
		run.Created, run.Updated, run.Unmatched, run.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingestion run: %w", err)
	}
	return nil
}

func (r *ingestionRunRepository) Recent(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, kind, started_at, finished_at, created, updated, unmatched, note
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion runs: %w", err)
	}
	defer rows.Close()

	var runs []models.IngestionRun
	for rows.Next() {
		var run models.IngestionRun
		if err := rows.Scan(
			&run.ID, &run.Kind, &run.StartedAt, &run.FinishedAt,
			&run.Created, &run.Updated, &run.Unmatched, &run.Note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ingestion run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingestion runs: %w", err)
	}
	return runs, nil
}
