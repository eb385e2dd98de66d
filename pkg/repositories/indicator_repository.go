package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/happydata/happydata-engine/pkg/apperrors"
	"github.com/happydata/happydata-engine/pkg/database"
	"github.com/happydata/happydata-engine/pkg/models"
)

// IndicatorRepository defines the interface for indicator metadata access.
type IndicatorRepository interface {
	// UpsertAll writes the given indicators in one transaction, keyed by code.
	UpsertAll(ctx context.Context, indicators []models.Indicator) (created, updated int, err error)
	// Get returns one indicator by code. Returns
	// apperrors.ErrIndicatorNotFound on a miss.
	Get(ctx context.Context, id string) (*models.Indicator, error)
	// List returns all stored indicators ordered by code.
	List(ctx context.Context) ([]models.Indicator, error)
}

// indicatorRepository implements IndicatorRepository using PostgreSQL.
type indicatorRepository struct {
	db *database.DB
}

// NewIndicatorRepository creates a new indicator repository.
func NewIndicatorRepository(db *database.DB) IndicatorRepository {
	return &indicatorRepository{db: db}
}

func (r *indicatorRepository) UpsertAll(ctx context.Context, indicators []models.Indicator) (int, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	query := `
		INSERT INTO indicators (
			id, name, unit, source_id, source_value, source_note,
			source_organization, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    unit = EXCLUDED.unit,
		    source_id = EXCLUDED.source_id,
		    source_value = EXCLUDED.source_value,
		    source_note = EXCLUDED.source_note,
		    source_organization = EXCLUDED.source_organization,
		    updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)`

	var created, updated int
	now := time.Now()
	for _, ind := range indicators {
		var inserted bool
		err := tx.QueryRow(ctx, query,
			ind.ID, ind.Name, ind.Unit, ind.SourceID, ind.SourceValue,
			ind.SourceNote, ind.SourceOrganization, now,
		).Scan(&inserted)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert indicator %s: %w", ind.ID, err)
		}
		if inserted {
			created++
		} else {
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, updated, nil
}

func (r *indicatorRepository) Get(ctx context.Context, id string) (*models.Indicator, error) {
	query := `
		SELECT id, name, unit, source_id, source_value, source_note,
		       source_organization, updated_at
		FROM indicators WHERE id = $1`

	var ind models.Indicator
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ind.ID, &ind.Name, &ind.Unit, &ind.SourceID, &ind.SourceValue,
		&ind.SourceNote, &ind.SourceOrganization, &ind.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrIndicatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator %s: %w", id, err)
	}
	return &ind, nil
}

func (r *indicatorRepository) List(ctx context.Context) ([]models.Indicator, error) {
	query := `
		SELECT id, name, unit, source_id, source_value, source_note,
		       source_organization, updated_at
		FROM indicators ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicators: %w", err)
	}
	defer rows.Close()

	var indicators []models.Indicator
	for rows.Next() {
		var ind models.Indicator
		if err := rows.Scan(
			&ind.ID, &ind.Name, &ind.Unit, &ind.SourceID, &ind.SourceValue,
			&ind.SourceNote, &ind.SourceOrganization, &ind.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, ind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate indicators: %w", err)
	}
	return indicators, nil
}
