package repositories

import (
	"context"
	"fmt"

	"github.com/happydata/happydata-engine/pkg/database"
	"github.com/happydata/happydata-engine/pkg/models"
)

// CountryDataRepository defines the interface for indicator observation access.
type CountryDataRepository interface {
	// UpsertSeries writes one fetched time series in a single transaction,
	// keyed by (country, indicator, date). Rerunning a batch overwrites
	// rather than duplicates.
	UpsertSeries(ctx context.Context, observations []models.CountryData) (created, updated int, err error)
	// Series returns all observations for one (country, indicator) pair,
	// most recent year first.
	Series(ctx context.Context, countryID, indicatorID string) ([]models.CountryData, error)
	// RegionalSnapshot returns every in-region country's observation for one
	// (indicator, year), sorted by value descending. Countries without an
	// observation for that year are absent.
	RegionalSnapshot(ctx context.Context, region, indicatorID string, year int) ([]models.CountryData, error)
}

// countryDataRepository implements CountryDataRepository using PostgreSQL.
type countryDataRepository struct {
	db *database.DB
}

// NewCountryDataRepository creates a new observation repository.
func NewCountryDataRepository(db *database.DB) CountryDataRepository {
	return &countryDataRepository{db: db}
}

func (r *countryDataRepository) UpsertSeries(ctx context.Context, observations []models.CountryData) (int, int, error) {
	if len(observations) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	query := `
		INSERT INTO country_data (
			country_id, indicator_id, country_iso3_code, date, value,
			unit, obs_status, decimal_places
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (country_id, indicator_id, date) DO UPDATE
		SET country_iso3_code = EXCLUDED.country_iso3_code,
		    value = EXCLUDED.value,
		    unit = EXCLUDED.unit,
		    obs_status = EXCLUDED.obs_status,
		    decimal_places = EXCLUDED.decimal_places
		RETURNING (xmax = 0)`

	var created, updated int
	for _, obs := range observations {
		var inserted bool
		err := tx.QueryRow(ctx, query,
			obs.CountryID, obs.IndicatorID, obs.CountryISO3Code, obs.Date,
			obs.Value, obs.Unit, obs.ObsStatus, obs.DecimalPlaces,
		).Scan(&inserted)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert observation %s/%s/%s: %w",
				obs.CountryID, obs.IndicatorID, obs.Date, err)
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

func (r *countryDataRepository) Series(ctx context.Context, countryID, indicatorID string) ([]models.CountryData, error) {
	query := `
		SELECT id, country_id, indicator_id, country_iso3_code, date, value,
		       unit, obs_status, decimal_places
		FROM country_data
		WHERE country_id = $1 AND indicator_id = $2
		ORDER BY date DESC`

	rows, err := r.db.Query(ctx, query, countryID, indicatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query series %s/%s: %w", countryID, indicatorID, err)
	}
	defer rows.Close()

	var series []models.CountryData
	for rows.Next() {
		var d models.CountryData
		if err := rows.Scan(
			&d.ID, &d.CountryID, &d.IndicatorID, &d.CountryISO3Code, &d.Date,
			&d.Value, &d.Unit, &d.ObsStatus, &d.DecimalPlaces,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		series = append(series, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate series: %w", err)
	}
	return series, nil
}

func (r *countryDataRepository) RegionalSnapshot(ctx context.Context, region, indicatorID string, year int) ([]models.CountryData, error) {
	query := `
		SELECT d.id, d.country_id, d.indicator_id, d.country_iso3_code, d.date,
		       d.value, d.unit, d.obs_status, d.decimal_places, c.name
		FROM country_data d
		JOIN countries c ON c.id = d.country_id
		WHERE c.region_value = $1 AND d.indicator_id = $2 AND d.date = $3
		  AND d.value IS NOT NULL
		ORDER BY d.value DESC`

	rows, err := r.db.Query(ctx, query, region, indicatorID, fmt.Sprintf("%d", year))
	if err != nil {
		return nil, fmt.Errorf("failed to query regional snapshot: %w", err)
	}
	defer rows.Close()

	var snapshot []models.CountryData
	for rows.Next() {
		var d models.CountryData
		if err := rows.Scan(
			&d.ID, &d.CountryID, &d.IndicatorID, &d.CountryISO3Code, &d.Date,
			&d.Value, &d.Unit, &d.ObsStatus, &d.DecimalPlaces, &d.CountryName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshot = append(snapshot, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot: %w", err)
	}
	return snapshot, nil
}
