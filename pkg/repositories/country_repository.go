package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/happydata/happydata-engine/pkg/apperrors"
	"github.com/happydata/happydata-engine/pkg/database"
	"github.com/happydata/happydata-engine/pkg/models"
)

// CountryRepository defines the interface for country data access.
type CountryRepository interface {
	// UpsertAll writes the given countries in one transaction, keyed by code.
	// Returns how many rows were newly created vs. overwritten.
	UpsertAll(ctx context.Context, countries []models.Country) (created, updated int, err error)
	// GetByCode resolves a country by its primary code or its ISO2 code,
	// case-insensitively. Returns apperrors.ErrCountryNotFound on a miss.
	GetByCode(ctx context.Context, code string) (*models.Country, error)
	// List returns all countries ordered by name, optionally filtered to one
	// region (exact region_value match).
	List(ctx context.Context, region string) ([]models.Country, error)
}

// countryRepository implements CountryRepository using PostgreSQL.
type countryRepository struct {
	db *database.DB
}

// NewCountryRepository creates a new country repository.
func NewCountryRepository(db *database.DB) CountryRepository {
	return &countryRepository{db: db}
}

const countryColumns = `id, iso2_code, name, capital_city, longitude, latitude,
	region_id, region_value, admin_region_id, admin_region_value,
	income_level_id, income_level_value, lending_type_id, lending_type_value,
	updated_at`

func (r *countryRepository) UpsertAll(ctx context.Context, countries []models.Country) (int, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	// xmax = 0 distinguishes a fresh insert from a conflict-path update.
	query := `
		INSERT INTO countries (
			id, iso2_code, name, capital_city, longitude, latitude,
			region_id, region_value, admin_region_id, admin_region_value,
			income_level_id, income_level_value, lending_type_id, lending_type_value,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE
		SET iso2_code = EXCLUDED.iso2_code,
		    name = EXCLUDED.name,
		    capital_city = EXCLUDED.capital_city,
		    longitude = EXCLUDED.longitude,
		    latitude = EXCLUDED.latitude,
		    region_id = EXCLUDED.region_id,
		    region_value = EXCLUDED.region_value,
		    admin_region_id = EXCLUDED.admin_region_id,
		    admin_region_value = EXCLUDED.admin_region_value,
		    income_level_id = EXCLUDED.income_level_id,
		    income_level_value = EXCLUDED.income_level_value,
		    lending_type_id = EXCLUDED.lending_type_id,
		    lending_type_value = EXCLUDED.lending_type_value,
		    updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)`

	var created, updated int
	now := time.Now()
	for _, c := range countries {
		var inserted bool
		err := tx.QueryRow(ctx, query,
			c.ID, c.ISO2Code, c.Name, c.CapitalCity, c.Longitude, c.Latitude,
			c.RegionID, c.RegionValue, c.AdminRegionID, c.AdminRegionValue,
			c.IncomeLevelID, c.IncomeLevelValue, c.LendingTypeID, c.LendingTypeValue,
			now,
		).Scan(&inserted)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert country %s: %w", c.ID, err)
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

func (r *countryRepository) GetByCode(ctx context.Context, code string) (*models.Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	query := fmt.Sprintf(`SELECT %s FROM countries WHERE id = $1 OR iso2_code = $1`, countryColumns)

	var c models.Country
	err := r.db.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.ISO2Code, &c.Name, &c.CapitalCity, &c.Longitude, &c.Latitude,
		&c.RegionID, &c.RegionValue, &c.AdminRegionID, &c.AdminRegionValue,
		&c.IncomeLevelID, &c.IncomeLevelValue, &c.LendingTypeID, &c.LendingTypeValue,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrCountryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get country %s: %w", code, err)
	}
	return &c, nil
}

func (r *countryRepository) List(ctx context.Context, region string) ([]models.Country, error) {
	query := fmt.Sprintf(`SELECT %s FROM countries`, countryColumns)
	args := []any{}
	if region != "" {
		query += ` WHERE region_value = $1`
		args = append(args, region)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	var countries []models.Country
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(
			&c.ID, &c.ISO2Code, &c.Name, &c.CapitalCity, &c.Longitude, &c.Latitude,
			&c.RegionID, &c.RegionValue, &c.AdminRegionID, &c.AdminRegionValue,
			&c.IncomeLevelID, &c.IncomeLevelValue, &c.LendingTypeID, &c.LendingTypeValue,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate countries: %w", err)
	}
	return countries, nil
}
