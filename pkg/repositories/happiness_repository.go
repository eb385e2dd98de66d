package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/happydata/happydata-engine/pkg/database"
	"github.com/happydata/happydata-engine/pkg/models"
)

// HappinessFilter narrows a happiness listing. Zero values mean "no filter".
type HappinessFilter struct {
	Year    int
	Region  string
	Country string // country code or raw spreadsheet name
}

// HappinessRepository defines the interface for happiness report data access.
type HappinessRepository interface {
	// UpsertAll writes the given rows in one transaction, keyed by
	// (country_name, year).
	UpsertAll(ctx context.Context, rows []models.HappinessData) (created, updated int, err error)
	// ListByCountry returns a country's rows across all years, oldest first,
	// with per-year competition rank. Rows are matched by the reconciled link
	// first; when none exist, by the country's display name (covers rows
	// ingested before the country catalog was populated).
	ListByCountry(ctx context.Context, country *models.Country) ([]models.HappinessData, error)
	// List returns rows matching the filter, highest ladder score first.
	List(ctx context.Context, filter HappinessFilter) ([]models.HappinessData, error)
	// Regional returns average ladder scores grouped by (region, year) over
	// reconciled rows. The region comes from the live country join; regions
	// with no matched rows are absent. year = 0 means all years.
	Regional(ctx context.Context, year int) ([]models.RegionalHappiness, error)
}

// happinessRepository implements HappinessRepository using PostgreSQL.
type happinessRepository struct {
	db *database.DB
}

// NewHappinessRepository creates a new happiness repository.
func NewHappinessRepository(db *database.DB) HappinessRepository {
	return &happinessRepository{db: db}
}

const happinessColumns = `h.id, h.country_name, h.country_id, h.year,
	h.ladder_score, h.upper_whisker, h.lower_whisker,
	h.explained_by_log_gdp_per_capita, h.explained_by_social_support,
	h.explained_by_healthy_life_expectancy,
	h.explained_by_freedom_to_make_life_choices, h.explained_by_generosity,
	h.explained_by_perceptions_of_corruption, h.dystopia_plus_residual,
	h.region`

// happinessRank computes the competition rank within the row's year: ties
// share a rank, and the next distinct score skips past them.
const happinessRank = `(SELECT COUNT(*) + 1 FROM happiness_data h2
	WHERE h2.year = h.year AND h2.ladder_score > h.ladder_score)`

func (r *happinessRepository) UpsertAll(ctx context.Context, rows []models.HappinessData) (int, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	query := `
		INSERT INTO happiness_data (
			country_name, country_id, year, ladder_score, upper_whisker,
			lower_whisker, explained_by_log_gdp_per_capita,
			explained_by_social_support, explained_by_healthy_life_expectancy,
			explained_by_freedom_to_make_life_choices, explained_by_generosity,
			explained_by_perceptions_of_corruption, dystopia_plus_residual,
			region
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (country_name, year) DO UPDATE
		SET country_id = EXCLUDED.country_id,
		    ladder_score = EXCLUDED.ladder_score,
		    upper_whisker = EXCLUDED.upper_whisker,
		    lower_whisker = EXCLUDED.lower_whisker,
		    explained_by_log_gdp_per_capita = EXCLUDED.explained_by_log_gdp_per_capita,
		    explained_by_social_support = EXCLUDED.explained_by_social_support,
		    explained_by_healthy_life_expectancy = EXCLUDED.explained_by_healthy_life_expectancy,
		    explained_by_freedom_to_make_life_choices = EXCLUDED.explained_by_freedom_to_make_life_choices,
		    explained_by_generosity = EXCLUDED.explained_by_generosity,
		    explained_by_perceptions_of_corruption = EXCLUDED.explained_by_perceptions_of_corruption,
		    dystopia_plus_residual = EXCLUDED.dystopia_plus_residual,
		    region = EXCLUDED.region
		RETURNING (xmax = 0)`

	var created, updated int
	for _, row := range rows {
		var inserted bool
		err := tx.QueryRow(ctx, query,
			row.CountryName, row.CountryID, row.Year, row.LadderScore,
			row.UpperWhisker, row.LowerWhisker,
			row.ExplainedByLogGDPPerCapita, row.ExplainedBySocialSupport,
			row.ExplainedByHealthyLifeExpectancy, row.ExplainedByFreedomOfLifeChoices,
			row.ExplainedByGenerosity, row.ExplainedByPerceptionsOfCorruption,
			row.DystopiaPlusResidual, row.Region,
		).Scan(&inserted)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert happiness row %s/%d: %w",
				row.CountryName, row.Year, err)
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

func (r *happinessRepository) ListByCountry(ctx context.Context, country *models.Country) ([]models.HappinessData, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s AS rank
		FROM happiness_data h
		WHERE h.country_id = $1
		ORDER BY h.year`, happinessColumns, happinessRank)

	rows, err := r.queryRows(ctx, query, true, country.ID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	// Fallback for rows that never reconciled to a country link.
	query = fmt.Sprintf(`
		SELECT %s, %s AS rank
		FROM happiness_data h
		WHERE h.country_name = $1
		ORDER BY h.year`, happinessColumns, happinessRank)
	return r.queryRows(ctx, query, true, country.Name)
}

func (r *happinessRepository) List(ctx context.Context, filter HappinessFilter) ([]models.HappinessData, error) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Year != 0 {
		conditions = append(conditions, "h.year = "+arg(filter.Year))
	}
	if filter.Region != "" {
		// Live region wins; the stored column covers unreconciled rows.
		conditions = append(conditions,
			"COALESCE(NULLIF(c.region_value, ''), h.region) = "+arg(filter.Region))
	}
	if filter.Country != "" {
		code := strings.ToUpper(strings.TrimSpace(filter.Country))
		conditions = append(conditions,
			fmt.Sprintf("(h.country_id = %s OR h.country_name = %s)",
				arg(code), arg(strings.TrimSpace(filter.Country))))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM happiness_data h
		LEFT JOIN countries c ON c.id = h.country_id`, happinessColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY h.ladder_score DESC, h.year"

	return r.queryRows(ctx, query, false, args...)
}

func (r *happinessRepository) Regional(ctx context.Context, year int) ([]models.RegionalHappiness, error) {
	query := `
		SELECT c.region_value, h.year,
		       AVG(h.ladder_score)::float8, COUNT(*)
		FROM happiness_data h
		JOIN countries c ON c.id = h.country_id
		WHERE c.region_value <> '' AND h.ladder_score IS NOT NULL`
	args := []any{}
	if year != 0 {
		query += ` AND h.year = $1`
		args = append(args, year)
	}
	query += `
		GROUP BY c.region_value, h.year
		ORDER BY h.year, AVG(h.ladder_score) DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query regional happiness: %w", err)
	}
	defer rows.Close()

	var regional []models.RegionalHappiness
	for rows.Next() {
		var agg models.RegionalHappiness
		if err := rows.Scan(&agg.Region, &agg.Year, &agg.AvgLadderScore, &agg.CountryCount); err != nil {
			return nil, fmt.Errorf("failed to scan regional row: %w", err)
		}
		regional = append(regional, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate regional rows: %w", err)
	}
	return regional, nil
}

func (r *happinessRepository) queryRows(ctx context.Context, query string, withRank bool, args ...any) ([]models.HappinessData, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query happiness rows: %w", err)
	}
	defer rows.Close()

	var result []models.HappinessData
	for rows.Next() {
		var h models.HappinessData
		dest := []any{
			&h.ID, &h.CountryName, &h.CountryID, &h.Year,
			&h.LadderScore, &h.UpperWhisker, &h.LowerWhisker,
			&h.ExplainedByLogGDPPerCapita, &h.ExplainedBySocialSupport,
			&h.ExplainedByHealthyLifeExpectancy, &h.ExplainedByFreedomOfLifeChoices,
			&h.ExplainedByGenerosity, &h.ExplainedByPerceptionsOfCorruption,
			&h.DystopiaPlusResidual, &h.Region,
		}
		if withRank {
			dest = append(dest, &h.Rank)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan happiness row: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate happiness rows: %w", err)
	}
	return result, nil
}
