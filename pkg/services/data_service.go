package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/models"
	"github.com/happydata/happydata-engine/pkg/repositories"
)

// DataService is the read side over the persisted datasets. Lookups return
// apperrors sentinels for unknown countries and indicators so handlers can
// distinguish which part of a compound key was wrong.
type DataService interface {
	// Country resolves one country by its code or ISO2 code.
	Country(ctx context.Context, code string) (*models.Country, error)

	// Countries lists countries, optionally filtered to one region.
	Countries(ctx context.Context, region string) ([]models.Country, error)

	// Indicator returns one tracked indicator's metadata.
	Indicator(ctx context.Context, id string) (*models.Indicator, error)

	// Indicators lists all stored indicators.
	Indicators(ctx context.Context) ([]models.Indicator, error)

	// Series returns the stored time series for one (country, indicator)
	// pair along with both resolved entities. The series may be empty; that
	// is a valid result, not an error.
	Series(ctx context.Context, countryCode, indicatorID string) (*models.Country, *models.Indicator, []models.CountryData, error)

	// CountryHappiness returns a country's happiness rows across years with
	// per-year rank.
	CountryHappiness(ctx context.Context, countryCode string) (*models.Country, []models.HappinessData, error)

	// Happiness lists happiness rows matching the filter.
	Happiness(ctx context.Context, filter repositories.HappinessFilter) ([]models.HappinessData, error)

	// RegionalHappiness returns average ladder scores per (region, year).
	RegionalHappiness(ctx context.Context, year int) ([]models.RegionalHappiness, error)

	// RegionalSnapshot returns every country in a region ranked by one
	// indicator's value for one year.
	RegionalSnapshot(ctx context.Context, region, indicatorID string, year int) ([]models.CountryData, error)

	// Runs lists recent ingestion runs, newest first.
	Runs(ctx context.Context, limit int) ([]models.IngestionRun, error)
}

// dataService implements DataService over the repositories.
type dataService struct {
	countries  repositories.CountryRepository
	indicators repositories.IndicatorRepository
	data       repositories.CountryDataRepository
	happiness  repositories.HappinessRepository
	runs       repositories.IngestionRunRepository
	logger     *zap.Logger
}

// NewDataService creates the read-side service.
func NewDataService(
	countries repositories.CountryRepository,
	indicators repositories.IndicatorRepository,
	data repositories.CountryDataRepository,
	happiness repositories.HappinessRepository,
	runs repositories.IngestionRunRepository,
	logger *zap.Logger,
) DataService {
	return &dataService{
		countries:  countries,
		indicators: indicators,
		data:       data,
		happiness:  happiness,
		runs:       runs,
		logger:     logger.Named("data"),
	}
}

func (s *dataService) Country(ctx context.Context, code string) (*models.Country, error) {
	return s.countries.GetByCode(ctx, code)
}

func (s *dataService) Countries(ctx context.Context, region string) ([]models.Country, error) {
	return s.countries.List(ctx, region)
}

func (s *dataService) Indicator(ctx context.Context, id string) (*models.Indicator, error) {
	return s.indicators.Get(ctx, id)
}

func (s *dataService) Indicators(ctx context.Context) ([]models.Indicator, error) {
	return s.indicators.List(ctx)
}

func (s *dataService) Series(ctx context.Context, countryCode, indicatorID string) (*models.Country, *models.Indicator, []models.CountryData, error) {
	country, err := s.countries.GetByCode(ctx, countryCode)
	if err != nil {
		return nil, nil, nil, err
	}
	indicator, err := s.indicators.Get(ctx, indicatorID)
	if err != nil {
		return nil, nil, nil, err
	}

	series, err := s.data.Series(ctx, country.ID, indicator.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load series: %w", err)
	}
	return country, indicator, series, nil
}

func (s *dataService) CountryHappiness(ctx context.Context, countryCode string) (*models.Country, []models.HappinessData, error) {
	country, err := s.countries.GetByCode(ctx, countryCode)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.happiness.ListByCountry(ctx, country)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load happiness rows: %w", err)
	}
	return country, rows, nil
}

func (s *dataService) Happiness(ctx context.Context, filter repositories.HappinessFilter) ([]models.HappinessData, error) {
	return s.happiness.List(ctx, filter)
}

func (s *dataService) RegionalHappiness(ctx context.Context, year int) ([]models.RegionalHappiness, error) {
	return s.happiness.Regional(ctx, year)
}

func (s *dataService) RegionalSnapshot(ctx context.Context, region, indicatorID string, year int) ([]models.CountryData, error) {
	// Validate the indicator so a typo'd code reads as not-found rather than
	// an empty snapshot.
	if _, err := s.indicators.Get(ctx, indicatorID); err != nil {
		return nil, err
	}
	return s.data.RegionalSnapshot(ctx, region, indicatorID, year)
}

func (s *dataService) Runs(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	return s.runs.Recent(ctx, limit)
}
