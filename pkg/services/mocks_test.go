package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/happydata/happydata-engine/pkg/apperrors"
	"github.com/happydata/happydata-engine/pkg/models"
	"github.com/happydata/happydata-engine/pkg/repositories"
)

type mockCountryRepo struct {
	mu        sync.Mutex
	countries map[string]models.Country
	upsertErr error
	listErr   error
}

func newMockCountryRepo(seed ...models.Country) *mockCountryRepo {
	m := &mockCountryRepo{countries: make(map[string]models.Country)}
	for _, c := range seed {
		m.countries[c.ID] = c
	}
	return m
}

func (m *mockCountryRepo) UpsertAll(ctx context.Context, countries []models.Country) (int, int, error) {
	if m.upsertErr != nil {
		return 0, 0, m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var created, updated int
	for _, c := range countries {
		if _, exists := m.countries[c.ID]; exists {
			updated++
		} else {
			created++
		}
		m.countries[c.ID] = c
	}
	return created, updated, nil
}

func (m *mockCountryRepo) GetByCode(ctx context.Context, code string) (*models.Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range m.countries {
		if c.ID == code || c.ISO2Code == code {
			found := c
			return &found, nil
		}
	}
	return nil, apperrors.ErrCountryNotFound
}

func (m *mockCountryRepo) List(ctx context.Context, region string) ([]models.Country, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Country
	for _, c := range m.countries {
		if region == "" || c.RegionValue == region {
			result = append(result, c)
		}
	}
	return result, nil
}

type mockIndicatorRepo struct {
	mu         sync.Mutex
	indicators map[string]models.Indicator
	upsertErr  error
}

func newMockIndicatorRepo(seed ...models.Indicator) *mockIndicatorRepo {
	m := &mockIndicatorRepo{indicators: make(map[string]models.Indicator)}
	for _, ind := range seed {
		m.indicators[ind.ID] = ind
	}
	return m
}

func (m *mockIndicatorRepo) UpsertAll(ctx context.Context, indicators []models.Indicator) (int, int, error) {
	if m.upsertErr != nil {
		return 0, 0, m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var created, updated int
	for _, ind := range indicators {
		if _, exists := m.indicators[ind.ID]; exists {
			updated++
		} else {
			created++
		}
		m.indicators[ind.ID] = ind
	}
	return created, updated, nil
}

func (m *mockIndicatorRepo) Get(ctx context.Context, id string) (*models.Indicator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ind, ok := m.indicators[id]; ok {
		return &ind, nil
	}
	return nil, apperrors.ErrIndicatorNotFound
}

func (m *mockIndicatorRepo) List(ctx context.Context) ([]models.Indicator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Indicator
	for _, ind := range m.indicators {
		result = append(result, ind)
	}
	return result, nil
}

type mockCountryDataRepo struct {
	mu       sync.Mutex
	stored   map[string]models.CountryData // keyed country/indicator/date
	failPair string                        // country/indicator pair that errors on upsert
	snapshot []models.CountryData
}

func newMockCountryDataRepo() *mockCountryDataRepo {
	return &mockCountryDataRepo{stored: make(map[string]models.CountryData)}
}

func (m *mockCountryDataRepo) UpsertSeries(ctx context.Context, observations []models.CountryData) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var created, updated int
	for _, obs := range observations {
		if m.failPair != "" && obs.CountryID+"/"+obs.IndicatorID == m.failPair {
			return 0, 0, errors.New("storage write failed")
		}
		key := obs.CountryID + "/" + obs.IndicatorID + "/" + obs.Date
		if _, exists := m.stored[key]; exists {
			updated++
		} else {
			created++
		}
		m.stored[key] = obs
	}
	return created, updated, nil
}

func (m *mockCountryDataRepo) Series(ctx context.Context, countryID, indicatorID string) ([]models.CountryData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.CountryData
	for _, obs := range m.stored {
		if obs.CountryID == countryID && obs.IndicatorID == indicatorID {
			result = append(result, obs)
		}
	}
	return result, nil
}

func (m *mockCountryDataRepo) RegionalSnapshot(ctx context.Context, region, indicatorID string, year int) ([]models.CountryData, error) {
	return m.snapshot, nil
}

type mockHappinessRepo struct {
	mu        sync.Mutex
	stored    map[string]models.HappinessData // keyed name/year
	byCountry []models.HappinessData
	listed    []models.HappinessData
	regional  []models.RegionalHappiness
}

func newMockHappinessRepo() *mockHappinessRepo {
	return &mockHappinessRepo{stored: make(map[string]models.HappinessData)}
}

func (m *mockHappinessRepo) UpsertAll(ctx context.Context, rows []models.HappinessData) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var created, updated int
	for _, row := range rows {
		key := fmt.Sprintf("%s/%d", row.CountryName, row.Year)
		if _, exists := m.stored[key]; exists {
			updated++
		} else {
			created++
		}
		m.stored[key] = row
	}
	return created, updated, nil
}

func (m *mockHappinessRepo) ListByCountry(ctx context.Context, country *models.Country) ([]models.HappinessData, error) {
	return m.byCountry, nil
}

func (m *mockHappinessRepo) List(ctx context.Context, filter repositories.HappinessFilter) ([]models.HappinessData, error) {
	return m.listed, nil
}

func (m *mockHappinessRepo) Regional(ctx context.Context, year int) ([]models.RegionalHappiness, error) {
	return m.regional, nil
}

type mockRunRepo struct {
	mu        sync.Mutex
	runs      []models.IngestionRun
	recordErr error
}

func (m *mockRunRepo) Record(ctx context.Context, run *models.IngestionRun) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockRunRepo) Recent(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return m.runs[len(m.runs)-limit:], nil
}

type mockWorldBank struct {
	countries    []models.Country
	indicators   map[string]*models.Indicator
	observations map[string][]models.CountryData // keyed country/indicator
}

func (m *mockWorldBank) Countries(ctx context.Context) []models.Country {
	return m.countries
}

func (m *mockWorldBank) Indicator(ctx context.Context, indicatorID string) *models.Indicator {
	return m.indicators[indicatorID]
}

func (m *mockWorldBank) Observations(ctx context.Context, countryID, indicatorID string) []models.CountryData {
	return m.observations[countryID+"/"+indicatorID]
}

type mockParser struct {
	records []models.HappinessData
}

func (m *mockParser) ParseFile(path string) []models.HappinessData {
	return m.records
}
