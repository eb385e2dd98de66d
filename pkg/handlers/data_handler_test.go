package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/apperrors"
	"github.com/happydata/happydata-engine/pkg/models"
	"github.com/happydata/happydata-engine/pkg/repositories"
)

func floatPtr(v float64) *float64 { return &v }

// mockDataService implements services.DataService for handler testing.
type mockDataService struct {
	countries  map[string]*models.Country
	indicators map[string]*models.Indicator
	series     []models.CountryData
	happiness  []models.HappinessData
	regional   []models.RegionalHappiness
	snapshot   []models.CountryData
	runs       []models.IngestionRun

	lastFilter repositories.HappinessFilter
}

func newMockDataService() *mockDataService {
	return &mockDataService{
		countries: map[string]*models.Country{
			"DE": {ID: "DEU", ISO2Code: "DE", Name: "Germany", RegionValue: "Europe & Central Asia"},
		},
		indicators: map[string]*models.Indicator{
			"NY.GDP.PCAP.CD": {ID: "NY.GDP.PCAP.CD", Name: "GDP per capita"},
		},
	}
}

func (m *mockDataService) Country(_ context.Context, code string) (*models.Country, error) {
	for _, c := range m.countries {
		if c.ID == code || c.ISO2Code == code {
			return c, nil
		}
	}
	return nil, apperrors.ErrCountryNotFound
}

func (m *mockDataService) Countries(_ context.Context, region string) ([]models.Country, error) {
	var result []models.Country
	for _, c := range m.countries {
		if region == "" || c.RegionValue == region {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockDataService) Indicator(_ context.Context, id string) (*models.Indicator, error) {
	if ind, ok := m.indicators[id]; ok {
		return ind, nil
	}
	return nil, apperrors.ErrIndicatorNotFound
}

func (m *mockDataService) Indicators(_ context.Context) ([]models.Indicator, error) {
	var result []models.Indicator
	for _, ind := range m.indicators {
		result = append(result, *ind)
	}
	return result, nil
}

func (m *mockDataService) Series(ctx context.Context, countryCode, indicatorID string) (*models.Country, *models.Indicator, []models.CountryData, error) {
	country, err := m.Country(ctx, countryCode)
	if err != nil {
		return nil, nil, nil, err
	}
	indicator, err := m.Indicator(ctx, indicatorID)
	if err != nil {
		return nil, nil, nil, err
	}
	return country, indicator, m.series, nil
}

func (m *mockDataService) CountryHappiness(ctx context.Context, countryCode string) (*models.Country, []models.HappinessData, error) {
	country, err := m.Country(ctx, countryCode)
	if err != nil {
		return nil, nil, err
	}
	return country, m.happiness, nil
}

func (m *mockDataService) Happiness(_ context.Context, filter repositories.HappinessFilter) ([]models.HappinessData, error) {
	m.lastFilter = filter
	return m.happiness, nil
}

func (m *mockDataService) RegionalHappiness(_ context.Context, year int) ([]models.RegionalHappiness, error) {
	return m.regional, nil
}

func (m *mockDataService) RegionalSnapshot(ctx context.Context, region, indicatorID string, year int) ([]models.CountryData, error) {
	if _, err := m.Indicator(ctx, indicatorID); err != nil {
		return nil, err
	}
	return m.snapshot, nil
}

func (m *mockDataService) Runs(_ context.Context, limit int) ([]models.IngestionRun, error) {
	return m.runs, nil
}

func setupDataHandler(svc *mockDataService) *http.ServeMux {
	mux := http.NewServeMux()
	NewDataHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func doGet(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGetCountry(t *testing.T) {
	mux := setupDataHandler(newMockDataService())

	rec := doGet(t, mux, "/api/v1/countries/DE")
	require.Equal(t, http.StatusOK, rec.Code)

	var country models.Country
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &country))
	assert.Equal(t, "Germany", country.Name)
}

func TestGetCountry_NotFound(t *testing.T) {
	mux := setupDataHandler(newMockDataService())

	rec := doGet(t, mux, "/api/v1/countries/ZZ")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "country_not_found", body["error"])
}

func TestGetSeries(t *testing.T) {
	svc := newMockDataService()
	svc.series = []models.CountryData{
		{CountryID: "DEU", IndicatorID: "NY.GDP.PCAP.CD", Date: "2022", Value: floatPtr(48717.99)},
	}
	mux := setupDataHandler(svc)

	rec := doGet(t, mux, "/api/v1/countries/DE/indicators/NY.GDP.PCAP.CD")
	require.Equal(t, http.StatusOK, rec.Code)

	var series []models.CountryData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series, 1)
	assert.Equal(t, "2022", series[0].Date)
}

func TestGetSeries_NotFoundDistinguishesCause(t *testing.T) {
	mux := setupDataHandler(newMockDataService())

	rec := doGet(t, mux, "/api/v1/countries/ZZ/indicators/NY.GDP.PCAP.CD")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "country_not_found", body["error"])

	rec = doGet(t, mux, "/api/v1/countries/DE/indicators/NO.SUCH.CODE")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "indicator_not_found", body["error"])
}

func TestGetSeries_EmptyIsExplanatory200(t *testing.T) {
	mux := setupDataHandler(newMockDataService())

	rec := doGet(t, mux, "/api/v1/countries/DE/indicators/NY.GDP.PCAP.CD")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "no data available")
	assert.Equal(t, "Germany", body["country"])
	assert.Equal(t, "GDP per capita", body["indicator"])
}

func TestListHappiness_Filters(t *testing.T) {
	svc := newMockDataService()
	svc.happiness = []models.HappinessData{{CountryName: "Germany", Year: 2023}}
	mux := setupDataHandler(svc)

	rec := doGet(t, mux, "/api/v1/happiness?year=2023&region=Europe+%26+Central+Asia&country=DE")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2023, svc.lastFilter.Year)
	assert.Equal(t, "Europe & Central Asia", svc.lastFilter.Region)
	assert.Equal(t, "DE", svc.lastFilter.Country)
}

func TestListHappiness_InvalidYear(t *testing.T) {
	mux := setupDataHandler(newMockDataService())

	rec := doGet(t, mux, "/api/v1/happiness?year=twenty")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRegionalHappiness(t *testing.T) {
	svc := newMockDataService()
	svc.regional = []models.RegionalHappiness{
		{Region: "Europe & Central Asia", Year: 2023, AvgLadderScore: 6.4, CountryCount: 38},
	}
	mux := setupDataHandler(svc)

	rec := doGet(t, mux, "/api/v1/happiness/regional?year=2023")
	require.Equal(t, http.StatusOK, rec.Code)

	var regional []models.RegionalHappiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regional))
	require.Len(t, regional, 1)
	assert.Equal(t, 38, regional[0].CountryCount)
}

func TestGetRegionalSnapshot(t *testing.T) {
	svc := newMockDataService()
	svc.snapshot = []models.CountryData{
		{CountryID: "DEU", CountryName: "Germany", Date: "2022", Value: floatPtr(48717.99)},
	}
	mux := setupDataHandler(svc)

	rec := doGet(t, mux, "/api/v1/regions/Europe%20%26%20Central%20Asia/indicators/NY.GDP.PCAP.CD/2022")
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot []models.CountryData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Germany", snapshot[0].CountryName)
}

func TestGetRegionalSnapshot_BadYear(t *testing.T) {
	mux := setupDataHandler(newMockDataService())

	rec := doGet(t, mux, "/api/v1/regions/Europe/indicators/NY.GDP.PCAP.CD/latest")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRuns(t *testing.T) {
	svc := newMockDataService()
	svc.runs = []models.IngestionRun{{Kind: models.RunKindCountries, Created: 190}}
	mux := setupDataHandler(svc)

	rec := doGet(t, mux, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []models.IngestionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 190, runs[0].Created)
}
