package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/apperrors"
	"github.com/happydata/happydata-engine/pkg/models"
)

type dataFixture struct {
	countries  *mockCountryRepo
	indicators *mockIndicatorRepo
	data       *mockCountryDataRepo
	happiness  *mockHappinessRepo
	runs       *mockRunRepo
	service    DataService
}

func newDataFixture(t *testing.T) *dataFixture {
	t.Helper()
	f := &dataFixture{
		countries: newMockCountryRepo(models.Country{
			ID: "DEU", ISO2Code: "DE", Name: "Germany",
			RegionValue: "Europe & Central Asia",
		}),
		indicators: newMockIndicatorRepo(models.Indicator{
			ID: "NY.GDP.PCAP.CD", Name: "GDP per capita",
		}),
		data:      newMockCountryDataRepo(),
		happiness: newMockHappinessRepo(),
		runs:      &mockRunRepo{},
	}
	f.service = NewDataService(
		f.countries, f.indicators, f.data, f.happiness, f.runs, zap.NewNop())
	return f
}

func TestDataService_Country(t *testing.T) {
	f := newDataFixture(t)

	// Both the primary and the ISO2 code resolve, case-insensitively.
	for _, code := range []string{"DEU", "DE", "de", " deu "} {
		country, err := f.service.Country(context.Background(), code)
		require.NoError(t, err, "code %q", code)
		assert.Equal(t, "Germany", country.Name)
	}

	_, err := f.service.Country(context.Background(), "ZZ")
	assert.ErrorIs(t, err, apperrors.ErrCountryNotFound)
}

func TestDataService_Series(t *testing.T) {
	f := newDataFixture(t)
	f.data.stored["DEU/NY.GDP.PCAP.CD/2022"] = models.CountryData{
		CountryID: "DEU", IndicatorID: "NY.GDP.PCAP.CD", Date: "2022", Value: floatPtr(48717.99),
	}

	country, indicator, series, err := f.service.Series(context.Background(), "de", "NY.GDP.PCAP.CD")
	require.NoError(t, err)
	assert.Equal(t, "DEU", country.ID)
	assert.Equal(t, "GDP per capita", indicator.Name)
	require.Len(t, series, 1)
}

func TestDataService_SeriesNotFound(t *testing.T) {
	f := newDataFixture(t)

	// Unknown country and unknown indicator are distinguishable failures.
	_, _, _, err := f.service.Series(context.Background(), "ZZ", "NY.GDP.PCAP.CD")
	assert.ErrorIs(t, err, apperrors.ErrCountryNotFound)

	_, _, _, err = f.service.Series(context.Background(), "DE", "NO.SUCH.CODE")
	assert.ErrorIs(t, err, apperrors.ErrIndicatorNotFound)
}

func TestDataService_SeriesEmptyIsNotAnError(t *testing.T) {
	f := newDataFixture(t)

	_, _, series, err := f.service.Series(context.Background(), "DE", "NY.GDP.PCAP.CD")
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestDataService_CountryHappiness(t *testing.T) {
	f := newDataFixture(t)
	f.happiness.byCountry = []models.HappinessData{
		{CountryName: "Germany", Year: 2023, LadderScore: floatPtr(6.892), Rank: 24},
	}

	country, rows, err := f.service.CountryHappiness(context.Background(), "DE")
	require.NoError(t, err)
	assert.Equal(t, "DEU", country.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, 24, rows[0].Rank)

	_, _, err = f.service.CountryHappiness(context.Background(), "ZZ")
	assert.ErrorIs(t, err, apperrors.ErrCountryNotFound)
}

func TestDataService_RegionalSnapshotValidatesIndicator(t *testing.T) {
	f := newDataFixture(t)
	f.data.snapshot = []models.CountryData{
		{CountryID: "DEU", CountryName: "Germany", Date: "2022", Value: floatPtr(48717.99)},
	}

	snapshot, err := f.service.RegionalSnapshot(context.Background(),
		"Europe & Central Asia", "NY.GDP.PCAP.CD", 2022)
	require.NoError(t, err)
	assert.Len(t, snapshot, 1)

	_, err = f.service.RegionalSnapshot(context.Background(),
		"Europe & Central Asia", "NO.SUCH.CODE", 2022)
	assert.ErrorIs(t, err, apperrors.ErrIndicatorNotFound)
}
