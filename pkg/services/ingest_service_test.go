package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/happydata/happydata-engine/pkg/models"
	"github.com/happydata/happydata-engine/pkg/workerpool"
	"github.com/happydata/happydata-engine/pkg/worldbank"
)

func floatPtr(v float64) *float64 { return &v }

type ingestFixture struct {
	wb         *mockWorldBank
	parser     *mockParser
	countries  *mockCountryRepo
	indicators *mockIndicatorRepo
	data       *mockCountryDataRepo
	happiness  *mockHappinessRepo
	runs       *mockRunRepo
	service    IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		wb: &mockWorldBank{
			indicators:   make(map[string]*models.Indicator),
			observations: make(map[string][]models.CountryData),
		},
		parser:     &mockParser{},
		countries:  newMockCountryRepo(),
		indicators: newMockIndicatorRepo(),
		data:       newMockCountryDataRepo(),
		happiness:  newMockHappinessRepo(),
		runs:       &mockRunRepo{},
	}
	f.service = NewIngestService(
		f.wb, f.parser, f.countries, f.indicators, f.data, f.happiness, f.runs,
		workerpool.New(workerpool.Config{MaxConcurrent: 4}, zap.NewNop()),
		zap.NewNop(),
	)
	return f
}

func TestRefreshCountries(t *testing.T) {
	f := newIngestFixture(t)
	f.wb.countries = []models.Country{
		{ID: "DEU", ISO2Code: "DE", Name: "Germany"},
		{ID: "FIN", ISO2Code: "FI", Name: "Finland"},
	}

	run, err := f.service.RefreshCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunKindCountries, run.Kind)
	assert.Equal(t, 2, run.Created)
	assert.Equal(t, 0, run.Updated)
	require.NotNil(t, run.FinishedAt)

	// Rerunning the same batch converges: nothing created twice.
	run, err = f.service.RefreshCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, run.Created)
	assert.Equal(t, 2, run.Updated)

	assert.Len(t, f.runs.runs, 2)
}

func TestRefreshCountries_EmptyFetch(t *testing.T) {
	f := newIngestFixture(t)

	run, err := f.service.RefreshCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, run.Created)
	assert.Contains(t, run.Note, "no records")
	assert.Empty(t, f.countries.countries)
}

func TestRefreshIndicators(t *testing.T) {
	f := newIngestFixture(t)
	// Only two of the tracked codes resolve upstream; the rest are skipped.
	f.wb.indicators["NY.GDP.PCAP.CD"] = &models.Indicator{ID: "NY.GDP.PCAP.CD", Name: "GDP per capita"}
	f.wb.indicators["SI.POV.GINI"] = &models.Indicator{ID: "SI.POV.GINI", Name: "Gini index"}

	run, err := f.service.RefreshIndicators(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunKindIndicators, run.Kind)
	assert.Equal(t, 2, run.Created)
	assert.Len(t, f.indicators.indicators, 2)
}

func TestRefreshIndicators_CoversTrackedList(t *testing.T) {
	f := newIngestFixture(t)
	for _, code := range worldbank.TrackedIndicators {
		f.wb.indicators[code] = &models.Indicator{ID: code, Name: code}
	}

	run, err := f.service.RefreshIndicators(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(worldbank.TrackedIndicators), run.Created)
}

func TestRefreshObservations(t *testing.T) {
	f := newIngestFixture(t)
	f.countries.countries["DEU"] = models.Country{ID: "DEU", ISO2Code: "DE"}
	f.countries.countries["FIN"] = models.Country{ID: "FIN", ISO2Code: "FI"}
	f.indicators.indicators["A"] = models.Indicator{ID: "A"}
	f.indicators.indicators["B"] = models.Indicator{ID: "B"}

	for _, country := range []string{"DEU", "FIN"} {
		for _, indicator := range []string{"A", "B"} {
			f.wb.observations[country+"/"+indicator] = []models.CountryData{
				{CountryID: country, IndicatorID: indicator, Date: "2022", Value: floatPtr(1.5)},
				{CountryID: country, IndicatorID: indicator, Date: "2021", Value: floatPtr(1.2)},
			}
		}
	}

	run, err := f.service.RefreshObservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunKindObservations, run.Kind)
	assert.Equal(t, 8, run.Created)
	assert.Equal(t, 0, run.Updated)
	assert.Empty(t, run.Note)

	// Rerun overwrites in place.
	run, err = f.service.RefreshObservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, run.Created)
	assert.Equal(t, 8, run.Updated)
}

func TestRefreshObservations_FailedPairContinues(t *testing.T) {
	f := newIngestFixture(t)
	f.countries.countries["DEU"] = models.Country{ID: "DEU"}
	f.countries.countries["FIN"] = models.Country{ID: "FIN"}
	f.indicators.indicators["A"] = models.Indicator{ID: "A"}
	f.data.failPair = "DEU/A"

	for _, country := range []string{"DEU", "FIN"} {
		f.wb.observations[country+"/A"] = []models.CountryData{
			{CountryID: country, IndicatorID: "A", Date: "2022", Value: floatPtr(2.0)},
		}
	}

	run, err := f.service.RefreshObservations(context.Background())
	require.NoError(t, err, "one failed pair must not fail the batch")
	assert.Equal(t, 1, run.Created)
	assert.Contains(t, run.Note, "1 of 2 pairs failed")
}

func TestRefreshObservations_RequiresCatalogs(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.service.RefreshObservations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog")
}

func TestIngestHappiness(t *testing.T) {
	f := newIngestFixture(t)
	f.countries.countries["FIN"] = models.Country{
		ID: "FIN", ISO2Code: "FI", Name: "Finland",
		RegionValue: "Europe & Central Asia",
	}
	f.parser.records = []models.HappinessData{
		{CountryName: "Finland", Year: 2024, LadderScore: floatPtr(7.741)},
		{CountryName: "Atlantis", Year: 2024, LadderScore: floatPtr(6.0)},
	}

	run, unmatched, err := f.service.IngestHappiness(context.Background(), "whr.xlsx")
	require.NoError(t, err)
	assert.Equal(t, models.RunKindHappiness, run.Kind)
	assert.Equal(t, 2, run.Created)
	assert.Equal(t, 1, run.Unmatched)
	assert.Equal(t, []string{"Atlantis"}, unmatched)

	// The matched row carries the country link and inherited region; the
	// unmatched row is persisted regardless.
	fi := f.happiness.stored["Finland/2024"]
	require.NotNil(t, fi.CountryID)
	assert.Equal(t, "FIN", *fi.CountryID)
	assert.Equal(t, "Europe & Central Asia", fi.Region)

	at := f.happiness.stored["Atlantis/2024"]
	assert.Nil(t, at.CountryID)
}

func TestIngestHappiness_MappedButNotStored(t *testing.T) {
	f := newIngestFixture(t)
	// Kosovo maps to a code, but no such country is stored: the name must
	// still land in the unmatched set and the row must persist unlinked.
	f.parser.records = []models.HappinessData{
		{CountryName: "Kosovo", Year: 2023, LadderScore: floatPtr(6.561)},
	}

	run, unmatched, err := f.service.IngestHappiness(context.Background(), "whr.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, []string{"Kosovo"}, unmatched)
	assert.Nil(t, f.happiness.stored["Kosovo/2023"].CountryID)
}

func TestIngestHappiness_EmptyWorkbook(t *testing.T) {
	f := newIngestFixture(t)

	run, unmatched, err := f.service.IngestHappiness(context.Background(), "missing.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 0, run.Created)
	assert.Contains(t, run.Note, "no records")
	assert.Empty(t, unmatched)
}

func TestRecordRunFailureDoesNotFailBatch(t *testing.T) {
	f := newIngestFixture(t)
	f.runs.recordErr = assert.AnError
	f.wb.countries = []models.Country{{ID: "DEU", Name: "Germany"}}

	run, err := f.service.RefreshCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, run.Created)
}
