package worldbank

import (
	"encoding/json"
	"strings"

	"github.com/happydata/happydata-engine/pkg/jsonutil"
	"github.com/happydata/happydata-engine/pkg/models"
)

// aggregateRegionValue tags pseudo-countries (regional and income aggregates)
// in the upstream catalog. Those entries are filtered out before storage.
const aggregateRegionValue = "Aggregates"

// wireRef is the (id, value) pair the upstream API uses for classifications
// and back-references.
type wireRef struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

func (r *wireRef) id() string {
	if r == nil {
		return ""
	}
	return r.ID
}

func (r *wireRef) value() string {
	if r == nil {
		return ""
	}
	return r.Value
}

// wireCountry mirrors one record of the /country response. Coordinates are
// quoted decimal strings upstream and are parsed defensively.
type wireCountry struct {
	ID          string          `json:"id"`
	ISO2Code    string          `json:"iso2Code"`
	Name        string          `json:"name"`
	CapitalCity string          `json:"capitalCity"`
	Longitude   json.RawMessage `json:"longitude"`
	Latitude    json.RawMessage `json:"latitude"`
	Region      *wireRef        `json:"region"`
	AdminRegion *wireRef        `json:"adminregion"`
	IncomeLevel *wireRef        `json:"incomeLevel"`
	LendingType *wireRef        `json:"lendingType"`
}

func (w *wireCountry) isAggregate() bool {
	return w.Region.value() == aggregateRegionValue
}

func (w *wireCountry) toModel() models.Country {
	return models.Country{
		ID:               w.ID,
		ISO2Code:         w.ISO2Code,
		Name:             w.Name,
		CapitalCity:      w.CapitalCity,
		Longitude:        jsonutil.FlexibleFloatValue(w.Longitude),
		Latitude:         jsonutil.FlexibleFloatValue(w.Latitude),
		RegionID:         w.Region.id(),
		RegionValue:      w.Region.value(),
		AdminRegionID:    w.AdminRegion.id(),
		AdminRegionValue: w.AdminRegion.value(),
		IncomeLevelID:    w.IncomeLevel.id(),
		IncomeLevelValue: w.IncomeLevel.value(),
		LendingTypeID:    w.LendingType.id(),
		LendingTypeValue: w.LendingType.value(),
	}
}

// wireIndicator mirrors one record of the /indicator/{id} response.
type wireIndicator struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Unit               string   `json:"unit"`
	Source             *wireRef `json:"source"`
	SourceNote         string   `json:"sourceNote"`
	SourceOrganization string   `json:"sourceOrganization"`
}

func (w *wireIndicator) toModel() models.Indicator {
	return models.Indicator{
		ID:                 w.ID,
		Name:               w.Name,
		Unit:               w.Unit,
		SourceID:           w.Source.id(),
		SourceValue:        w.Source.value(),
		SourceNote:         w.SourceNote,
		SourceOrganization: w.SourceOrganization,
	}
}

// wireObservation mirrors one record of the time-series response. Value is
// null for years without an observation; date and decimal occasionally arrive
// as bare numbers instead of strings.
type wireObservation struct {
	Indicator       *wireRef        `json:"indicator"`
	Country         *wireRef        `json:"country"`
	CountryISO3Code string          `json:"countryiso3code"`
	Date            json.RawMessage `json:"date"`
	Value           json.RawMessage `json:"value"`
	Unit            string          `json:"unit"`
	ObsStatus       string          `json:"obs_status"`
	Decimal         json.RawMessage `json:"decimal"`
}

func (w *wireObservation) toModel() models.CountryData {
	return models.CountryData{
		CountryID:       w.Country.id(),
		IndicatorID:     w.Indicator.id(),
		CountryISO3Code: w.CountryISO3Code,
		Date:            jsonutil.FlexibleStringValue(w.Date),
		Value:           jsonutil.FlexibleFloatValue(w.Value),
		Unit:            w.Unit,
		ObsStatus:       w.ObsStatus,
		DecimalPlaces:   jsonutil.FlexibleIntValue(w.Decimal),
	}
}

// decodeEnvelope splits the upstream 2-element response envelope
// [metadata, records] and returns the raw record list. A short envelope or an
// empty/absent record list means "no data", not an error; the upstream API
// uses both shapes for empty result sets.
func decodeEnvelope(body []byte) ([]json.RawMessage, bool) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false
	}
	if len(envelope) < 2 {
		return nil, true // valid response, no records element
	}

	recordsRaw := strings.TrimSpace(string(envelope[1]))
	if recordsRaw == "" || recordsRaw == "null" {
		return nil, true
	}

	var records []json.RawMessage
	if err := json.Unmarshal(envelope[1], &records); err != nil {
		return nil, false
	}
	return records, true
}
