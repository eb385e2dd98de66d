package models

// CountryData is one observation: the value of one indicator for one country
// in one year. The natural key is (CountryID, IndicatorID, Date); upserts
// overwrite, never duplicate. Value is nil when no observation exists; null
// observations are dropped before storage, so stored rows always carry a value,
// but the type keeps the distinction for query results.
type CountryData struct {
	ID              int64    `json:"id"`
	CountryID       string   `json:"country_id"`
	IndicatorID     string   `json:"indicator_id"`
	CountryISO3Code string   `json:"country_iso3_code"`
	Date            string   `json:"date"` // year as string, as delivered upstream
	Value           *float64 `json:"value"`
	Unit            string   `json:"unit"`
	ObsStatus       string   `json:"obs_status"`
	DecimalPlaces   int      `json:"decimal_places"`

	// CountryName is populated by queries that join countries (e.g. the
	// regional snapshot); empty otherwise.
	CountryName string `json:"country_name,omitempty"`
}
