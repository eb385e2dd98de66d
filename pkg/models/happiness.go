package models

// HappinessData is a per-country-per-year World Happiness Report result.
// The natural key is (CountryName, Year), the raw spelling from the source
// spreadsheet, not the World Bank code, because many source rows cannot be
// reconciled. CountryID is nil for unmatched rows; the record is persisted
// and queryable either way.
//
// All score fields are nil when the source did not report them. A ladder
// score of exactly zero is a not-reported sentinel in the source data and is
// normalized to nil during ingestion.
type HappinessData struct {
	ID          int64   `json:"id"`
	CountryName string  `json:"country_name"`
	CountryID   *string `json:"country_id"`
	Year        int     `json:"year"`

	LadderScore  *float64 `json:"ladder_score"`
	UpperWhisker *float64 `json:"upper_whisker"`
	LowerWhisker *float64 `json:"lower_whisker"`

	ExplainedByLogGDPPerCapita         *float64 `json:"explained_by_log_gdp_per_capita"`
	ExplainedBySocialSupport           *float64 `json:"explained_by_social_support"`
	ExplainedByHealthyLifeExpectancy   *float64 `json:"explained_by_healthy_life_expectancy"`
	ExplainedByFreedomOfLifeChoices    *float64 `json:"explained_by_freedom_to_make_life_choices"`
	ExplainedByGenerosity              *float64 `json:"explained_by_generosity"`
	ExplainedByPerceptionsOfCorruption *float64 `json:"explained_by_perceptions_of_corruption"`
	DystopiaPlusResidual               *float64 `json:"dystopia_plus_residual"`

	// Rank is the competition rank among all rows of the same year (1 plus
	// the count of strictly higher ladder scores; ties share a rank). It is
	// computed at query time by lookups that request it and is zero elsewhere.
	Rank int `json:"happiness_rank,omitempty"`

	// Region is a write-time denormalization copied from the matched country
	// when no explicit region was supplied. It is not kept in sync afterward;
	// aggregations derive the region from the live country join instead and
	// treat this field as a fallback.
	Region string `json:"region"`
}

// RegionalHappiness is an aggregation row: average ladder score and matched
// country count for one (region, year). Regions with zero matched rows are
// never emitted.
type RegionalHappiness struct {
	Region         string  `json:"region"`
	Year           int     `json:"year"`
	AvgLadderScore float64 `json:"avg_ladder_score"`
	CountryCount   int     `json:"country_count"`
}
