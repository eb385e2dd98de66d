// Package models contains domain types for happydata-engine.
package models

import "time"

// Country is a World Bank country keyed by its short stable code (e.g. "DE").
// The classification dimensions (region, admin region, income level, lending
// type) are (code, value) pairs that may both be empty when unclassified.
type Country struct {
	ID               string   `json:"id"`
	ISO2Code         string   `json:"iso2_code"`
	Name             string   `json:"name"`
	CapitalCity      string   `json:"capital_city"`
	Longitude        *float64 `json:"longitude"`
	Latitude         *float64 `json:"latitude"`
	RegionID         string   `json:"region_id"`
	RegionValue      string   `json:"region_value"`
	AdminRegionID    string   `json:"admin_region_id"`
	AdminRegionValue string   `json:"admin_region_value"`
	IncomeLevelID    string   `json:"income_level_id"`
	IncomeLevelValue string   `json:"income_level_value"`
	LendingTypeID    string   `json:"lending_type_id"`
	LendingTypeValue string   `json:"lending_type_value"`

	UpdatedAt time.Time `json:"updated_at"`
}
