package models

import "time"

// Indicator is a World Bank statistical measure keyed by its dotted code
// (e.g. "NY.GDP.PCAP.CD"). The set of tracked indicators is a fixed curated
// list, not the full upstream catalog.
type Indicator struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Unit               string `json:"unit"`
	SourceID           string `json:"source_id"`
	SourceValue        string `json:"source_value"`
	SourceNote         string `json:"source_note"`
	SourceOrganization string `json:"source_organization"`

	UpdatedAt time.Time `json:"updated_at"`
}
