package models

import (
	"time"

	"github.com/google/uuid"
)

// Ingestion run kinds.
const (
	RunKindCountries    = "countries"
	RunKindIndicators   = "indicators"
	RunKindObservations = "observations"
	RunKindHappiness    = "happiness"
)

// IngestionRun records the outcome of one population operation so operators
// can see what a batch did without digging through logs.
type IngestionRun struct {
	ID         uuid.UUID  `json:"id"`
	Kind       string     `json:"kind"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Unmatched  int        `json:"unmatched"`
	Note       string     `json:"note,omitempty"`
}
