package models

import "time"

// Checkpoint is the singleton ingestion cursor: the newest transaction the
// pipeline has already processed. Only the pipeline advances it.
type Checkpoint struct {
	ID             string    `json:"id"`
	LastDate       time.Time `json:"last_date"`
	LastExternalID string    `json:"last_external_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}
