package entities

import (
	"time"
)

// SearchEvent represents a single search interaction for analytics.
type SearchEvent struct {
	ID               string    `json:"id" db:"id"`
	Query            string    `json:"query" db:"query"`
	NormalizedQuery  string    `json:"normalized_query" db:"normalized_query"`
	DetectedIntent   string    `json:"detected_intent" db:"detected_intent"`
	IntentConfidence float64   `json:"intent_confidence" db:"intent_confidence"`
	ResultCount      int       `json:"result_count" db:"result_count"`
	LatencyMs        int       `json:"latency_ms" db:"latency_ms"`
	Relaxed          bool      `json:"relaxed" db:"relaxed"`
	ScoringStatus    string    `json:"scoring_status" db:"scoring_status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
