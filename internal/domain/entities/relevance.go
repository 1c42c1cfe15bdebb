package entities

// RelevanceCandidate is the minimal view of an event sent for scoring
type RelevanceCandidate struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Area        string   `json:"area,omitempty"`
	Date        string   `json:"date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	FamilyScore *int     `json:"family_score,omitempty"`
}

// RelevanceRequest asks the scorer to rank candidates for a query
type RelevanceRequest struct {
	Query      string               `json:"query"`
	Candidates []RelevanceCandidate `json:"candidates"`
}

// ScoredCandidate is one scored event
type ScoredCandidate struct {
	ID        string  `json:"id"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// RelevanceResult is the scorer's answer
type RelevanceResult struct {
	Scored      []ScoredCandidate `json:"scored"`
	Suggestions []string          `json:"suggestions"`
	Summary     string            `json:"summary"`
}
