package entities

import (
	"time"

	"github.com/mydscvr/backend/pkg/dateutil"
)

// TemporalIntent is what the temporal parser found in a query
type TemporalIntent struct {
	Range      dateutil.NamedRange `json:"range,omitempty"`
	Start      *time.Time          `json:"start,omitempty"`
	End        *time.Time          `json:"end,omitempty"`
	PostFilter dateutil.NamedRange `json:"post_filter,omitempty"`
	Phrase     string              `json:"phrase,omitempty"`
	Confidence float64             `json:"confidence"`
}

// Detected reports whether any temporal phrase matched
func (t TemporalIntent) Detected() bool {
	return t.Range != ""
}

// Bounded reports whether the intent carries a single interval
func (t TemporalIntent) Bounded() bool {
	return t.Start != nil && t.End != nil
}

// PriceTier is the price bracket asked for in a query
type PriceTier string

const (
	PriceTierNone    PriceTier = ""
	PriceTierFree    PriceTier = "free"
	PriceTierBudget  PriceTier = "budget"
	PriceTierPremium PriceTier = "premium"
)

// FamilyIntent is a tri-state
type FamilyIntent string

const (
	FamilyUnspecified FamilyIntent = "unspecified"
	FamilyRequired    FamilyIntent = "required"
	FamilyExcluded    FamilyIntent = "excluded"
)

// QueryIntent bundles every signal extracted from one query. No field is required.
type QueryIntent struct {
	Query      string         `json:"query"`
	Keywords   []string       `json:"keywords"`
	Temporal   TemporalIntent `json:"temporal"`
	PriceTier  PriceTier      `json:"price_tier,omitempty"`
	Locations  []string       `json:"locations,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Family     FamilyIntent   `json:"family"`
}

// SearchResultItem is an event with optional relevance annotation
type SearchResultItem struct {
	Event     *Event
	Score     *float64
	Rationale string
}

// ScoringStatus describes what happened to the relevance enrichment stage
type ScoringStatus string

const (
	ScoringDisabled ScoringStatus = "disabled"
	ScoringSkipped  ScoringStatus = "skipped"
	ScoringApplied  ScoringStatus = "scored"
	ScoringDegraded ScoringStatus = "degraded"
)

// SearchRequest is a validated search call
type SearchRequest struct {
	Query          string
	Page           int
	PerPage        int
	FamilyFriendly *bool
	ClientID       string
}

// Pagination metadata for a result page
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// QueryAnalysis is the diagnostics block of a search response
type QueryAnalysis struct {
	Keywords       []string      `json:"keywords"`
	DateFilter     string        `json:"date_filter,omitempty"`
	DateFrom       *time.Time    `json:"date_from,omitempty"`
	DateTo         *time.Time    `json:"date_to,omitempty"`
	PostFilter     string        `json:"post_filter,omitempty"`
	PriceTier      string        `json:"price_tier,omitempty"`
	Locations      []string      `json:"locations"`
	Categories     []string      `json:"categories"`
	FamilyFriendly FamilyIntent  `json:"family_friendly"`
	Confidence     float64       `json:"confidence"`
	FiltersApplied []string      `json:"filters_applied"`
	Stage          string        `json:"stage"`
	Relaxed        bool          `json:"relaxed"`
	RelaxedFilters []string      `json:"relaxed_filters,omitempty"`
	Sampled        bool          `json:"sampled"`
	Candidates     int           `json:"candidates"`
	Scoring        ScoringStatus `json:"scoring"`
	ScoringError   string        `json:"scoring_error,omitempty"`
}

// VenueView is the projected venue
type VenueView struct {
	Name      string   `json:"name"`
	Area      string   `json:"area"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`
}

// PriceView is the projected price
type PriceView struct {
	Min      float64  `json:"min"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency"`
	IsFree   bool     `json:"is_free"`
}

// EventView is the presentation projection of an event
type EventView struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Venue            VenueView  `json:"venue"`
	Price            PriceView  `json:"price"`
	FamilyScore      *int       `json:"family_score,omitempty"`
	AgeRange         string     `json:"age_range"`
	Tags             []string   `json:"tags"`
	Category         string     `json:"category"`
	ImageURLs        []string   `json:"image_urls"`
	BookingURL       string     `json:"booking_url,omitempty"`
	IsFamilyFriendly bool       `json:"is_family_friendly"`
	RelevanceScore   *float64   `json:"relevance_score,omitempty"`
	Rationale        string     `json:"rationale,omitempty"`
}

// SearchResponse is the body returned by the search endpoint
type SearchResponse struct {
	Events           []EventView   `json:"events"`
	Pagination       Pagination    `json:"pagination"`
	QueryAnalysis    QueryAnalysis `json:"query_analysis"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	AIResponse       string        `json:"ai_response,omitempty"`
	Suggestions      []string      `json:"suggestions"`
	AIEnabled        bool          `json:"ai_enabled"`
}

// PriceRangeOption is one entry of the static price filter list
type PriceRangeOption struct {
	Min   float64  `json:"min"`
	Max   *float64 `json:"max"`
	Label string   `json:"label"`
}

// FilterOptions lists the values a client can filter search results by
type FilterOptions struct {
	Categories  []string           `json:"categories"`
	Areas       []string           `json:"areas"`
	PriceRanges []PriceRangeOption `json:"price_ranges"`
	AgeGroups   []string           `json:"age_groups"`
}

// DateFilterOption is a named range resolved against the current time
type DateFilterOption struct {
	Value     string     `json:"value"`
	Recurring bool       `json:"recurring"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
}

// SuggestionType says where a suggestion came from
type SuggestionType string

const (
	SuggestionEvent    SuggestionType = "event"
	SuggestionCategory SuggestionType = "category"
	SuggestionArea     SuggestionType = "area"
)

// SearchSuggestion is one query completion
type SearchSuggestion struct {
	Text string         `json:"text"`
	Type SuggestionType `json:"type"`
}
