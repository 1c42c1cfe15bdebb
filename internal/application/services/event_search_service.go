package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/infrastructure/observability"
	apperrors "github.com/mydscvr/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Page size bounds used when the service is built without configuration
const (
	DefaultPerPage = 20
	MaxPerPage     = 50
	maxQueryLength = 500
)

// EventSearchService runs the natural-language search pipeline:
// intent extraction, filter compilation, fetch, optional scoring, assembly.
type EventSearchService struct {
	intents   *QueryIntentService
	compiler  *FilterCompiler
	fetcher   *ResultFetcher
	relevance *RelevanceService
	assembler *ResponseAssembler
	analytics *SearchAnalyticsService
	metrics   *observability.Metrics
	now       func() time.Time

	defaultPerPage int
	maxPerPage     int
}

// NewEventSearchService wires the pipeline stages. relevance and analytics may be nil.
func NewEventSearchService(
	intents *QueryIntentService,
	compiler *FilterCompiler,
	fetcher *ResultFetcher,
	relevance *RelevanceService,
	analytics *SearchAnalyticsService,
	metrics *observability.Metrics,
) *EventSearchService {
	return &EventSearchService{
		intents:   intents,
		compiler:  compiler,
		fetcher:   fetcher,
		relevance: relevance,
		assembler: NewResponseAssembler(),
		analytics: analytics,
		metrics:   metrics,
		now:       time.Now,

		defaultPerPage: DefaultPerPage,
		maxPerPage:     MaxPerPage,
	}
}

// SetPageSizes overrides the page size bounds. Invalid values are ignored.
func (s *EventSearchService) SetPageSizes(defaultPerPage, maxPerPage int) {
	if maxPerPage < 1 || defaultPerPage < 1 || defaultPerPage > maxPerPage {
		return
	}
	s.defaultPerPage, s.maxPerPage = defaultPerPage, maxPerPage
}

// Explanation is the offline view of how a query would be searched
type Explanation struct {
	Intent entities.QueryIntent `json:"intent"`
	Plan   entities.FilterPlan  `json:"plan"`
}

// Explain extracts and compiles a query without touching the store
func (s *EventSearchService) Explain(query string, familyFlag *bool, now time.Time) Explanation {
	intent := s.intents.Extract(query, familyFlag, now)
	return Explanation{Intent: intent, Plan: s.compiler.Compile(intent, now)}
}

// Search answers one request. Only invalid input and store failures are
// returned as errors; scoring problems are reported in the analysis block.
func (s *EventSearchService) Search(ctx context.Context, req entities.SearchRequest) (*entities.SearchResponse, error) {
	if err := validateRequest(&req, s.defaultPerPage, s.maxPerPage); err != nil {
		return nil, err
	}

	started := s.now()
	ctx, span := observability.StartSpan(ctx, "search.pipeline")
	defer span.End()

	intent := s.intents.Extract(req.Query, req.FamilyFriendly, started)
	plan := s.compiler.Compile(intent, started)
	observability.SetSpanAttributes(span,
		attribute.String("search.query", req.Query),
		attribute.Int("search.groups", len(plan.Groups)),
		attribute.String("search.post_filter", string(plan.PostFilter)))

	fetched, err := s.fetcher.Fetch(ctx, &plan)
	if err != nil {
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Error().Err(err).Str("query", req.Query).Msg("event fetch failed")
		return nil, err
	}

	items := make([]entities.SearchResultItem, len(fetched.Events))
	for i, e := range fetched.Events {
		items[i] = entities.SearchResultItem{Event: e}
	}

	outcome := s.relevance.Score(ctx, req.Query, items)

	analysis := buildAnalysis(intent, &plan, fetched, outcome)
	resp := s.assembler.Assemble(outcome.Items, req.Page, req.PerPage, analysis, started)
	resp.AIEnabled = s.relevance.Enabled()
	resp.AIResponse = outcome.Summary
	if len(outcome.Suggestions) > 0 {
		resp.Suggestions = outcome.Suggestions
	}

	observability.RecordSearch(ctx, s.metrics, string(fetched.Stage), fetched.Relaxed, len(items))
	observability.LoggerFromContext(ctx).Info().
		Str("query", req.Query).
		Str("stage", string(fetched.Stage)).
		Bool("relaxed", fetched.Relaxed).
		Int("candidates", len(items)).
		Str("scoring", string(outcome.Status)).
		Int64("duration_ms", resp.ProcessingTimeMs).
		Msg("search completed")

	s.analytics.TrackSearch(ctx, &entities.SearchEvent{
		Query:            req.Query,
		NormalizedQuery:  NormalizeQuery(req.Query),
		DetectedIntent:   detectedIntent(intent),
		IntentConfidence: intent.Temporal.Confidence,
		ResultCount:      len(items),
		LatencyMs:        int(resp.ProcessingTimeMs),
		Relaxed:          fetched.Relaxed,
		ScoringStatus:    string(outcome.Status),
	})

	return resp, nil
}

func validateRequest(req *entities.SearchRequest, defaultPerPage, maxPerPage int) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return apperrors.NewValidationError("query must not be empty")
	}
	if utf8.RuneCountInString(req.Query) > maxQueryLength {
		return apperrors.NewValidationError(fmt.Sprintf("query must be at most %d characters", maxQueryLength))
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Page < 1 {
		return apperrors.NewValidationError("page must be >= 1")
	}
	if req.PerPage == 0 {
		req.PerPage = defaultPerPage
	}
	if req.PerPage < 1 || req.PerPage > maxPerPage {
		return apperrors.NewValidationError(fmt.Sprintf("per_page must be between 1 and %d", maxPerPage))
	}
	return nil
}

func buildAnalysis(intent entities.QueryIntent, plan *entities.FilterPlan, fetched *entities.FetchResult, outcome RelevanceOutcome) entities.QueryAnalysis {
	analysis := entities.QueryAnalysis{
		Keywords:       nonNil(intent.Keywords),
		DateFilter:     string(intent.Temporal.Range),
		DateFrom:       intent.Temporal.Start,
		DateTo:         intent.Temporal.End,
		PostFilter:     string(plan.PostFilter),
		PriceTier:      string(intent.PriceTier),
		Locations:      nonNil(intent.Locations),
		Categories:     nonNil(intent.Categories),
		FamilyFriendly: intent.Family,
		Confidence:     intent.Temporal.Confidence,
		FiltersApplied: groupNames(plan.Groups),
		Stage:          string(fetched.Stage),
		Relaxed:        fetched.Relaxed,
		Sampled:        fetched.Sampled,
		Candidates:     len(fetched.Events),
		Scoring:        outcome.Status,
	}
	if fetched.Relaxed {
		analysis.RelaxedFilters = groupNames(fetched.Dropped)
	}
	if outcome.Status == entities.ScoringDegraded {
		analysis.ScoringError = outcome.Reason
	}
	return analysis
}

// detectedIntent is a compact label stored with analytics rows
func detectedIntent(intent entities.QueryIntent) string {
	var parts []string
	if intent.Temporal.Detected() {
		parts = append(parts, "date:"+string(intent.Temporal.Range))
	}
	if intent.PriceTier != entities.PriceTierNone {
		parts = append(parts, "price:"+string(intent.PriceTier))
	}
	for _, l := range intent.Locations {
		parts = append(parts, "location:"+l)
	}
	for _, c := range intent.Categories {
		parts = append(parts, "category:"+c)
	}
	if intent.Family != entities.FamilyUnspecified && intent.Family != "" {
		parts = append(parts, "family:"+string(intent.Family))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

func groupNames(groups []entities.FilterGroup) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = string(g)
	}
	return names
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
