package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/providers"
	"github.com/mydscvr/backend/internal/infrastructure/observability"
	"github.com/mydscvr/backend/pkg/dateutil"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultScoringTimeout    = 8 * time.Second
	defaultMaxCandidates     = 15
	defaultPromptTokenBudget = 3000
	maxDescriptionRunes      = 280
)

// ErrScoringTimeout is reported when the provider does not answer in time
var ErrScoringTimeout = errors.New("relevance scoring timed out")

// RelevanceConfig bounds the scoring call
type RelevanceConfig struct {
	Timeout           time.Duration
	MaxCandidates     int
	PromptTokenBudget int
}

// RelevanceOutcome is the result of the optional scoring stage. Items is
// always usable, whatever the status.
type RelevanceOutcome struct {
	Items       []entities.SearchResultItem
	Status      entities.ScoringStatus
	Reason      string
	Summary     string
	Suggestions []string
}

// RelevanceService asks an external scorer to rank fetched events. It never
// fails a search: errors and timeouts degrade to the unscored order.
type RelevanceService struct {
	provider providers.RelevanceProvider
	counter  providers.TokenCounter
	breaker  *gobreaker.CircuitBreaker
	cfg      RelevanceConfig
	metrics  *observability.Metrics
}

// NewRelevanceService creates the scoring stage. A nil provider disables it.
func NewRelevanceService(provider providers.RelevanceProvider, counter providers.TokenCounter, cfg RelevanceConfig, metrics *observability.Metrics) *RelevanceService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultScoringTimeout
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}
	if cfg.PromptTokenBudget <= 0 {
		cfg.PromptTokenBudget = defaultPromptTokenBudget
	}
	if counter == nil {
		counter = charTokenCounter{}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "relevance-scoring",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &RelevanceService{
		provider: provider,
		counter:  counter,
		breaker:  breaker,
		cfg:      cfg,
		metrics:  metrics,
	}
}

// Enabled reports whether a scorer is configured
func (s *RelevanceService) Enabled() bool {
	return s != nil && s.provider != nil
}

// Score reorders and annotates items. Only scores returned for candidates
// that were sent are applied.
func (s *RelevanceService) Score(ctx context.Context, query string, items []entities.SearchResultItem) RelevanceOutcome {
	if !s.Enabled() {
		return RelevanceOutcome{Items: items, Status: entities.ScoringDisabled}
	}
	if len(items) == 0 || strings.TrimSpace(query) == "" {
		return RelevanceOutcome{Items: items, Status: entities.ScoringSkipped}
	}

	ctx, span := observability.StartSpan(ctx, "search.score")
	defer span.End()

	req := &entities.RelevanceRequest{Query: query, Candidates: s.buildCandidates(query, items)}
	observability.SetSpanAttributes(span, attribute.Int("search.scoring.candidates", len(req.Candidates)))

	start := time.Now()
	result, err := s.call(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordScoring(ctx, s.metrics, string(entities.ScoringDegraded), time.Since(start))
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("query", query).Msg("relevance scoring degraded")
		return RelevanceOutcome{Items: items, Status: entities.ScoringDegraded, Reason: err.Error()}
	}
	observability.RecordScoring(ctx, s.metrics, string(entities.ScoringApplied), time.Since(start))

	sent := make(map[string]struct{}, len(req.Candidates))
	for _, c := range req.Candidates {
		sent[c.ID] = struct{}{}
	}

	return RelevanceOutcome{
		Items:       applyScores(items, result.Scored, sent),
		Status:      entities.ScoringApplied,
		Summary:     strings.TrimSpace(result.Summary),
		Suggestions: result.Suggestions,
	}
}

// call enforces the timeout even when the provider ignores ctx
func (s *RelevanceService) call(ctx context.Context, req *entities.RelevanceRequest) (*entities.RelevanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	type reply struct {
		result *entities.RelevanceResult
		err    error
	}
	done := make(chan reply, 1)

	go func() {
		out, err := s.breaker.Execute(func() (interface{}, error) {
			return s.provider.ScoreEvents(ctx, req)
		})
		if err != nil {
			done <- reply{err: err}
			return
		}
		result, _ := out.(*entities.RelevanceResult)
		if result == nil {
			done <- reply{err: errors.New("relevance provider returned no result")}
			return
		}
		done <- reply{result: result}
	}()

	select {
	case r := <-done:
		return r.result, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrScoringTimeout, s.cfg.Timeout)
		}
		return nil, ctx.Err()
	}
}

func (s *RelevanceService) buildCandidates(query string, items []entities.SearchResultItem) []entities.RelevanceCandidate {
	budget := s.cfg.PromptTokenBudget - s.counter.CountTokens(query)
	limit := min(len(items), s.cfg.MaxCandidates)

	candidates := make([]entities.RelevanceCandidate, 0, limit)
	used := 0
	for _, item := range items[:limit] {
		c := candidateFor(item.Event)
		raw, _ := json.Marshal(c)
		cost := s.counter.CountTokens(string(raw))
		if len(candidates) > 0 && used+cost > budget {
			break
		}
		used += cost
		candidates = append(candidates, c)
	}
	return candidates
}

func candidateFor(e *entities.Event) entities.RelevanceCandidate {
	return entities.RelevanceCandidate{
		ID:          e.ID.Hex(),
		Title:       e.Title,
		Description: cleanDescription(e.Description),
		Category:    e.PrimaryCategoryName(),
		Area:        e.Area(),
		Date:        dateutil.LocalDay(e.StartDate),
		Tags:        e.Tags,
		FamilyScore: e.FamilyScore,
	}
}

// cleanDescription turns stored HTML into short plain markdown
func cleanDescription(description string) string {
	text := description
	if strings.ContainsAny(text, "<&") {
		if md, err := htmltomarkdown.ConvertString(text); err == nil {
			text = md
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxDescriptionRunes {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:maxDescriptionRunes])) + "…"
	}
	return text
}

// applyScores sorts scored items first by descending score. Unscored items
// follow in their original order.
func applyScores(items []entities.SearchResultItem, scored []entities.ScoredCandidate, sent map[string]struct{}) []entities.SearchResultItem {
	byID := make(map[string]entities.ScoredCandidate, len(scored))
	for _, sc := range scored {
		if _, ok := sent[sc.ID]; !ok || math.IsNaN(sc.Score) {
			continue
		}
		if _, dup := byID[sc.ID]; !dup {
			byID[sc.ID] = sc
		}
	}

	var withScore, without []entities.SearchResultItem
	for _, item := range items {
		sc, ok := byID[item.Event.ID.Hex()]
		if !ok {
			without = append(without, item)
			continue
		}
		score := sc.Score
		item.Score = &score
		item.Rationale = strings.TrimSpace(sc.Rationale)
		withScore = append(withScore, item)
	}

	sort.SliceStable(withScore, func(i, j int) bool {
		return *withScore[i].Score > *withScore[j].Score
	})
	return append(withScore, without...)
}

// charTokenCounter approximates one token per four characters
type charTokenCounter struct{}

func (charTokenCounter) CountTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
