package services

import (
	"sort"
	"strings"

	"github.com/mydscvr/backend/internal/domain/entities"
)

// ScoredResult is one ranked event. Score is the weighted keyword overlap in
// [0,1]; ScoreBreakdown holds the per-field share keyed by title, tags,
// category and description.
type ScoredResult struct {
	Event          *entities.Event
	Score          float64
	ScoreBreakdown map[string]float64
}

// SearchRankingService orders events by keyword overlap with the query
type SearchRankingService struct {
	wTitle       float64
	wTags        float64
	wCategory    float64
	wDescription float64
}

// NewSearchRankingService returns a ranker weighting title hits highest, then
// tags, category and description
func NewSearchRankingService() *SearchRankingService {
	return &SearchRankingService{
		wTitle:       0.4,
		wTags:        0.25,
		wCategory:    0.2,
		wDescription: 0.15,
	}
}

// Rank scores events against keywords and sorts them best first. Ties keep
// their input order.
func (s *SearchRankingService) Rank(events []*entities.Event, keywords []string) []ScoredResult {
	if len(events) == 0 {
		return nil
	}

	scored := make([]ScoredResult, len(events))
	for i, e := range events {
		score, breakdown := s.calculateScore(e, keywords)
		scored[i] = ScoredResult{
			Event:          e,
			Score:          score,
			ScoreBreakdown: breakdown,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}

// Reorder is Rank without the scores
func (s *SearchRankingService) Reorder(events []*entities.Event, keywords []string) []*entities.Event {
	if len(keywords) == 0 {
		return events
	}
	ranked := s.Rank(events, keywords)
	out := make([]*entities.Event, len(ranked))
	for i, r := range ranked {
		out[i] = r.Event
	}
	return out
}

func (s *SearchRankingService) calculateScore(e *entities.Event, keywords []string) (float64, map[string]float64) {
	breakdown := map[string]float64{"title": 0, "tags": 0, "category": 0, "description": 0}
	if len(keywords) == 0 {
		return 0, breakdown
	}

	title := strings.ToLower(e.Title)
	description := strings.ToLower(e.Description)
	category := strings.ToLower(e.Category + " " + e.PrimaryCategory + " " + strings.Join(e.SecondaryCategories, " "))

	var titleHits, tagHits, categoryHits, descriptionHits float64
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			titleHits++
		}
		for _, tag := range e.Tags {
			if strings.Contains(strings.ToLower(tag), kw) {
				tagHits++
				break
			}
		}
		if strings.Contains(category, kw) {
			categoryHits++
		}
		if strings.Contains(description, kw) {
			descriptionHits++
		}
	}

	n := float64(len(keywords))
	breakdown["title"] = titleHits / n * s.wTitle
	breakdown["tags"] = tagHits / n * s.wTags
	breakdown["category"] = categoryHits / n * s.wCategory
	breakdown["description"] = descriptionHits / n * s.wDescription

	total := breakdown["title"] + breakdown["tags"] + breakdown["category"] + breakdown["description"]
	return total, breakdown
}
