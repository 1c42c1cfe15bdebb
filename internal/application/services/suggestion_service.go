package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/providers"
	"github.com/mydscvr/backend/internal/domain/repositories"
	"github.com/mydscvr/backend/internal/infrastructure/observability"
	apperrors "github.com/mydscvr/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 20
	minSuggestionPrefix    = 2
	storeTitleSuggestions  = 3
	distinctSuggestions    = 2
)

// SuggestionService completes partial queries. Titles come from the search
// index when one is configured, otherwise from a title regex on the store.
type SuggestionService struct {
	index providers.SuggestionProvider
	repo  repositories.EventRepository
}

// NewSuggestionService creates the service. index may be nil.
func NewSuggestionService(index providers.SuggestionProvider, repo repositories.EventRepository) *SuggestionService {
	return &SuggestionService{index: index, repo: repo}
}

// Suggest returns up to limit distinct suggestions for prefix
func (s *SuggestionService) Suggest(ctx context.Context, prefix string, limit int) ([]entities.SearchSuggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if len([]rune(prefix)) < minSuggestionPrefix {
		return nil, apperrors.NewValidationError(fmt.Sprintf("q must be at least %d characters", minSuggestionPrefix))
	}
	if limit == 0 {
		limit = DefaultSuggestionLimit
	}
	if limit < 1 || limit > MaxSuggestionLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxSuggestionLimit))
	}

	out := newSuggestionSet(limit)

	titles, err := s.titles(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	out.add(entities.SuggestionEvent, titles...)

	pattern := bson.M{"$regex": regexp.QuoteMeta(prefix), "$options": "i"}
	for _, f := range []struct {
		field string
		kind  entities.SuggestionType
	}{
		{"category", entities.SuggestionCategory},
		{"venue.area", entities.SuggestionArea},
	} {
		if out.full() {
			break
		}
		values, err := s.repo.Distinct(ctx, f.field, bson.M{"status": "active", f.field: pattern})
		if err != nil {
			return nil, storeError(err)
		}
		out.add(f.kind, values[:min(len(values), distinctSuggestions)]...)
	}

	return out.items, nil
}

func (s *SuggestionService) titles(ctx context.Context, prefix string, limit int) ([]string, error) {
	if s.index != nil {
		titles, err := s.index.Suggest(ctx, prefix, limit)
		if err == nil {
			return titles, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("suggestion index unavailable, using event store")
	}

	events, err := s.repo.Find(ctx, repositories.EventQuery{
		Filter: bson.M{
			"status": "active",
			"title":  bson.M{"$regex": regexp.QuoteMeta(prefix), "$options": "i"},
		},
		Limit: storeTitleSuggestions,
	})
	if err != nil {
		return nil, storeError(err)
	}
	titles := make([]string, len(events))
	for i, e := range events {
		titles[i] = e.Title
	}
	return titles, nil
}

type suggestionSet struct {
	limit int
	seen  map[string]struct{}
	items []entities.SearchSuggestion
}

func newSuggestionSet(limit int) *suggestionSet {
	return &suggestionSet{limit: limit, seen: map[string]struct{}{}, items: []entities.SearchSuggestion{}}
}

func (s *suggestionSet) full() bool { return len(s.items) >= s.limit }

func (s *suggestionSet) add(kind entities.SuggestionType, texts ...string) {
	for _, text := range texts {
		text = strings.TrimSpace(text)
		key := strings.ToLower(text)
		if text == "" || s.full() {
			continue
		}
		if _, dup := s.seen[key]; dup {
			continue
		}
		s.seen[key] = struct{}{}
		s.items = append(s.items, entities.SearchSuggestion{Text: text, Type: kind})
	}
}
