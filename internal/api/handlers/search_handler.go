package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mydscvr/backend/internal/api/middleware"
	"github.com/mydscvr/backend/internal/domain/entities"
	apperrors "github.com/mydscvr/backend/pkg/errors"
)

// EventSearcher runs the natural-language search pipeline
type EventSearcher interface {
	Search(ctx context.Context, req entities.SearchRequest) (*entities.SearchResponse, error)
}

// Suggester completes partial queries
type Suggester interface {
	Suggest(ctx context.Context, prefix string, limit int) ([]entities.SearchSuggestion, error)
}

// FilterOptionsProvider lists the values search results can be narrowed by
type FilterOptionsProvider interface {
	FilterOptions(ctx context.Context) (*entities.FilterOptions, error)
	DateFilterOptions(now time.Time) []entities.DateFilterOption
}

// SearchHandler handles the search HTTP endpoints
type SearchHandler struct {
	searcher  EventSearcher
	suggester Suggester
	filters   FilterOptionsProvider
	now       func() time.Time
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searcher EventSearcher, suggester Suggester, filters FilterOptionsProvider) *SearchHandler {
	return &SearchHandler{
		searcher:  searcher,
		suggester: suggester,
		filters:   filters,
		now:       time.Now,
	}
}

// Search handles GET /api/search and GET /search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	resp, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func parseSearchRequest(r *http.Request) (entities.SearchRequest, error) {
	q := r.URL.Query()
	req := entities.SearchRequest{
		Query:    strings.TrimSpace(q.Get("q")),
		ClientID: middleware.ClientIP(r),
	}

	var err error
	if req.Page, err = optionalInt(q.Get("page"), "page"); err != nil {
		return req, err
	}
	if req.PerPage, err = optionalInt(q.Get("per_page"), "per_page"); err != nil {
		return req, err
	}

	if raw := q.Get("family_friendly"); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			return req, apperrors.NewValidationError("family_friendly must be true or false")
		}
		req.FamilyFriendly = &flag
	}
	return req, nil
}

// optionalInt parses an integer query parameter. Absent means zero, which
// the services replace with their default.
func optionalInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name + " must be an integer")
	}
	return v, nil
}

// Suggestions handles GET /api/search/suggestions
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := optionalInt(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	suggestions, err := h.suggester.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// Filters handles GET /api/search/filters
func (h *SearchHandler) Filters(w http.ResponseWriter, r *http.Request) {
	options, err := h.filters.FilterOptions(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, options)
}

// DateFilters handles GET /api/search/date-filters
func (h *SearchHandler) DateFilters(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date_filters": h.filters.DateFilterOptions(h.now()),
	})
}
