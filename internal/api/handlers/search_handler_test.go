package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mydscvr/backend/internal/api/handlers"
	"github.com/mydscvr/backend/internal/domain/entities"
	apperrors "github.com/mydscvr/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, req entities.SearchRequest) (*entities.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SearchResponse), args.Error(1)
}

type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) Suggest(ctx context.Context, prefix string, limit int) ([]entities.SearchSuggestion, error) {
	args := m.Called(ctx, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.SearchSuggestion), args.Error(1)
}

type MockFilterOptions struct {
	mock.Mock
}

func (m *MockFilterOptions) FilterOptions(ctx context.Context) (*entities.FilterOptions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FilterOptions), args.Error(1)
}

func (m *MockFilterOptions) DateFilterOptions(now time.Time) []entities.DateFilterOption {
	args := m.Called(now)
	return args.Get(0).([]entities.DateFilterOption)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestSearchHandler_Search_ParsesRequest(t *testing.T) {
	searcher := new(MockSearcher)
	handler := handlers.NewSearchHandler(searcher, nil, nil)

	family := true
	searcher.On("Search", mock.Anything, entities.SearchRequest{
		Query:          "free things to do this weekend",
		Page:           2,
		PerPage:        10,
		FamilyFriendly: &family,
		ClientID:       "203.0.113.9",
	}).Return(&entities.SearchResponse{
		Events:     []entities.EventView{{ID: "a", Title: "Kite Beach Yoga"}},
		Pagination: entities.Pagination{Page: 2, PerPage: 10, Total: 11, TotalPages: 2, HasPrev: true},
		AIEnabled:  false,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=+free+things+to+do+this+weekend+&page=2&per_page=10&family_friendly=true", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp entities.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Kite Beach Yoga", resp.Events[0].Title)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.True(t, resp.Pagination.HasPrev)
	searcher.AssertExpectations(t)
}

func TestSearchHandler_Search_RejectsMalformedParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"page not a number", "q=jazz&page=two", "page must be an integer"},
		{"per_page not a number", "q=jazz&per_page=1.5", "per_page must be an integer"},
		{"family flag", "q=jazz&family_friendly=kids", "family_friendly must be true or false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := new(MockSearcher)
			handler := handlers.NewSearchHandler(searcher, nil, nil)

			rec := httptest.NewRecorder()
			handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec))
			searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
		})
	}
}

func TestSearchHandler_Search_MapsErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperrors.NewValidationError("q is required"), http.StatusBadRequest, "q is required"},
		{"store down", apperrors.NewExternalError("event store unavailable", errors.New("dial tcp")), http.StatusServiceUnavailable, "event store unavailable"},
		{"rate limited", apperrors.NewRateLimitedError("slow down"), http.StatusTooManyRequests, "slow down"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
		{"internal", apperrors.NewInternalError("bad plan", errors.New("nil filter")), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := new(MockSearcher)
			searcher.On("Search", mock.Anything, mock.Anything).Return(nil, tt.err)
			handler := handlers.NewSearchHandler(searcher, nil, nil)

			rec := httptest.NewRecorder()
			handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=jazz", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec))
		})
	}
}

func TestSearchHandler_Suggestions(t *testing.T) {
	suggester := new(MockSuggester)
	suggester.On("Suggest", mock.Anything, "ja", 5).Return([]entities.SearchSuggestion{
		{Text: "Jazz at the Creek", Type: entities.SuggestionEvent},
		{Text: "Jumeirah", Type: entities.SuggestionArea},
	}, nil)
	handler := handlers.NewSearchHandler(nil, suggester, nil)

	rec := httptest.NewRecorder()
	handler.Suggestions(rec, httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=ja&limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Suggestions []entities.SearchSuggestion `json:"suggestions"`
		Count       int                         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, entities.SuggestionArea, body.Suggestions[1].Type)
}

func TestSearchHandler_SuggestionsValidation(t *testing.T) {
	suggester := new(MockSuggester)
	suggester.On("Suggest", mock.Anything, "j", 0).Return(nil, apperrors.NewValidationError("q must be at least 2 characters"))
	handler := handlers.NewSearchHandler(nil, suggester, nil)

	rec := httptest.NewRecorder()
	handler.Suggestions(rec, httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=j", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.Suggestions(rec, httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=jazz&limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_Filters(t *testing.T) {
	filters := new(MockFilterOptions)
	filters.On("FilterOptions", mock.Anything).Return(&entities.FilterOptions{
		Categories: []string{"music", "family"},
		Areas:      []string{"Dubai Marina"},
	}, nil)
	handler := handlers.NewSearchHandler(nil, nil, filters)

	rec := httptest.NewRecorder()
	handler.Filters(rec, httptest.NewRequest(http.MethodGet, "/api/search/filters", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body entities.FilterOptions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"music", "family"}, body.Categories)
}

func TestSearchHandler_FiltersStoreDown(t *testing.T) {
	filters := new(MockFilterOptions)
	filters.On("FilterOptions", mock.Anything).Return(nil, apperrors.NewExternalError("event store unavailable", errors.New("timeout")))
	handler := handlers.NewSearchHandler(nil, nil, filters)

	rec := httptest.NewRecorder()
	handler.Filters(rec, httptest.NewRequest(http.MethodGet, "/api/search/filters", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchHandler_DateFilters(t *testing.T) {
	filters := new(MockFilterOptions)
	filters.On("DateFilterOptions", mock.AnythingOfType("time.Time")).Return([]entities.DateFilterOption{
		{Value: "today"},
		{Value: "weekends", Recurring: true},
	})
	handler := handlers.NewSearchHandler(nil, nil, filters)

	rec := httptest.NewRecorder()
	handler.DateFilters(rec, httptest.NewRequest(http.MethodGet, "/api/search/date-filters", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		DateFilters []entities.DateFilterOption `json:"date_filters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.DateFilters, 2)
	assert.True(t, body.DateFilters[1].Recurring)
}
