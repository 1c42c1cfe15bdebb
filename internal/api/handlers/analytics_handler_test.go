package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mydscvr/backend/internal/api/handlers"
	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockZeroResultReporter struct {
	mock.Mock
}

func (m *MockZeroResultReporter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchEvent), args.Error(1)
}

func TestAnalyticsHandler_ZeroResultQueries(t *testing.T) {
	reporter := new(MockZeroResultReporter)
	reporter.On("GetZeroResultQueries", mock.Anything, 20).Return([]*entities.SearchEvent{
		{ID: "1", Query: "snow polo in hatta", ResultCount: 0},
	}, nil)
	handler := handlers.NewAnalyticsHandler(reporter)

	rec := httptest.NewRecorder()
	handler.ZeroResultQueries(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Queries []entities.SearchEvent `json:"queries"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "snow polo in hatta", body.Queries[0].Query)
	reporter.AssertExpectations(t)
}

func TestAnalyticsHandler_ZeroResultQueries_Limits(t *testing.T) {
	reporter := new(MockZeroResultReporter)
	handler := handlers.NewAnalyticsHandler(reporter)

	for _, q := range []string{"limit=0x", "limit=-1", "limit=101"} {
		rec := httptest.NewRecorder()
		handler.ZeroResultQueries(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	reporter.AssertNotCalled(t, "GetZeroResultQueries", mock.Anything, mock.Anything)
}

func TestAnalyticsHandler_ZeroResultQueries_StoreDown(t *testing.T) {
	reporter := new(MockZeroResultReporter)
	reporter.On("GetZeroResultQueries", mock.Anything, 5).Return(nil, errors.New("pq: connection refused"))
	handler := handlers.NewAnalyticsHandler(reporter)

	rec := httptest.NewRecorder()
	handler.ZeroResultQueries(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries?limit=5", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "analytics store unavailable")
}
