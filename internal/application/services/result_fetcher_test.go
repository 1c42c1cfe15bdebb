package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/repositories"
	"github.com/mydscvr/backend/pkg/dateutil"
	apperrors "github.com/mydscvr/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func planFor(t *testing.T, query string) *entities.FilterPlan {
	t.Helper()
	plan := compile(t, query, nil)
	return &plan
}

func TestFetch_StrictHitStopsThere(t *testing.T) {
	repo := new(MockEventRepository)
	plan := planFor(t, "jazz in deira")
	events := []*entities.Event{{Title: "Deira Jazz"}}

	repo.On("Find", mock.Anything, repositories.EventQuery{Filter: plan.Strict, Limit: 50}).Return(events, nil).Once()

	result, err := NewResultFetcher(repo, nil).Fetch(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, entities.FetchStageStrict, result.Stage)
	assert.False(t, result.Relaxed)
	assert.Equal(t, events, result.Events)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Sample", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetch_EmptyStrictRelaxesOnceWithSample(t *testing.T) {
	repo := new(MockEventRepository)
	plan := planFor(t, "jazz in deira")
	require.True(t, plan.Sample)

	sampled := []*entities.Event{{Title: "Pottery"}, {Title: "Jazz Brunch"}}
	repo.On("Find", mock.Anything, mock.Anything).Return([]*entities.Event{}, nil).Once()
	repo.On("Sample", mock.Anything, plan.Relaxed, 100).Return(sampled, nil).Once()

	result, err := NewResultFetcher(repo, nil).Fetch(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, entities.FetchStageRelaxed, result.Stage)
	assert.True(t, result.Relaxed)
	assert.True(t, result.Sampled)
	assert.Equal(t, []entities.FilterGroup{entities.FilterGroupLocation}, result.Dropped)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "Jazz Brunch", result.Events[0].Title)
	repo.AssertExpectations(t)
}

func TestFetch_BoundedRelaxUsesFindWithBroadLimit(t *testing.T) {
	repo := new(MockEventRepository)
	plan := planFor(t, "cheap concerts tomorrow")
	require.False(t, plan.Sample)

	repo.On("Find", mock.Anything, repositories.EventQuery{Filter: plan.Strict, Limit: 50}).Return(nil, nil).Once()
	repo.On("Find", mock.Anything, repositories.EventQuery{Filter: plan.Relaxed, Limit: 100}).
		Return([]*entities.Event{{Title: "Opera"}}, nil).Once()

	result, err := NewResultFetcher(repo, nil).Fetch(context.Background(), plan)
	require.NoError(t, err)
	assert.True(t, result.Relaxed)
	assert.False(t, result.Sampled)
	assert.Len(t, result.Events, 1)
	repo.AssertExpectations(t)
}

func TestFetch_NothingToRelaxIsTerminal(t *testing.T) {
	repo := new(MockEventRepository)
	plan := planFor(t, "this weekend")

	repo.On("Find", mock.Anything, mock.Anything).Return([]*entities.Event{}, nil).Once()

	result, err := NewResultFetcher(repo, nil).Fetch(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, entities.FetchStageStrict, result.Stage)
	assert.Empty(t, result.Events)
	repo.AssertNumberOfCalls(t, "Find", 1)
}

func TestFetch_PostFilterByDubaiWeekday(t *testing.T) {
	repo := new(MockEventRepository)
	plan := planFor(t, "brunch on weekends")
	require.Equal(t, dateutil.Weekends, plan.PostFilter)

	// 20:30 UTC Friday is 00:30 Saturday in Dubai
	saturdayLocal := &entities.Event{Title: "Late Brunch", StartDate: time.Date(2026, time.October, 23, 20, 30, 0, 0, time.UTC)}
	fridayLocal := &entities.Event{Title: "Friday Brunch", StartDate: time.Date(2026, time.October, 23, 10, 0, 0, 0, time.UTC)}

	repo.On("Find", mock.Anything, repositories.EventQuery{Filter: plan.Strict, Limit: 100}).
		Return([]*entities.Event{fridayLocal, saturdayLocal}, nil).Once()

	result, err := NewResultFetcher(repo, nil).Fetch(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []*entities.Event{saturdayLocal}, result.Events)
}

func TestFetch_StoreErrorIsExternal(t *testing.T) {
	repo := new(MockEventRepository)
	plan := planFor(t, "jazz")

	repo.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	_, err := NewResultFetcher(repo, nil).Fetch(context.Background(), plan)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeExternal))
	repo.AssertNumberOfCalls(t, "Find", 1)
}
