package services

import (
	"context"
	"errors"
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/repositories"
	"github.com/mydscvr/backend/internal/infrastructure/observability"
	"github.com/mydscvr/backend/pkg/dateutil"
	apperrors "github.com/mydscvr/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// ResultFetcher runs a FilterPlan against the event store: the strict
// filter first, then at most one relaxed attempt when it finds nothing.
type ResultFetcher struct {
	repo    repositories.EventRepository
	ranking *SearchRankingService
}

// NewResultFetcher creates a fetcher
func NewResultFetcher(repo repositories.EventRepository, ranking *SearchRankingService) *ResultFetcher {
	if ranking == nil {
		ranking = NewSearchRankingService()
	}
	return &ResultFetcher{repo: repo, ranking: ranking}
}

// Fetch executes plan. Store failures surface as EXTERNAL errors and are not retried.
func (f *ResultFetcher) Fetch(ctx context.Context, plan *entities.FilterPlan) (*entities.FetchResult, error) {
	ctx, span := observability.StartSpan(ctx, "search.fetch")
	defer span.End()

	strict, err := f.repo.Find(ctx, repositories.EventQuery{Filter: plan.Strict, Limit: plan.StrictLimit})
	if err != nil {
		observability.RecordError(span, err)
		return nil, storeError(err)
	}
	strict = postFilter(plan.PostFilter, strict)

	if len(strict) > 0 || !plan.CanRelax() {
		observability.SetSpanAttributes(span,
			attribute.String("search.stage", string(entities.FetchStageStrict)),
			attribute.Int("search.results", len(strict)))
		return &entities.FetchResult{Events: strict, Stage: entities.FetchStageStrict}, nil
	}

	var relaxed []*entities.Event
	if plan.Sample {
		relaxed, err = f.repo.Sample(ctx, plan.Relaxed, plan.BroadLimit)
	} else {
		relaxed, err = f.repo.Find(ctx, repositories.EventQuery{Filter: plan.Relaxed, Limit: plan.BroadLimit})
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, storeError(err)
	}
	relaxed = f.ranking.Reorder(postFilter(plan.PostFilter, relaxed), plan.Keywords)

	observability.SetSpanAttributes(span,
		attribute.String("search.stage", string(entities.FetchStageRelaxed)),
		attribute.Bool("search.sampled", plan.Sample),
		attribute.Int("search.results", len(relaxed)))

	return &entities.FetchResult{
		Events:  relaxed,
		Stage:   entities.FetchStageRelaxed,
		Relaxed: true,
		Sampled: plan.Sample,
		Dropped: plan.DroppedOnRelax,
	}, nil
}

// postFilter applies a recurring day pattern using the Dubai weekday of each start
func postFilter(r dateutil.NamedRange, events []*entities.Event) []*entities.Event {
	if r == "" {
		return events
	}
	return dateutil.FilterByDayType(r, events, func(e *entities.Event) time.Time { return e.StartDate })
}

func storeError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewExternalError("event store unavailable", err)
}
