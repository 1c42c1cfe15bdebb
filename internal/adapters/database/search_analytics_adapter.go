package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/repositories"
	"github.com/mydscvr/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/mydscvr/backend/pkg/errors"
)

const searchAnalyticsTable = "search_analytics"

const searchAnalyticsSchema = `
CREATE TABLE IF NOT EXISTS search_analytics (
	id UUID PRIMARY KEY,
	query TEXT NOT NULL,
	normalized_query TEXT NOT NULL,
	detected_intent TEXT NOT NULL DEFAULT '',
	intent_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	result_count INTEGER NOT NULL,
	latency_ms INTEGER NOT NULL,
	relaxed BOOLEAN NOT NULL DEFAULT FALSE,
	scoring_status TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_search_analytics_zero_results
	ON search_analytics (created_at DESC) WHERE result_count = 0;
`

var searchEventColumns = []interface{}{
	"id", "query", "normalized_query", "detected_intent", "intent_confidence",
	"result_count", "latency_ms", "relaxed", "scoring_status", "created_at",
}

// SearchAnalyticsAdapter stores search interactions in Postgres
type SearchAnalyticsAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSearchAnalyticsAdapter creates a new analytics adapter
func NewSearchAnalyticsAdapter(client *postgres.Client) *SearchAnalyticsAdapter {
	return &SearchAnalyticsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.SearchAnalyticsRepository = (*SearchAnalyticsAdapter)(nil)

// EnsureSchema creates the analytics table when missing
func (a *SearchAnalyticsAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, searchAnalyticsSchema); err != nil {
		return apperrors.NewInternalError("failed to create search analytics schema", err)
	}
	return nil
}

// LogEvent inserts one search interaction
func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query, args, err := a.db.Insert(searchAnalyticsTable).Prepared(true).Rows(goqu.Record{
		"id":                event.ID,
		"query":             event.Query,
		"normalized_query":  event.NormalizedQuery,
		"detected_intent":   event.DetectedIntent,
		"intent_confidence": event.IntentConfidence,
		"result_count":      event.ResultCount,
		"latency_ms":        event.LatencyMs,
		"relaxed":           event.Relaxed,
		"scoring_status":    event.ScoringStatus,
		"created_at":        event.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build search event insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

// GetZeroResultQueries returns the most recent searches that found nothing
func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query, args, err := a.db.From(searchAnalyticsTable).Prepared(true).
		Select(searchEventColumns...).
		Where(goqu.Ex{"result_count": 0}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build zero result query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	var events []*entities.SearchEvent
	for rows.Next() {
		e := &entities.SearchEvent{}
		if err := rows.Scan(
			&e.ID,
			&e.Query,
			&e.NormalizedQuery,
			&e.DetectedIntent,
			&e.IntentConfidence,
			&e.ResultCount,
			&e.LatencyMs,
			&e.Relaxed,
			&e.ScoringStatus,
			&e.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read search events", err)
	}

	return events, nil
}
