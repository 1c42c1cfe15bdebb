package repositories

import (
	"context"

	"github.com/mydscvr/backend/internal/domain/entities"
)

// SearchAnalyticsRepository persists search interactions
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}
