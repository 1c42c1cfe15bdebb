package providers

import (
	"context"

	"github.com/mydscvr/backend/internal/domain/entities"
)

// RelevanceProvider ranks candidate events for a query. Implementations are
// remote and may be slow or unavailable.
type RelevanceProvider interface {
	ScoreEvents(ctx context.Context, req *entities.RelevanceRequest) (*entities.RelevanceResult, error)
}

// TokenCounter estimates prompt size for a model
type TokenCounter interface {
	CountTokens(text string) int
}
