package handlers

import (
	"context"
	"net/http"

	"github.com/mydscvr/backend/internal/domain/entities"
	apperrors "github.com/mydscvr/backend/pkg/errors"
)

const (
	defaultZeroResultLimit = 20
	maxZeroResultLimit     = 100
)

// ZeroResultReporter lists searches that found nothing
type ZeroResultReporter interface {
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}

// AnalyticsHandler exposes search analytics
type AnalyticsHandler struct {
	reporter ZeroResultReporter
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(reporter ZeroResultReporter) *AnalyticsHandler {
	return &AnalyticsHandler{reporter: reporter}
}

// ZeroResultQueries handles GET /api/analytics/zero-result-queries
func (h *AnalyticsHandler) ZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	limit, err := optionalInt(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if limit == 0 {
		limit = defaultZeroResultLimit
	}
	if limit < 1 || limit > maxZeroResultLimit {
		respondWithAppError(w, r, apperrors.NewValidationError("limit must be between 1 and 100"))
		return
	}

	events, err := h.reporter.GetZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, apperrors.NewExternalError("analytics store unavailable", err))
		return
	}
	if events == nil {
		events = []*entities.SearchEvent{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}
