package repositories

import (
	"context"

	"github.com/mydscvr/backend/internal/domain/entities"
	"go.mongodb.org/mongo-driver/bson"
)

// EventQuery is a capped, sorted read against the event store
type EventQuery struct {
	Filter bson.M
	Limit  int
	// Sort defaults to start_date ascending when empty
	Sort bson.D
}

// EventRepository is the read-only event store used by search
type EventRepository interface {
	// Find returns at most q.Limit events matching q.Filter in sort order
	Find(ctx context.Context, q EventQuery) ([]*entities.Event, error)

	// Sample returns up to size random events matching filter
	Sample(ctx context.Context, filter bson.M, size int) ([]*entities.Event, error)

	// Distinct returns the non-empty string values of field across matching events
	Distinct(ctx context.Context, field string, filter bson.M) ([]string, error)
}
