package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/repositories"
	mongoclient "github.com/mydscvr/backend/internal/infrastructure/clients/mongo"
	"github.com/mydscvr/backend/internal/infrastructure/observability"
	apperrors "github.com/mydscvr/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
)

// MongoEventAdapter implements EventRepository over the events collection
type MongoEventAdapter struct {
	collection *mongo.Collection
	timeout    time.Duration
	metrics    *observability.Metrics
}

// NewMongoEventAdapter creates a new event adapter
func NewMongoEventAdapter(client *mongoclient.Client, collection string, metrics *observability.Metrics) repositories.EventRepository {
	return &MongoEventAdapter{
		collection: client.Collection(collection),
		timeout:    client.Timeout(),
		metrics:    metrics,
	}
}

// Find runs a capped, sorted find
func (a *MongoEventAdapter) Find(ctx context.Context, q repositories.EventQuery) ([]*entities.Event, error) {
	ctx, span := observability.StartSpan(ctx, "mongo.events.find")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	order := q.Sort
	if len(order) == 0 {
		order = bson.D{{Key: "start_date", Value: 1}}
	}
	opts := options.Find().SetSort(order)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	observability.SetSpanAttributes(span, attribute.Int("db.limit", q.Limit))

	start := time.Now()
	cursor, err := a.collection.Find(ctx, q.Filter, opts)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("failed to query events", err)
	}
	events, err := decodeEvents(ctx, cursor)
	observability.RecordDBMetric(ctx, a.metrics, "find", time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span, attribute.Int("db.results", len(events)))
	return events, nil
}

// Sample draws random matching events with the $sample stage
func (a *MongoEventAdapter) Sample(ctx context.Context, filter bson.M, size int) ([]*entities.Event, error) {
	ctx, span := observability.StartSpan(ctx, "mongo.events.sample")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
	}

	start := time.Now()
	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("failed to sample events", err)
	}
	events, err := decodeEvents(ctx, cursor)
	observability.RecordDBMetric(ctx, a.metrics, "sample", time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return events, nil
}

// Distinct returns the sorted non-empty string values of field
func (a *MongoEventAdapter) Distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	ctx, span := observability.StartSpan(ctx, "mongo.events.distinct")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	observability.SetSpanAttributes(span, attribute.String("db.field", field))

	start := time.Now()
	values, err := a.collection.Distinct(ctx, field, filter)
	observability.RecordDBMetric(ctx, a.metrics, "distinct", time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError(fmt.Sprintf("failed to list distinct %s", field), err)
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func decodeEvents(ctx context.Context, cursor *mongo.Cursor) ([]*entities.Event, error) {
	defer cursor.Close(ctx)

	var events []*entities.Event
	for cursor.Next(ctx) {
		var e entities.Event
		if err := cursor.Decode(&e); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("skipping undecodable event")
			continue
		}
		events = append(events, &e)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewExternalError("failed to read events", err)
	}
	return events, nil
}
