package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/providers"
	tsclient "github.com/mydscvr/backend/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// TypesenseAdapter completes queries against the indexed events collection
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.SuggestionProvider = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema creates the events collection if it does not exist yet
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	name := a.client.EventsCollection()
	if _, err := a.client.Client().Collection(name).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: name,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "venue_area", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "status", Type: "string", Facet: pointer.True()},
			{Name: "start_date", Type: "int64"},
		},
		DefaultSortingField: pointer.String("start_date"),
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	return nil
}

// Index upserts one event document
func (a *TypesenseAdapter) Index(ctx context.Context, event *entities.Event) error {
	if event.ID.IsZero() {
		return fmt.Errorf("event %q has no id", event.Title)
	}
	document := map[string]interface{}{
		"id":         event.ID.Hex(),
		"title":      event.Title,
		"category":   event.Category,
		"venue_area": event.Venue.Area,
		"status":     event.Status,
		"start_date": event.StartDate.Unix(),
	}

	if _, err := a.client.Client().Collection(a.client.EventsCollection()).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("failed to index event: %w", err)
	}
	return nil
}

// Suggest returns titles of active events matching prefix
func (a *TypesenseAdapter) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	params := &api.SearchCollectionParams{
		Q:             pointer.String(prefix),
		QueryBy:       pointer.String("title,venue_area,category"),
		FilterBy:      pointer.String("status:=active"),
		IncludeFields: pointer.String("title"),
		PerPage:       pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(a.client.EventsCollection()).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search events index: %w", err)
	}
	if result.Hits == nil {
		return []string{}, nil
	}

	titles := make([]string, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		title, ok := (*hit.Document)["title"].(string)
		if !ok || strings.TrimSpace(title) == "" {
			continue
		}
		titles = append(titles, title)
	}
	return titles, nil
}
