package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryEventAdapter is an in-process event store that evaluates the same
// BSON filters as MongoDB. Used for development without MONGO_URI and by tests.
type MemoryEventAdapter struct {
	mu     sync.RWMutex
	events []*entities.Event
	docs   []bson.M
}

var _ repositories.EventRepository = (*MemoryEventAdapter)(nil)

// NewMemoryEventAdapter creates a store seeded with events
func NewMemoryEventAdapter(events ...*entities.Event) (*MemoryEventAdapter, error) {
	a := &MemoryEventAdapter{}
	if err := a.Insert(events...); err != nil {
		return nil, err
	}
	return a, nil
}

// Insert adds events, assigning ids to those without one
func (a *MemoryEventAdapter) Insert(events ...*entities.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range events {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		raw, err := bson.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", e.ID.Hex(), err)
		}
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode event %s: %w", e.ID.Hex(), err)
		}
		a.events = append(a.events, e)
		a.docs = append(a.docs, doc)
	}
	return nil
}

// Len returns the number of stored events
func (a *MemoryEventAdapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.events)
}

type storedEvent struct {
	event *entities.Event
	doc   bson.M
}

func (a *MemoryEventAdapter) match(ctx context.Context, filter bson.M) ([]storedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []storedEvent
	for i, doc := range a.docs {
		ok, err := matchDocument(doc, filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter: %w", err)
		}
		if ok {
			out = append(out, storedEvent{event: a.events[i], doc: doc})
		}
	}
	return out, nil
}

// Find returns matching events in sort order, capped at q.Limit
func (a *MemoryEventAdapter) Find(ctx context.Context, q repositories.EventQuery) ([]*entities.Event, error) {
	matched, err := a.match(ctx, q.Filter)
	if err != nil {
		return nil, err
	}

	order := q.Sort
	if len(order) == 0 {
		order = bson.D{{Key: "start_date", Value: 1}}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		for _, key := range order {
			c, _ := compareValues(first(lookup(matched[i].doc, key.Key)), first(lookup(matched[j].doc, key.Key)))
			if c == 0 {
				continue
			}
			if dir, _ := key.Value.(int); dir < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return eventsOf(matched), nil
}

// Sample returns up to size matching events in random order
func (a *MemoryEventAdapter) Sample(ctx context.Context, filter bson.M, size int) ([]*entities.Event, error) {
	matched, err := a.match(ctx, filter)
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(matched), func(i, j int) { matched[i], matched[j] = matched[j], matched[i] })
	if size > 0 && len(matched) > size {
		matched = matched[:size]
	}
	return eventsOf(matched), nil
}

// Distinct returns the sorted non-empty string values of field
func (a *MemoryEventAdapter) Distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	matched, err := a.match(ctx, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, m := range matched {
		for _, v := range lookup(m.doc, field).candidates() {
			if s, ok := v.(string); ok && s != "" {
				seen[s] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func first(f fieldValue) interface{} {
	if len(f.values) == 0 {
		return nil
	}
	return f.values[0]
}

func eventsOf(matched []storedEvent) []*entities.Event {
	out := make([]*entities.Event, len(matched))
	for i, m := range matched {
		out[i] = m.event
	}
	return out
}
