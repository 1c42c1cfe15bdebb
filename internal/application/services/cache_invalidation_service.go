package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/providers"
	"github.com/mydscvr/backend/internal/infrastructure/observability"
)

// Cached response keys derived from the event store. Search results are not
// cached, so only the catalogue-style endpoints need clearing.
var eventDerivedCachePatterns = []string{
	"http:cache:*/api/search/filters*",
	"http:cache:*/api/search/suggestions*",
}

// CacheInvalidationService clears cached responses when ingestion reports changes
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start subscribes to event store changes
func (s *CacheInvalidationService) Start() error {
	changes, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to event updates: %w", err)
	}

	s.started = true
	go s.processChanges(changes)
	observability.GetLogger().Info().Str("channel", providers.EventChannelUpdates).Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the listener to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	observability.GetLogger().Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processChanges(changes <-chan *entities.EventChange) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change == nil {
				continue
			}
			s.handleChange(change)
		}
	}
}

func (s *CacheInvalidationService) handleChange(change *entities.EventChange) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := observability.GetLogger().With().
		Str("change_id", change.ID).
		Str("change_type", string(change.Type)).
		Str("source", change.Source).
		Logger()

	deleted, err := s.InvalidateEventCaches(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate event caches")
		return
	}
	logger.Debug().Int("deleted", deleted).Msg("invalidated event caches")
}

// InvalidateEventCaches drops every cached response derived from stored events
func (s *CacheInvalidationService) InvalidateEventCaches(ctx context.Context) (int, error) {
	total := 0
	for _, pattern := range eventDerivedCachePatterns {
		n, err := s.cache.DeletePattern(ctx, pattern)
		if err != nil {
			return total, fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
		total += n
	}
	return total, nil
}
