package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/mydscvr/backend/internal/infrastructure/observability"
	"github.com/mydscvr/backend/pkg/config"
	"github.com/mydscvr/backend/pkg/retry"
	"github.com/typesense/typesense-go/v2/typesense"
)

// Client represents a Typesense client. The events collection is populated
// by the ingestion pipeline; this service only reads it.
type Client struct {
	client           *typesense.Client
	eventsCollection string
}

// NewClient creates a new Typesense client and checks the server health
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	logger := observability.GetLogger()
	err := retry.DoWithLog(context.Background(), retry.QuickConfig(), "Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			healthy, err := client.Health(ctx, 2*time.Second)
			if err != nil {
				return err
			}
			if !healthy {
				return fmt.Errorf("typesense reports unhealthy")
			}
			return nil
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense health check failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	logger.Info().Msg("Successfully connected to Typesense")
	return &Client{client: client, eventsCollection: cfg.EventsCollection}, nil
}

// NewFromTypesense wraps an existing client, used by tests pointing at a fake server
func NewFromTypesense(client *typesense.Client, eventsCollection string) *Client {
	return &Client{client: client, eventsCollection: eventsCollection}
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// EventsCollection is the name of the indexed events collection
func (c *Client) EventsCollection() string {
	return c.eventsCollection
}
