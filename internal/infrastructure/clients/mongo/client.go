package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/mydscvr/backend/internal/infrastructure/observability"
	"github.com/mydscvr/backend/pkg/config"
	"github.com/mydscvr/backend/pkg/retry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client wraps a pooled MongoDB connection bound to one database
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	timeout  time.Duration
}

// NewClient connects to MongoDB and verifies the primary is reachable
func NewClient(ctx context.Context, cfg *config.MongoConfig) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("MONGO_URI is not set")
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("dxb-events-api").
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetServerSelectionTimeout(cfg.Timeout()).
		SetReadPreference(readpref.SecondaryPreferred())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	logger := observability.GetLogger()
	err = retry.DoWithLog(ctx, retry.DefaultConfig(), "MongoDB",
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return client.Ping(pingCtx, readpref.Primary())
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("MongoDB ping failed")
		},
	)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to MongoDB after retries: %w", err)
	}

	logger.Info().Str("database", cfg.Database).Msg("Successfully connected to MongoDB")
	return &Client{
		client:   client,
		database: client.Database(cfg.Database),
		timeout:  cfg.Timeout(),
	}, nil
}

// Collection returns a handle on a collection of the configured database
func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

// Timeout is the per-operation deadline adapters apply
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Ping verifies the connection to the primary
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the pool
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
