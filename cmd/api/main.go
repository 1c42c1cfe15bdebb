package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mydscvr/backend/internal/adapters/cache"
	"github.com/mydscvr/backend/internal/adapters/database"
	"github.com/mydscvr/backend/internal/adapters/events"
	"github.com/mydscvr/backend/internal/adapters/search"
	"github.com/mydscvr/backend/internal/api/handlers"
	"github.com/mydscvr/backend/internal/api/middleware"
	"github.com/mydscvr/backend/internal/api/routes"
	"github.com/mydscvr/backend/internal/application/services"
	"github.com/mydscvr/backend/internal/domain/providers"
	"github.com/mydscvr/backend/internal/domain/repositories"
	mongoclient "github.com/mydscvr/backend/internal/infrastructure/clients/mongo"
	"github.com/mydscvr/backend/internal/infrastructure/clients/openai"
	"github.com/mydscvr/backend/internal/infrastructure/clients/postgres"
	redisclient "github.com/mydscvr/backend/internal/infrastructure/clients/redis"
	tsclient "github.com/mydscvr/backend/internal/infrastructure/clients/typesense"
	"github.com/mydscvr/backend/internal/infrastructure/observability"
	"github.com/mydscvr/backend/pkg/config"
	"github.com/mydscvr/backend/pkg/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, observability.SetupOptions{
			ServiceName:    cfg.OTEL.ServiceName,
			ServiceVersion: cfg.OTEL.ServiceVersion,
			Endpoint:       cfg.OTEL.Endpoint,
			ExportLogs:     cfg.OTEL.ExportLogs,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			if cfg.OTEL.ExportLogs {
				observability.EnableLogExport()
				logger = observability.GetLogger()
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Event store
	var eventRepo repositories.EventRepository
	if cfg.Mongo.URI == "" {
		if !cfg.Server.IsDevelopment() {
			logger.Fatal().Msg("MONGO_URI is required outside development")
		}
		memStore, err := database.NewMemoryEventAdapter()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create in-memory event store")
		}
		eventRepo = memStore
		logger.Warn().Msg("MONGO_URI not set, serving from an empty in-memory event store")
	} else {
		mongoClient, err := mongoclient.NewClient(ctx, &cfg.Mongo)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Close(closeCtx)
		}()
		eventRepo = database.NewMongoEventAdapter(mongoClient, cfg.Mongo.EventsCollection, metrics)
		logger.Info().Str("database", cfg.Mongo.Database).Msg("MongoDB event store initialized")
	}

	// Redis backs the response cache, the event bus and optionally the limiter
	var redisClient *redisclient.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisclient.NewClient(&cfg.Redis)
		if err != nil {
			if cfg.RateLimit.Backend == "redis" {
				logger.Fatal().Err(err).Msg("redis rate limit backend configured but Redis is unavailable")
			}
			logger.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	// Optional search index for suggestions
	var suggestionIndex providers.SuggestionProvider
	if cfg.Typesense.APIKey != "" {
		typesenseClient, err := tsclient.NewClient(&cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize Typesense client, suggestions use the event store")
		} else {
			suggestionIndex = search.NewTypesenseAdapter(typesenseClient)
			logger.Info().Str("collection", cfg.Typesense.EventsCollection).Msg("Typesense suggestions enabled")
		}
	}

	// Optional analytics store
	var analyticsService *services.SearchAnalyticsService
	if cfg.Analytics.Enabled {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize PostgreSQL client, search analytics disabled")
		} else {
			defer pgClient.Close()
			analyticsAdapter := database.NewSearchAnalyticsAdapter(pgClient)
			if err := analyticsAdapter.EnsureSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to ensure search analytics schema")
			}
			analyticsService = services.NewSearchAnalyticsService(analyticsAdapter)
			logger.Info().Msg("search analytics enabled")
		}
	}

	// Optional relevance scoring
	var relevanceProvider providers.RelevanceProvider
	var tokenCounter providers.TokenCounter
	if cfg.OpenAI.APIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY is not set, relevance scoring disabled")
	} else {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize OpenAI client, relevance scoring disabled")
		} else {
			defer openaiClient.Close()
			relevanceProvider = openaiClient
			if counter, err := openai.NewTokenCounter(openaiClient.Model()); err != nil {
				logger.Warn().Err(err).Msg("tokenizer unavailable, estimating prompt size")
			} else {
				tokenCounter = counter
			}
		}
	}

	// Search pipeline
	tables, err := services.LoadKeywordTables(cfg.Search.KeywordsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load keyword tables")
	}
	if cfg.Search.FamilyScoreThreshold > 0 {
		tables.Family.ScoreThreshold = cfg.Search.FamilyScoreThreshold
	}

	intentService := services.NewQueryIntentService(tables, services.NewTemporalParser())
	relevanceService := services.NewRelevanceService(relevanceProvider, tokenCounter, services.RelevanceConfig{
		Timeout:           cfg.Search.ScoringTimeout(),
		MaxCandidates:     cfg.Search.MaxScoredCandidates,
		PromptTokenBudget: cfg.Search.PromptTokenBudget,
	}, metrics)
	searchService := services.NewEventSearchService(
		intentService,
		services.NewFilterCompiler(tables, cfg.Search.StrictLimit, cfg.Search.BroadLimit),
		services.NewResultFetcher(eventRepo, services.NewSearchRankingService()),
		relevanceService,
		analyticsService,
		metrics,
	)
	searchService.SetPageSizes(cfg.Search.DefaultPerPage, cfg.Search.MaxPerPage)

	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			logger.Warn().Err(err).Msg("failed to start cache invalidation service")
		} else {
			logger.Info().Msg("cache invalidation service started")
		}
	}

	// Rate limiters
	var limiterStore ratelimit.Store
	if cfg.RateLimit.Backend == "redis" && redisClient != nil {
		limiterStore = cache.NewRedisRateLimitStore(redisClient)
		logger.Info().Msg("rate limits shared through Redis")
	} else {
		memStore := ratelimit.NewMemoryStore()
		sweepEvery := time.Duration(cfg.RateLimit.SweepSeconds) * time.Second
		maxWindow := time.Duration(max(cfg.RateLimit.SearchWindowSeconds, cfg.RateLimit.APIWindowSeconds)) * time.Second
		memStore.StartSweeper(ctx, sweepEvery, maxWindow, func(removed int) {
			if removed > 0 {
				logger.Debug().Int("removed", removed).Msg("swept idle rate limit windows")
			}
		})
		limiterStore = memStore
	}

	searchLimiter, err := ratelimit.New("search", cfg.RateLimit.SearchRequests,
		time.Duration(cfg.RateLimit.SearchWindowSeconds)*time.Second, ratelimit.WithStore(limiterStore))
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid search rate limit")
	}
	apiLimiter, err := ratelimit.New("api", cfg.RateLimit.APIRequests,
		time.Duration(cfg.RateLimit.APIWindowSeconds)*time.Second, ratelimit.WithStore(limiterStore))
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid api rate limit")
	}

	// Handlers
	searchHandler := handlers.NewSearchHandler(
		searchService,
		services.NewSuggestionService(suggestionIndex, eventRepo),
		services.NewFilterOptionsService(eventRepo),
	)
	var analyticsHandler *handlers.AnalyticsHandler
	if analyticsService != nil {
		analyticsHandler = handlers.NewAnalyticsHandler(analyticsService)
	}

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, nil, metrics)
	}

	router := routes.NewRouter(routes.Options{
		SearchHandler:    searchHandler,
		AnalyticsHandler: analyticsHandler,
		SearchLimiter:    searchLimiter,
		APILimiter:       apiLimiter,
		CacheMiddleware:  cacheMiddleware,
		HTTPMetrics:      middleware.NewHTTPMetrics(),
		Metrics:          metrics,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", serverAddr).
			Bool("ai_enabled", relevanceService.Enabled()).
			Str("rate_limit_backend", cfg.RateLimit.Backend).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	}

	logger.Info().Msg("server stopped")
}
