package routes

import (
	"net/http"

	"github.com/mydscvr/backend/internal/api/handlers"
	"github.com/mydscvr/backend/internal/api/middleware"
	"github.com/mydscvr/backend/internal/infrastructure/observability"
	"github.com/mydscvr/backend/pkg/ratelimit"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler    *handlers.SearchHandler
	analyticsHandler *handlers.AnalyticsHandler

	searchLimiter   *ratelimit.Limiter
	apiLimiter      *ratelimit.Limiter
	cacheMiddleware *middleware.CacheMiddleware
	httpMetrics     *middleware.HTTPMetrics
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// Options wires the router. Nil limiters, cache or analytics handler leave
// the corresponding feature off.
type Options struct {
	SearchHandler    *handlers.SearchHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	SearchLimiter    *ratelimit.Limiter
	APILimiter       *ratelimit.Limiter
	CacheMiddleware  *middleware.CacheMiddleware
	HTTPMetrics      *middleware.HTTPMetrics
	Metrics          *observability.Metrics
	AllowedOrigins   []string
}

// NewRouter creates a new router
func NewRouter(opts Options) *Router {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Router{
		mux:              http.NewServeMux(),
		searchHandler:    opts.SearchHandler,
		analyticsHandler: opts.AnalyticsHandler,
		searchLimiter:    opts.SearchLimiter,
		apiLimiter:       opts.APILimiter,
		cacheMiddleware:  opts.CacheMiddleware,
		httpMetrics:      opts.HTTPMetrics,
		metrics:          opts.Metrics,
		allowedOrigins:   origins,
	}
}

// limit wraps h with each non-nil limiter, outermost first
func (r *Router) limit(h http.Handler, limiters ...*ratelimit.Limiter) http.Handler {
	for i := len(limiters) - 1; i >= 0; i-- {
		if limiters[i] != nil {
			h = middleware.RateLimit(limiters[i], r.metrics, r.httpMetrics)(h)
		}
	}
	return h
}

func (r *Router) cached(h http.Handler) http.Handler {
	if r.cacheMiddleware == nil {
		return h
	}
	return r.cacheMiddleware.Middleware(h)
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if r.httpMetrics != nil {
		r.mux.Handle("GET /metrics", r.httpMetrics.Handler())
	}

	// Search endpoints
	search := http.HandlerFunc(r.searchHandler.Search)
	r.mux.Handle("GET /api/search", r.limit(search, r.apiLimiter, r.searchLimiter))
	r.mux.Handle("GET /search", r.limit(search, r.searchLimiter))

	r.mux.Handle("GET /api/search/suggestions",
		r.limit(r.cached(http.HandlerFunc(r.searchHandler.Suggestions)), r.apiLimiter, r.searchLimiter))
	r.mux.Handle("GET /api/search/filters",
		r.limit(r.cached(http.HandlerFunc(r.searchHandler.Filters)), r.apiLimiter))
	r.mux.Handle("GET /api/search/date-filters",
		r.limit(r.cached(http.HandlerFunc(r.searchHandler.DateFilters)), r.apiLimiter))

	// Analytics endpoints
	if r.analyticsHandler != nil {
		r.mux.Handle("GET /api/analytics/zero-result-queries",
			r.limit(http.HandlerFunc(r.analyticsHandler.ZeroResultQueries), r.apiLimiter))
	}

	// Last applied wraps first. The metrics middleware sits directly on the
	// mux so it sees the matched pattern.
	var handler http.Handler = r.mux
	handler = r.httpMetrics.Middleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set on cache hits and 429s
	handler = middleware.CORS(r.allowedOrigins)(handler)

	return handler
}
