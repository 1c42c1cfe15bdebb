package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	OpenAI    OpenAIConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
	Analytics AnalyticsConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string
	Port           int
	Environment    string
	AllowedOrigins []string
}

// MongoConfig holds the event store configuration
type MongoConfig struct {
	URI              string
	Database         string
	EventsCollection string
	TimeoutSeconds   int
}

// DatabaseConfig holds the analytics database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL              string
	APIKey           string
	EventsCollection string
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	RateLimitRPM   int
	RateLimitBurst int
}

// SearchConfig holds tuning knobs for the search pipeline
type SearchConfig struct {
	StrictLimit          int
	BroadLimit           int
	DefaultPerPage       int
	MaxPerPage           int
	ScoringTimeoutMs     int
	MaxScoredCandidates  int
	PromptTokenBudget    int
	KeywordsPath         string
	FamilyScoreThreshold int
}

// RateLimitConfig holds per-endpoint limiter settings
type RateLimitConfig struct {
	Backend             string
	SearchRequests      int
	SearchWindowSeconds int
	APIRequests         int
	APIWindowSeconds    int
	SweepSeconds        int
}

// AnalyticsConfig toggles search analytics persistence
type AnalyticsConfig struct {
	Enabled bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
	ExportLogs     bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment wins.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Environment:    getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		},
		Mongo: MongoConfig{
			URI:              getEnv("MONGO_URI", ""),
			Database:         getEnv("MONGO_DATABASE", "dxb_events"),
			EventsCollection: getEnv("MONGO_EVENTS_COLLECTION", "events"),
			TimeoutSeconds:   getEnvAsInt("MONGO_TIMEOUT_SECONDS", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "dxb_events_analytics"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:              getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:           getEnv("TYPESENSE_API_KEY", ""),
			EventsCollection: getEnv("TYPESENSE_EVENTS_COLLECTION", "events"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		Search: SearchConfig{
			StrictLimit:          getEnvAsInt("SEARCH_STRICT_LIMIT", 50),
			BroadLimit:           getEnvAsInt("SEARCH_BROAD_LIMIT", 100),
			DefaultPerPage:       getEnvAsInt("SEARCH_DEFAULT_PER_PAGE", 20),
			MaxPerPage:           getEnvAsInt("SEARCH_MAX_PER_PAGE", 50),
			ScoringTimeoutMs:     getEnvAsInt("SEARCH_SCORING_TIMEOUT_MS", 8000),
			MaxScoredCandidates:  getEnvAsInt("SEARCH_MAX_SCORED", 15),
			PromptTokenBudget:    getEnvAsInt("SEARCH_PROMPT_TOKEN_BUDGET", 3000),
			KeywordsPath:         getEnv("SEARCH_KEYWORDS_PATH", ""),
			FamilyScoreThreshold: getEnvAsInt("SEARCH_FAMILY_SCORE_THRESHOLD", 60),
		},
		RateLimit: RateLimitConfig{
			Backend:             getEnv("RATE_LIMIT_BACKEND", "memory"),
			SearchRequests:      getEnvAsInt("RATE_LIMIT_SEARCH_REQUESTS", 100),
			SearchWindowSeconds: getEnvAsInt("RATE_LIMIT_SEARCH_WINDOW_SECONDS", 60),
			APIRequests:         getEnvAsInt("RATE_LIMIT_API_REQUESTS", 1000),
			APIWindowSeconds:    getEnvAsInt("RATE_LIMIT_API_WINDOW_SECONDS", 60),
			SweepSeconds:        getEnvAsInt("RATE_LIMIT_SWEEP_SECONDS", 300),
		},
		Analytics: AnalyticsConfig{
			Enabled: getEnvAsBool("ANALYTICS_ENABLED", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "dxb-events-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ExportLogs:     getEnvAsBool("OTEL_EXPORT_LOGS", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Search.MaxPerPage <= 0 {
		return fmt.Errorf("SEARCH_MAX_PER_PAGE must be positive, got %d", c.Search.MaxPerPage)
	}
	if c.Search.DefaultPerPage <= 0 || c.Search.DefaultPerPage > c.Search.MaxPerPage {
		return fmt.Errorf("SEARCH_DEFAULT_PER_PAGE must be between 1 and %d, got %d", c.Search.MaxPerPage, c.Search.DefaultPerPage)
	}
	if c.Search.StrictLimit <= 0 || c.Search.BroadLimit < c.Search.StrictLimit {
		return fmt.Errorf("search limits invalid: strict=%d broad=%d", c.Search.StrictLimit, c.Search.BroadLimit)
	}
	if c.RateLimit.SearchRequests <= 0 || c.RateLimit.APIRequests <= 0 {
		return fmt.Errorf("rate limit request counts must be positive")
	}
	if c.RateLimit.SearchWindowSeconds <= 0 || c.RateLimit.APIWindowSeconds <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("RATE_LIMIT_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the per-operation Mongo timeout
func (c *MongoConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ScoringTimeout returns the relevance scoring deadline
func (c *SearchConfig) ScoringTimeout() time.Duration {
	return time.Duration(c.ScoringTimeoutMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
