package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func TestInitMetrics_NoopProvider(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)
	require.NotNil(t, m.SearchCount)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, m, "GET", "GET /api/search", 200, 12*time.Millisecond)
		RecordSearch(ctx, m, "relaxed", true, 3)
		RecordScoring(ctx, m, "degraded", time.Second)
		RecordRateLimitReject(ctx, m, "search")
		RecordCacheHit(ctx, m, "/api/search/filters")
	})
}

func TestRecorders_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/", 200, 0)
		RecordDBMetric(ctx, nil, "find", 0)
		RecordSearch(ctx, nil, "strict", false, 0)
		RecordScoring(ctx, nil, "scored", 0)
		RecordRateLimitReject(ctx, nil, "api")
		RecordCacheMiss(ctx, nil, "/")
	})
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, otellog.SeverityInfo, severityFor(zerolog.InfoLevel))
	assert.Equal(t, otellog.SeverityWarn, severityFor(zerolog.WarnLevel))
	assert.Equal(t, otellog.SeverityError, severityFor(zerolog.ErrorLevel))
	assert.Equal(t, otellog.SeverityFatal, severityFor(zerolog.PanicLevel))
}

func TestLoggerFromContext_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggerFromContext(context.Background()).Output(&buf)
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "trace_id")
}
