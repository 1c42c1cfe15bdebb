package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/pkg/dateutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntentService(t *testing.T) *QueryIntentService {
	t.Helper()
	tables, err := LoadKeywordTables("")
	require.NoError(t, err)
	return NewQueryIntentService(tables, NewTemporalParser())
}

func boolPtr(b bool) *bool { return &b }

func TestExtract_FreeEventsThisWeekend(t *testing.T) {
	intent := newIntentService(t).Extract("Free events this weekend!", nil, wednesday)

	assert.Equal(t, entities.PriceTierFree, intent.PriceTier)
	assert.Equal(t, dateutil.ThisWeekend, intent.Temporal.Range)
	assert.Equal(t, []string{"free"}, intent.Keywords)
	assert.Empty(t, intent.Locations)
	assert.Equal(t, entities.FamilyUnspecified, intent.Family)
}

func TestExtract_FamilyInMarina(t *testing.T) {
	intent := newIntentService(t).Extract("family activities in marina", nil, wednesday)

	assert.Equal(t, []string{"Dubai Marina"}, intent.Locations)
	assert.Equal(t, entities.FamilyRequired, intent.Family)
	assert.False(t, intent.Temporal.Detected())
}

func TestExtract_NoIntent(t *testing.T) {
	intent := newIntentService(t).Extract("things to do", nil, wednesday)

	assert.Empty(t, intent.Keywords)
	assert.Empty(t, intent.PriceTier)
	assert.Empty(t, intent.Locations)
	assert.Empty(t, intent.Categories)
	assert.Equal(t, entities.FamilyUnspecified, intent.Family)
	assert.False(t, intent.Temporal.Detected())
}

func TestExtract_ShortWordAllowList(t *testing.T) {
	intent := newIntentService(t).Extract("art and spa at the zoo or a gym", nil, wednesday)

	assert.Equal(t, []string{"art", "spa", "zoo", "gym"}, intent.Keywords)
	assert.Equal(t, []string{"arts", "sports"}, intent.Categories)
}

func TestExtract_LongestLocationWins(t *testing.T) {
	svc := newIntentService(t)

	assert.Equal(t, []string{"Palm Jumeirah"}, svc.Extract("brunch on palm jumeirah", nil, wednesday).Locations)
	assert.Equal(t, []string{"Jumeirah"}, svc.Extract("beach day jumeirah", nil, wednesday).Locations)

	intent := svc.Extract("concerts at festival city", nil, wednesday)
	assert.Equal(t, []string{"Festival City"}, intent.Locations)
	assert.Equal(t, []string{"music"}, intent.Categories)
}

func TestExtract_PriceTiers(t *testing.T) {
	svc := newIntentService(t)

	assert.Equal(t, entities.PriceTierBudget, svc.Extract("cheap eats", nil, wednesday).PriceTier)
	assert.Equal(t, entities.PriceTierBudget, svc.Extract("low cost workshops", nil, wednesday).PriceTier)
	assert.Equal(t, entities.PriceTierPremium, svc.Extract("luxury yacht party", nil, wednesday).PriceTier)
	assert.Equal(t, entities.PriceTierNone, svc.Extract("freestyle football", nil, wednesday).PriceTier)
}

func TestExtract_FamilyExclusionAndOverride(t *testing.T) {
	svc := newIntentService(t)

	assert.Equal(t, entities.FamilyExcluded, svc.Extract("rooftop bar 21+ no kids", nil, wednesday).Family)
	assert.Equal(t, entities.FamilyExcluded, svc.Extract("kids party", boolPtr(false), wednesday).Family)
	assert.Equal(t, entities.FamilyRequired, svc.Extract("jazz night", boolPtr(true), wednesday).Family)
}

func TestExtract_Deterministic(t *testing.T) {
	svc := newIntentService(t)
	q := "cheap family music and art in downtown or jbr next weekend"

	first := svc.Extract(q, nil, wednesday)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, svc.Extract(q, nil, wednesday))
	}
	assert.Equal(t, []string{"Downtown Dubai", "JBR"}, first.Locations)
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "whats on in dubai marina 18+", NormalizeQuery("  What's on in Dubai Marina?? 18+ "))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestLoadKeywordTables_FromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
price:
  budget_max: 50
  premium_min: 300
  tiers:
    - tier: free
      terms: [gratis]
locations:
  - name: Hatta
    terms: [hatta]
categories: []
family:
  required: [kids]
`), 0o600))

	tables, err := LoadKeywordTables(path)
	require.NoError(t, err)
	assert.Equal(t, 50.0, tables.Price.BudgetMax)
	assert.Equal(t, entities.FamilyScoreThreshold, tables.Family.ScoreThreshold)

	intent := NewQueryIntentService(tables, nil).Extract("gratis hatta hike", nil, wednesday)
	assert.Equal(t, entities.PriceTierFree, intent.PriceTier)
	assert.Equal(t, []string{"Hatta"}, intent.Locations)
}

func TestLoadKeywordTables_Invalid(t *testing.T) {
	_, err := ParseKeywordTables([]byte("price:\n  budget_max: 600\n  premium_min: 500\n"))
	assert.Error(t, err)

	_, err = LoadKeywordTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
