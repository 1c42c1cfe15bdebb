package services

import (
	"regexp"
	"strings"
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
	"go.mongodb.org/mongo-driver/bson"
)

// Events fetched per stage when no limit is configured
const (
	DefaultStrictLimit = 50
	DefaultBroadLimit  = 100
)

// relaxOrder is the order dropped groups are reported in
var relaxOrder = []entities.FilterGroup{
	entities.FilterGroupCategory,
	entities.FilterGroupLocation,
	entities.FilterGroupPrice,
	entities.FilterGroupFamily,
}

// FilterCompiler turns a QueryIntent into MongoDB predicates. It is pure:
// the same intent and instant always compile to equal plans.
type FilterCompiler struct {
	tables      *KeywordTables
	strictLimit int
	broadLimit  int
}

// NewFilterCompiler creates a compiler. Non-positive limits use the defaults.
func NewFilterCompiler(tables *KeywordTables, strictLimit, broadLimit int) *FilterCompiler {
	if tables == nil {
		tables = DefaultKeywordTables()
	}
	if strictLimit <= 0 {
		strictLimit = DefaultStrictLimit
	}
	if broadLimit <= 0 {
		broadLimit = DefaultBroadLimit
	}
	return &FilterCompiler{tables: tables, strictLimit: strictLimit, broadLimit: broadLimit}
}

type compiledGroup struct {
	name entities.FilterGroup
	expr bson.M
}

// Compile builds the strict and relaxed filters for intent evaluated at now
func (c *FilterCompiler) Compile(intent entities.QueryIntent, now time.Time) entities.FilterPlan {
	groups := []compiledGroup{{entities.FilterGroupBase, baseFilter(now)}}

	temporal := intent.Temporal
	if temporal.Bounded() && temporal.PostFilter == "" {
		groups = append(groups, compiledGroup{entities.FilterGroupTemporal, overlapFilter(*temporal.Start, *temporal.End)})
	}
	if expr := c.priceFilter(intent.PriceTier); expr != nil {
		groups = append(groups, compiledGroup{entities.FilterGroupPrice, expr})
	}
	if expr := c.locationFilter(intent.Locations); expr != nil {
		groups = append(groups, compiledGroup{entities.FilterGroupLocation, expr})
	}
	if expr := c.categoryFilter(intent.Categories); expr != nil {
		groups = append(groups, compiledGroup{entities.FilterGroupCategory, expr})
	}
	if expr := c.familyFilter(intent.Family); expr != nil {
		groups = append(groups, compiledGroup{entities.FilterGroupFamily, expr})
	}

	plan := entities.FilterPlan{
		StrictLimit: c.strictLimit,
		BroadLimit:  c.broadLimit,
		PostFilter:  temporal.PostFilter,
		Keywords:    intent.Keywords,
	}
	if plan.PostFilter != "" {
		plan.StrictLimit = c.broadLimit
	}

	strict := make(bson.A, 0, len(groups))
	relaxed := bson.A{}
	present := make(map[entities.FilterGroup]bool, len(groups))
	for _, g := range groups {
		strict = append(strict, g.expr)
		plan.Groups = append(plan.Groups, g.name)
		present[g.name] = true
		if g.name == entities.FilterGroupBase || g.name == entities.FilterGroupTemporal {
			relaxed = append(relaxed, g.expr)
		}
	}
	for _, name := range relaxOrder {
		if present[name] {
			plan.DroppedOnRelax = append(plan.DroppedOnRelax, name)
		}
	}

	plan.Strict = bson.M{"$and": strict}
	plan.Relaxed = bson.M{"$and": relaxed}
	plan.Sample = !present[entities.FilterGroupTemporal] && plan.PostFilter == ""
	return plan
}

func baseFilter(now time.Time) bson.M {
	return bson.M{
		"status":   "active",
		"end_date": bson.M{"$gte": now.UTC()},
	}
}

// overlapFilter matches events whose run intersects [start, end]
func overlapFilter(start, end time.Time) bson.M {
	return bson.M{
		"start_date": bson.M{"$lte": end.UTC()},
		"end_date":   bson.M{"$gte": start.UTC()},
	}
}

func (c *FilterCompiler) priceFilter(tier entities.PriceTier) bson.M {
	switch tier {
	case entities.PriceTierFree:
		return bson.M{"$or": bson.A{
			bson.M{"price": bson.M{"$regex": `^\s*free`, "$options": "i"}},
			bson.M{"pricing.base_price": 0},
			bson.M{"price_data.min": 0},
		}}
	case entities.PriceTierBudget:
		return numericPriceFilter("$lte", c.tables.Price.BudgetMax)
	case entities.PriceTierPremium:
		return numericPriceFilter("$gt", c.tables.Price.PremiumMin)
	}
	return nil
}

func numericPriceFilter(op string, threshold float64) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"pricing.base_price": bson.M{op: threshold}},
		bson.M{"price_data.min": bson.M{op: threshold}},
	}}
}

func (c *FilterCompiler) locationFilter(locations []string) bson.M {
	if len(locations) == 0 {
		return nil
	}
	var terms []string
	for _, name := range locations {
		terms = append(terms, name)
		terms = append(terms, c.tables.LocationTerms(name)...)
	}
	pattern := wordPattern(terms)

	var or bson.A
	for _, field := range []string{"venue.area", "location", "venue.address"} {
		or = append(or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
	}
	return bson.M{"$or": or}
}

func (c *FilterCompiler) categoryFilter(categories []string) bson.M {
	if len(categories) == 0 {
		return nil
	}
	var terms []string
	for _, name := range categories {
		terms = append(terms, name)
		terms = append(terms, c.tables.CategoryTerms(name)...)
	}
	pattern := wordPattern(terms)
	exact := exactPattern(terms)

	return bson.M{"$or": bson.A{
		bson.M{"category": bson.M{"$regex": pattern, "$options": "i"}},
		bson.M{"primary_category": bson.M{"$regex": pattern, "$options": "i"}},
		bson.M{"secondary_categories": bson.M{"$regex": exact, "$options": "i"}},
		bson.M{"tags": bson.M{"$regex": exact, "$options": "i"}},
	}}
}

func (c *FilterCompiler) familyFilter(family entities.FamilyIntent) bson.M {
	ft := c.tables.Family
	switch family {
	case entities.FamilyRequired:
		include := bson.A{
			bson.M{"is_family_friendly": true},
			bson.M{"familyScore": bson.M{"$gte": ft.ScoreThreshold}},
		}
		if len(ft.FamilyTags) > 0 {
			include = append(include, bson.M{"tags": bson.M{"$regex": exactPattern(ft.FamilyTags), "$options": "i"}})
		}
		if ft.MaxChildAge > 0 {
			include = append(include, bson.M{"age_max": bson.M{"$lte": ft.MaxChildAge}})
		}
		expr := bson.M{"$or": include}
		if len(ft.AdultTags) > 0 {
			expr["$nor"] = bson.A{bson.M{"tags": bson.M{"$regex": exactPattern(ft.AdultTags), "$options": "i"}}}
		}
		return expr
	case entities.FamilyExcluded:
		return bson.M{"is_family_friendly": bson.M{"$ne": true}}
	}
	return nil
}

// wordPattern matches any of terms as whole words, allowing a plural
// suffix, so "art" matches "Art Fair" but not "party".
func wordPattern(terms []string) string {
	return `(?:^|[^a-z0-9])(?:` + alternation(terms) + `)(?:s|es)?(?:$|[^a-z0-9])`
}

// exactPattern matches a whole array element equal to one of terms
func exactPattern(terms []string) string {
	return `^(?:` + alternation(terms) + `)$`
}

// alternation builds a regex matching any of terms literally
func alternation(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range dedupe(terms) {
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	return strings.Join(quoted, "|")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
