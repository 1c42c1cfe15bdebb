package services

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mydscvr/backend/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

//go:embed search_keywords.yaml
var defaultKeywordTables []byte

// KeywordTable maps a canonical name to the phrases that select it
type KeywordTable struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// PriceTierTerms maps a price tier to its trigger phrases
type PriceTierTerms struct {
	Tier  entities.PriceTier `yaml:"tier"`
	Terms []string           `yaml:"terms"`
}

// PriceTables holds the price vocabulary and thresholds in AED
type PriceTables struct {
	BudgetMax  float64          `yaml:"budget_max"`
	PremiumMin float64          `yaml:"premium_min"`
	Tiers      []PriceTierTerms `yaml:"tiers"`
}

// FamilyTables holds family phrases and the stored tags they map to
type FamilyTables struct {
	ScoreThreshold int      `yaml:"score_threshold"`
	MaxChildAge    int      `yaml:"max_child_age"`
	Required       []string `yaml:"required"`
	Excluded       []string `yaml:"excluded"`
	FamilyTags     []string `yaml:"family_tags"`
	AdultTags      []string `yaml:"adult_tags"`
}

// KeywordTables is the data driving intent extraction and filter compilation
type KeywordTables struct {
	StopWords  []string       `yaml:"stop_words"`
	KeepShort  []string       `yaml:"keep_short"`
	Price      PriceTables    `yaml:"price"`
	Locations  []KeywordTable `yaml:"locations"`
	Categories []KeywordTable `yaml:"categories"`
	Family     FamilyTables   `yaml:"family"`
}

// LoadKeywordTables reads tables from path, or the built-in tables when path is empty
func LoadKeywordTables(path string) (*KeywordTables, error) {
	data := defaultKeywordTables
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read keyword tables: %w", err)
		}
		data = raw
	}
	return ParseKeywordTables(data)
}

// DefaultKeywordTables returns the built-in tables
func DefaultKeywordTables() *KeywordTables {
	tables, err := ParseKeywordTables(defaultKeywordTables)
	if err != nil {
		panic(err)
	}
	return tables
}

// ParseKeywordTables decodes and validates YAML keyword tables
func ParseKeywordTables(data []byte) (*KeywordTables, error) {
	var t KeywordTables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse keyword tables: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *KeywordTables) validate() error {
	if t.Price.BudgetMax <= 0 || t.Price.PremiumMin <= t.Price.BudgetMax {
		return fmt.Errorf("invalid price thresholds: budget_max=%v premium_min=%v", t.Price.BudgetMax, t.Price.PremiumMin)
	}
	for _, tier := range t.Price.Tiers {
		switch tier.Tier {
		case entities.PriceTierFree, entities.PriceTierBudget, entities.PriceTierPremium:
		default:
			return fmt.Errorf("unknown price tier %q", tier.Tier)
		}
	}
	for _, group := range [][]KeywordTable{t.Locations, t.Categories} {
		for _, entry := range group {
			if entry.Name == "" || len(entry.Terms) == 0 {
				return fmt.Errorf("keyword table entry %q has no terms", entry.Name)
			}
		}
	}
	if t.Family.ScoreThreshold <= 0 {
		t.Family.ScoreThreshold = entities.FamilyScoreThreshold
	}
	return nil
}

// CategoryTerms returns the phrases of a canonical category
func (t *KeywordTables) CategoryTerms(name string) []string {
	return termsOf(t.Categories, name)
}

// LocationTerms returns the phrases of a canonical area
func (t *KeywordTables) LocationTerms(name string) []string {
	return termsOf(t.Locations, name)
}

func termsOf(table []KeywordTable, name string) []string {
	for _, entry := range table {
		if entry.Name == name {
			return entry.Terms
		}
	}
	return nil
}

type phraseEntry struct {
	phrase string
	name   string
}

// phraseIndex flattens a table into phrases ordered longest first
func phraseIndex(table []KeywordTable) []phraseEntry {
	var out []phraseEntry
	for _, entry := range table {
		for _, term := range entry.Terms {
			out = append(out, phraseEntry{phrase: strings.ToLower(term), name: entry.Name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(strings.Fields(out[i].phrase)) > len(strings.Fields(out[j].phrase)) ||
			(len(strings.Fields(out[i].phrase)) == len(strings.Fields(out[j].phrase)) && len(out[i].phrase) > len(out[j].phrase))
	})
	return out
}
