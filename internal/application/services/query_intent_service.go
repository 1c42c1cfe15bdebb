package services

import (
	"regexp"
	"strings"
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
)

var (
	apostrophes   = regexp.MustCompile(`['’]`)
	nonQueryChars = regexp.MustCompile(`[^\p{L}\p{N}\s+\-]`)
)

const minKeywordLength = 3

// QueryIntentService extracts structured search intent from free text
type QueryIntentService struct {
	tables    *KeywordTables
	temporal  *TemporalParser
	stopWords map[string]struct{}
	keepShort map[string]struct{}
	locations []phraseEntry
	category  []phraseEntry
}

// NewQueryIntentService builds an extractor over the given tables
func NewQueryIntentService(tables *KeywordTables, temporal *TemporalParser) *QueryIntentService {
	if tables == nil {
		tables = DefaultKeywordTables()
	}
	if temporal == nil {
		temporal = NewTemporalParser()
	}
	return &QueryIntentService{
		tables:    tables,
		temporal:  temporal,
		stopWords: toSet(tables.StopWords),
		keepShort: toSet(tables.KeepShort),
		locations: phraseIndex(tables.Locations),
		category:  phraseIndex(tables.Categories),
	}
}

// Tables exposes the keyword tables the extractor was built with
func (s *QueryIntentService) Tables() *KeywordTables {
	return s.tables
}

// Extract runs every keyword lookup plus the temporal parser. familyFlag,
// when set, wins over family keywords found in the text.
func (s *QueryIntentService) Extract(query string, familyFlag *bool, now time.Time) entities.QueryIntent {
	normalized := NormalizeQuery(query)

	intent := entities.QueryIntent{
		Query:    strings.TrimSpace(query),
		Keywords: s.keywords(normalized),
		Temporal: s.temporal.Parse(normalized, now),
		Family:   entities.FamilyUnspecified,
	}
	if normalized == "" {
		intent.Family = s.family(normalized, familyFlag)
		return intent
	}

	intent.PriceTier = s.priceTier(normalized)

	var remainder string
	intent.Locations, remainder = matchPhrases(s.locations, normalized)
	intent.Categories, _ = matchPhrases(s.category, remainder)
	intent.Family = s.family(normalized, familyFlag)

	return intent
}

// NormalizeQuery lower-cases, strips punctuation and collapses whitespace
func NormalizeQuery(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = apostrophes.ReplaceAllString(q, "")
	q = nonQueryChars.ReplaceAllString(q, " ")
	return strings.Join(strings.Fields(q), " ")
}

func (s *QueryIntentService) keywords(normalized string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, word := range strings.Fields(normalized) {
		word = strings.Trim(word, "+-")
		if word == "" {
			continue
		}
		if _, stop := s.stopWords[word]; stop {
			continue
		}
		if _, keep := s.keepShort[word]; !keep && len([]rune(word)) < minKeywordLength {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

func (s *QueryIntentService) priceTier(normalized string) entities.PriceTier {
	for _, tier := range s.tables.Price.Tiers {
		for _, term := range tier.Terms {
			if containsPhrase(normalized, strings.ToLower(term)) {
				return tier.Tier
			}
		}
	}
	return entities.PriceTierNone
}

func (s *QueryIntentService) family(normalized string, flag *bool) entities.FamilyIntent {
	if flag != nil {
		if *flag {
			return entities.FamilyRequired
		}
		return entities.FamilyExcluded
	}
	for _, phrase := range s.tables.Family.Excluded {
		if containsPhrase(normalized, strings.ToLower(phrase)) {
			return entities.FamilyExcluded
		}
	}
	for _, phrase := range s.tables.Family.Required {
		if containsPhrase(normalized, strings.ToLower(phrase)) {
			return entities.FamilyRequired
		}
	}
	return entities.FamilyUnspecified
}

// matchPhrases returns the canonical names hit by text, longest phrase first,
// and the text with every matched phrase blanked out so shorter phrases cannot
// match inside a longer one.
func matchPhrases(index []phraseEntry, text string) ([]string, string) {
	padded := " " + text + " "
	hits := make(map[string]struct{})
	var order []string

	for _, entry := range index {
		needle := " " + entry.phrase + " "
		if !strings.Contains(padded, needle) {
			continue
		}
		padded = strings.ReplaceAll(padded, needle, " | ")
		if _, ok := hits[entry.name]; !ok {
			hits[entry.name] = struct{}{}
			order = append(order, entry.name)
		}
	}

	return order, strings.TrimSpace(padded)
}

func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
