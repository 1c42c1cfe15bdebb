package services

import (
	"regexp"
	"strings"
	"time"

	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/pkg/dateutil"
)

const temporalConfidence = 0.9

type temporalRule struct {
	pattern *regexp.Regexp
	rng     dateutil.NamedRange
}

func rule(expr string, rng dateutil.NamedRange) temporalRule {
	return temporalRule{pattern: regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`), rng: rng}
}

// temporalRules are evaluated in order and the first hit wins, so the
// specific phrases ("next weekend") sit above the generic ones ("weekend").
var temporalRules = []temporalRule{
	rule(`today|tonight|this\s+evening`, dateutil.Today),
	rule(`tomorrow|tmrw`, dateutil.Tomorrow),

	rule(`this\s+weekend|this\s+(?:saturday|sunday)`, dateutil.ThisWeekend),
	rule(`(?:next|coming)\s+weekend|next\s+(?:saturday|sunday)`, dateutil.NextWeekend),

	rule(`later\s+this\s+week|this\s+week|in\s+a\s+few\s+days|this\s+(?:monday|tuesday|wednesday|thursday|friday)`, dateutil.ThisWeek),
	rule(`early\s+next\s+week|(?:next|coming)\s+week|next\s+(?:monday|tuesday|wednesday|thursday|friday)`, dateutil.NextWeek),

	rule(`this\s+month`, dateutil.ThisMonth),
	rule(`(?:next|coming)\s+month`, dateutil.NextMonth),

	rule(`on\s+(?:the\s+)?weekends?|weekends?|saturdays|sundays`, dateutil.Weekends),
	rule(`weekdays?|during\s+the\s+week|monday\s+to\s+friday|mon-fri`, dateutil.Weekdays),
}

// TemporalParser finds relative date phrases in free text
type TemporalParser struct {
	rules []temporalRule
}

// NewTemporalParser creates a parser over the built-in phrase table
func NewTemporalParser() *TemporalParser {
	return &TemporalParser{rules: temporalRules}
}

// Parse detects the first temporal phrase in query and resolves it against
// now. A query without one yields a zero intent.
func (p *TemporalParser) Parse(query string, now time.Time) entities.TemporalIntent {
	q := strings.ToLower(query)
	for _, r := range p.rules {
		phrase := r.pattern.FindString(q)
		if phrase == "" {
			continue
		}

		intent := entities.TemporalIntent{
			Range:      r.rng,
			Phrase:     phrase,
			Confidence: temporalConfidence,
		}
		if r.rng.IsRecurring() {
			intent.PostFilter = r.rng
			return intent
		}

		start, end, err := dateutil.RangeFor(r.rng, now)
		if err != nil {
			continue
		}
		intent.Start = &start
		intent.End = &end
		return intent
	}
	return entities.TemporalIntent{}
}
