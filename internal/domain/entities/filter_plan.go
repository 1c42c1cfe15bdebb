package entities

import (
	"github.com/mydscvr/backend/pkg/dateutil"
	"go.mongodb.org/mongo-driver/bson"
)

// FilterGroup names one conjunct of a compiled filter
type FilterGroup string

const (
	FilterGroupBase     FilterGroup = "base"
	FilterGroupTemporal FilterGroup = "temporal"
	FilterGroupPrice    FilterGroup = "price"
	FilterGroupLocation FilterGroup = "location"
	FilterGroupCategory FilterGroup = "category"
	FilterGroupFamily   FilterGroup = "family"
)

// FilterPlan is the compiled form of a QueryIntent
type FilterPlan struct {
	Strict  bson.M `json:"strict"`
	Relaxed bson.M `json:"relaxed"`

	// Groups lists the conjuncts present in Strict, in compile order
	Groups []FilterGroup `json:"groups"`
	// DroppedOnRelax lists the groups Relaxed leaves out
	DroppedOnRelax []FilterGroup `json:"dropped_on_relax"`

	PostFilter  dateutil.NamedRange `json:"post_filter,omitempty"`
	StrictLimit int                 `json:"strict_limit"`
	BroadLimit  int                 `json:"broad_limit"`
	Sample      bool                `json:"sample"`

	Keywords []string `json:"keywords"`
}

// CanRelax reports whether a relaxed retry would change the filter
func (p *FilterPlan) CanRelax() bool {
	return len(p.DroppedOnRelax) > 0
}

// FetchStage is the terminal state of the fetch state machine
type FetchStage string

const (
	FetchStageStrict  FetchStage = "strict"
	FetchStageRelaxed FetchStage = "relaxed"
)

// FetchResult is what the fetcher hands to scoring
type FetchResult struct {
	Events  []*Event
	Stage   FetchStage
	Relaxed bool
	Sampled bool
	Dropped []FilterGroup
}
