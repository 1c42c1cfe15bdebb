package entities

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCurrency is used when an event does not state one
const DefaultCurrency = "AED"

// FamilyScoreThreshold is the familyScore at which an event counts as family friendly
const FamilyScoreThreshold = 60

// Event is an ingested listing. The search core only reads it.
type Event struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description,omitempty" json:"description,omitempty"`
	Category            string             `bson:"category,omitempty" json:"category,omitempty"`
	PrimaryCategory     string             `bson:"primary_category,omitempty" json:"primary_category,omitempty"`
	SecondaryCategories []string           `bson:"secondary_categories,omitempty" json:"secondary_categories,omitempty"`
	Tags                []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Venue               Venue              `bson:"venue" json:"venue"`
	Location            string             `bson:"location,omitempty" json:"location,omitempty"`

	Pricing   *Pricing   `bson:"pricing,omitempty" json:"pricing,omitempty"`
	PriceData *PriceData `bson:"price_data,omitempty" json:"price_data,omitempty"`
	PriceText string     `bson:"price,omitempty" json:"price,omitempty"`

	StartDate time.Time  `bson:"start_date" json:"start_date"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`

	FamilyScore      *int  `bson:"familyScore,omitempty" json:"family_score,omitempty"`
	IsFamilyFriendly *bool `bson:"is_family_friendly,omitempty" json:"is_family_friendly,omitempty"`
	AgeMin           *int  `bson:"age_min,omitempty" json:"age_min,omitempty"`
	AgeMax           *int  `bson:"age_max,omitempty" json:"age_max,omitempty"`

	Images     *EventImages `bson:"images,omitempty" json:"images,omitempty"`
	AIImageURL string       `bson:"ai_image_url,omitempty" json:"ai_image_url,omitempty"`
	ImageURL   string       `bson:"image_url,omitempty" json:"image_url,omitempty"`
	ImageURLs  []string     `bson:"image_urls,omitempty" json:"image_urls,omitempty"`
	EventURL   string       `bson:"event_url,omitempty" json:"event_url,omitempty"`

	Status string `bson:"status" json:"status"`
}

// Venue describes where an event happens
type Venue struct {
	Name      string   `bson:"name,omitempty" json:"name,omitempty"`
	Area      string   `bson:"area,omitempty" json:"area,omitempty"`
	Address   string   `bson:"address,omitempty" json:"address,omitempty"`
	City      string   `bson:"city,omitempty" json:"city,omitempty"`
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// Pricing is the primary structured price representation
type Pricing struct {
	BasePrice *float64 `bson:"base_price,omitempty" json:"base_price,omitempty"`
	MaxPrice  *float64 `bson:"max_price,omitempty" json:"max_price,omitempty"`
	Currency  string   `bson:"currency,omitempty" json:"currency,omitempty"`
}

// PriceData is the alternate structured representation some sources use
type PriceData struct {
	Min      *float64 `bson:"min,omitempty" json:"min,omitempty"`
	Max      *float64 `bson:"max,omitempty" json:"max,omitempty"`
	Currency string   `bson:"currency,omitempty" json:"currency,omitempty"`
}

// EventImages holds generated artwork
type EventImages struct {
	AIGenerated string `bson:"ai_generated,omitempty" json:"ai_generated,omitempty"`
}

// PriceVariant names which representation a price was read from
type PriceVariant string

const (
	PriceVariantPricing   PriceVariant = "pricing"
	PriceVariantPriceData PriceVariant = "price_data"
	PriceVariantText      PriceVariant = "text"
	PriceVariantUnknown   PriceVariant = "unknown"
)

// PriceInfo is the normalized price of an event
type PriceInfo struct {
	Variant  PriceVariant
	Min      float64
	Max      *float64
	Currency string
	Known    bool
}

// IsFree reports a known zero price
func (p PriceInfo) IsFree() bool {
	return p.Known && p.Min == 0 && (p.Max == nil || *p.Max == 0)
}

type priceResolver func(e *Event) (PriceInfo, bool)

// priceResolvers are tried in order; the first representation present wins.
var priceResolvers = []priceResolver{
	func(e *Event) (PriceInfo, bool) {
		if e.Pricing == nil || e.Pricing.BasePrice == nil {
			return PriceInfo{}, false
		}
		return PriceInfo{
			Variant:  PriceVariantPricing,
			Min:      *e.Pricing.BasePrice,
			Max:      e.Pricing.MaxPrice,
			Currency: e.Pricing.Currency,
			Known:    true,
		}, true
	},
	func(e *Event) (PriceInfo, bool) {
		if e.PriceData == nil || e.PriceData.Min == nil {
			return PriceInfo{}, false
		}
		return PriceInfo{
			Variant:  PriceVariantPriceData,
			Min:      *e.PriceData.Min,
			Max:      e.PriceData.Max,
			Currency: e.PriceData.Currency,
			Known:    true,
		}, true
	},
	func(e *Event) (PriceInfo, bool) {
		return parsePriceText(e.PriceText)
	},
}

// ResolvePrice reads the event price from the first representation present
func ResolvePrice(e *Event) PriceInfo {
	for _, resolve := range priceResolvers {
		if info, ok := resolve(e); ok {
			if info.Currency == "" {
				info.Currency = DefaultCurrency
			}
			return info
		}
	}
	return PriceInfo{Variant: PriceVariantUnknown, Currency: DefaultCurrency}
}

var priceNumberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

func parsePriceText(text string) (PriceInfo, bool) {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return PriceInfo{}, false
	}
	if strings.Contains(text, "free") {
		return PriceInfo{Variant: PriceVariantText, Known: true}, true
	}

	numbers := priceNumberPattern.FindAllString(strings.ReplaceAll(text, ",", ""), 2)
	if len(numbers) == 0 {
		return PriceInfo{}, false
	}
	min, err := strconv.ParseFloat(numbers[0], 64)
	if err != nil {
		return PriceInfo{}, false
	}
	info := PriceInfo{Variant: PriceVariantText, Min: min, Known: true}
	if len(numbers) == 2 {
		if max, err := strconv.ParseFloat(numbers[1], 64); err == nil && max >= min {
			info.Max = &max
		}
	}
	return info, true
}

// DisplayImages returns image URLs in display priority order
func (e *Event) DisplayImages() []string {
	switch {
	case e.Images != nil && e.Images.AIGenerated != "":
		return []string{e.Images.AIGenerated}
	case e.AIImageURL != "":
		return []string{e.AIImageURL}
	case e.ImageURL != "":
		return []string{e.ImageURL}
	case len(e.ImageURLs) > 0:
		return e.ImageURLs
	}
	return []string{}
}

// AgeRange renders the audience age bounds
func (e *Event) AgeRange() string {
	if e.AgeMin == nil && e.AgeMax == nil {
		return "All ages"
	}
	min, max := 0, 99
	if e.AgeMin != nil {
		min = *e.AgeMin
	}
	if e.AgeMax != nil {
		max = *e.AgeMax
	}
	return fmt.Sprintf("%d-%d", min, max)
}

// FamilyFriendly prefers the explicit flag and falls back to the score
func (e *Event) FamilyFriendly() bool {
	if e.IsFamilyFriendly != nil {
		return *e.IsFamilyFriendly
	}
	return e.FamilyScore != nil && *e.FamilyScore >= FamilyScoreThreshold
}

// Area returns the venue area, falling back to the free-form location
func (e *Event) Area() string {
	if e.Venue.Area != "" {
		return e.Venue.Area
	}
	return e.Location
}

// PrimaryCategoryName returns the best available category label
func (e *Event) PrimaryCategoryName() string {
	switch {
	case e.Category != "":
		return e.Category
	case e.PrimaryCategory != "":
		return e.PrimaryCategory
	case len(e.SecondaryCategories) > 0:
		return e.SecondaryCategories[0]
	}
	return ""
}
