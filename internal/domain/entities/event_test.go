package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func TestResolvePrice_PriorityOrder(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		variant PriceVariant
		min     float64
		free    bool
	}{
		{
			name: "pricing wins over every other representation",
			event: Event{
				Pricing:   &Pricing{BasePrice: f64(150), MaxPrice: f64(300), Currency: "USD"},
				PriceData: &PriceData{Min: f64(0)},
				PriceText: "Free",
			},
			variant: PriceVariantPricing,
			min:     150,
		},
		{
			name: "pricing without base price falls through to price_data",
			event: Event{
				Pricing:   &Pricing{Currency: "AED"},
				PriceData: &PriceData{Min: f64(0)},
			},
			variant: PriceVariantPriceData,
			min:     0,
			free:    true,
		},
		{
			name:    "free text",
			event:   Event{PriceText: "FREE entry"},
			variant: PriceVariantText,
			free:    true,
		},
		{
			name:    "price range text",
			event:   Event{PriceText: "AED 1,200 - 2,500"},
			variant: PriceVariantText,
			min:     1200,
		},
		{
			name:    "nothing usable",
			event:   Event{PriceText: "tbc"},
			variant: PriceVariantUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ResolvePrice(&tt.event)
			assert.Equal(t, tt.variant, info.Variant)
			assert.Equal(t, tt.min, info.Min)
			assert.Equal(t, tt.free, info.IsFree())
			assert.NotEmpty(t, info.Currency)
		})
	}
}

func TestResolvePrice_TextRangeMax(t *testing.T) {
	info := ResolvePrice(&Event{PriceText: "AED 1,200 - 2,500"})
	if assert.NotNil(t, info.Max) {
		assert.Equal(t, 2500.0, *info.Max)
	}
	assert.Equal(t, DefaultCurrency, info.Currency)
}

func TestDisplayImages_Priority(t *testing.T) {
	e := &Event{
		Images:     &EventImages{AIGenerated: "https://img/ai.png"},
		AIImageURL: "https://img/legacy-ai.png",
		ImageURLs:  []string{"https://img/1.png"},
	}
	assert.Equal(t, []string{"https://img/ai.png"}, e.DisplayImages())

	e.Images = nil
	assert.Equal(t, []string{"https://img/legacy-ai.png"}, e.DisplayImages())

	e.AIImageURL = ""
	assert.Equal(t, []string{"https://img/1.png"}, e.DisplayImages())

	assert.Equal(t, []string{}, (&Event{}).DisplayImages())
}

func TestAgeRangeAndFamilyFriendly(t *testing.T) {
	assert.Equal(t, "All ages", (&Event{}).AgeRange())
	assert.Equal(t, "0-12", (&Event{AgeMax: intp(12)}).AgeRange())
	assert.Equal(t, "18-99", (&Event{AgeMin: intp(18)}).AgeRange())

	no := false
	assert.False(t, (&Event{IsFamilyFriendly: &no, FamilyScore: intp(90)}).FamilyFriendly())
	assert.True(t, (&Event{FamilyScore: intp(60)}).FamilyFriendly())
	assert.False(t, (&Event{FamilyScore: intp(59)}).FamilyFriendly())
}

func TestAreaAndCategoryFallbacks(t *testing.T) {
	e := &Event{Location: "JBR Beach", SecondaryCategories: []string{"wellness"}}
	assert.Equal(t, "JBR Beach", e.Area())
	assert.Equal(t, "wellness", e.PrimaryCategoryName())

	e.Venue.Area = "Dubai Marina"
	e.PrimaryCategory = "sports"
	assert.Equal(t, "Dubai Marina", e.Area())
	assert.Equal(t, "sports", e.PrimaryCategoryName())
}
