package services

import (
	"testing"
	"time"

	"github.com/mydscvr/backend/pkg/dateutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday 21 October 2026, 15:00 Dubai
var wednesday = time.Date(2026, time.October, 21, 15, 0, 0, 0, dateutil.Dubai)

func TestTemporalParser_Vocabulary(t *testing.T) {
	p := NewTemporalParser()

	tests := []struct {
		query string
		want  dateutil.NamedRange
	}{
		{"concerts tonight", dateutil.Today},
		{"brunch this evening", dateutil.Today},
		{"what's on tmrw", dateutil.Tomorrow},
		{"free events this weekend", dateutil.ThisWeekend},
		{"markets this Saturday", dateutil.ThisWeekend},
		{"coming weekend plans", dateutil.NextWeekend},
		{"next sunday brunch", dateutil.NextWeekend},
		{"later this week", dateutil.ThisWeek},
		{"something in a few days", dateutil.ThisWeek},
		{"this thursday ladies night", dateutil.ThisWeek},
		{"early next week", dateutil.NextWeek},
		{"next friday", dateutil.NextWeek},
		{"exhibitions this month", dateutil.ThisMonth},
		{"coming month festivals", dateutil.NextMonth},
		{"brunch on weekends", dateutil.Weekends},
		{"kids activities saturdays", dateutil.Weekends},
		{"yoga during the week", dateutil.Weekdays},
		{"classes mon-fri", dateutil.Weekdays},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			intent := p.Parse(tt.query, wednesday)
			assert.Equal(t, tt.want, intent.Range)
			assert.Equal(t, 0.9, intent.Confidence)
		})
	}
}

func TestTemporalParser_BoundedCarriesRange(t *testing.T) {
	intent := NewTemporalParser().Parse("free events this weekend", wednesday)

	require.True(t, intent.Bounded())
	assert.Empty(t, intent.PostFilter)
	assert.Equal(t, time.Date(2026, time.October, 23, 20, 0, 0, 0, time.UTC), *intent.Start)
	assert.Equal(t, time.Date(2026, time.October, 25, 19, 59, 59, 999999000, time.UTC), *intent.End)
}

func TestTemporalParser_RecurringSetsPostFilterOnly(t *testing.T) {
	intent := NewTemporalParser().Parse("family brunch weekends", wednesday)

	assert.Equal(t, dateutil.Weekends, intent.PostFilter)
	assert.False(t, intent.Bounded())
	assert.Nil(t, intent.Start)
}

func TestTemporalParser_NoFalsePositives(t *testing.T) {
	p := NewTemporalParser()

	for _, q := range []string{"cinema", "things to do", "weekender bag market", "todayish", "monthly meetup"} {
		intent := p.Parse(q, wednesday)
		assert.False(t, intent.Detected(), q)
		assert.Zero(t, intent.Confidence, q)
	}
}

func TestTemporalParser_SpecificBeforeGeneric(t *testing.T) {
	p := NewTemporalParser()

	assert.Equal(t, dateutil.NextWeekend, p.Parse("next weekend", wednesday).Range)
	assert.Equal(t, dateutil.ThisWeekend, p.Parse("this weekend", wednesday).Range)
	assert.Equal(t, dateutil.NextWeek, p.Parse("next week", wednesday).Range)
}
