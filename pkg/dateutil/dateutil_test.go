package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dubai(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, Dubai)
}

func utc(year int, month time.Month, day, hour, min, sec, nsec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, nsec, time.UTC)
}

func TestRangeFor_Wednesday(t *testing.T) {
	ref := dubai(2026, time.October, 21, 15, 0) // Wednesday

	tests := []struct {
		name  NamedRange
		start time.Time
		end   time.Time
	}{
		{Today, utc(2026, 10, 20, 20, 0, 0, 0), utc(2026, 10, 21, 19, 59, 59, 999999000)},
		{Tomorrow, utc(2026, 10, 21, 20, 0, 0, 0), utc(2026, 10, 22, 19, 59, 59, 999999000)},
		{ThisWeek, utc(2026, 10, 18, 20, 0, 0, 0), utc(2026, 10, 25, 19, 59, 59, 999999000)},
		{NextWeek, utc(2026, 10, 25, 20, 0, 0, 0), utc(2026, 11, 1, 19, 59, 59, 999999000)},
		{ThisWeekend, utc(2026, 10, 23, 20, 0, 0, 0), utc(2026, 10, 25, 19, 59, 59, 999999000)},
		{NextWeekend, utc(2026, 10, 30, 20, 0, 0, 0), utc(2026, 11, 1, 19, 59, 59, 999999000)},
		{ThisMonth, utc(2026, 9, 30, 20, 0, 0, 0), utc(2026, 10, 31, 19, 59, 59, 999999000)},
		{NextMonth, utc(2026, 10, 31, 20, 0, 0, 0), utc(2026, 11, 30, 19, 59, 59, 999999000)},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			start, end, err := RangeFor(tt.name, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
			assert.Equal(t, time.UTC, start.Location())
			assert.Equal(t, time.UTC, end.Location())
		})
	}
}

func TestRangeFor_ThisWeekendStaysOnOngoingWeekend(t *testing.T) {
	saturdayNoon := dubai(2026, time.October, 24, 12, 0)
	sundayLate := dubai(2026, time.October, 25, 23, 30)

	for _, ref := range []time.Time{saturdayNoon, sundayLate} {
		start, end, err := RangeFor(ThisWeekend, ref)
		require.NoError(t, err)
		assert.Equal(t, utc(2026, 10, 23, 20, 0, 0, 0), start)
		assert.Equal(t, utc(2026, 10, 25, 19, 59, 59, 999999000), end)

		next, _, err := RangeFor(NextWeekend, ref)
		require.NoError(t, err)
		assert.Equal(t, utc(2026, 10, 30, 20, 0, 0, 0), next)
	}
}

func TestRangeFor_SundayBelongsToCurrentWeek(t *testing.T) {
	start, _, err := RangeFor(ThisWeek, dubai(2026, time.October, 25, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Monday, LocalWeekday(start))
	assert.Equal(t, utc(2026, 10, 18, 20, 0, 0, 0), start)
}

func TestRangeFor_DecemberRollover(t *testing.T) {
	ref := dubai(2026, time.December, 30, 9, 0)

	start, end, err := RangeFor(ThisMonth, ref)
	require.NoError(t, err)
	assert.Equal(t, utc(2026, 11, 30, 20, 0, 0, 0), start)
	assert.Equal(t, utc(2026, 12, 31, 19, 59, 59, 999999000), end)

	start, end, err = RangeFor(NextMonth, ref)
	require.NoError(t, err)
	assert.Equal(t, utc(2026, 12, 31, 20, 0, 0, 0), start)
	assert.Equal(t, utc(2027, 1, 31, 19, 59, 59, 999999000), end)
}

func TestRangeFor_UTCReferenceUsesDubaiCalendar(t *testing.T) {
	// 21:00 UTC Friday is already Saturday 01:00 in Dubai.
	ref := utc(2026, 10, 23, 21, 0, 0, 0)

	start, _, err := RangeFor(Today, ref)
	require.NoError(t, err)
	assert.Equal(t, utc(2026, 10, 23, 20, 0, 0, 0), start)
	assert.True(t, IsWeekend(ref))
}

func TestRangeFor_Properties(t *testing.T) {
	expectedFirstDay := map[NamedRange]func(ref time.Time) time.Weekday{
		ThisWeek:    func(time.Time) time.Weekday { return time.Monday },
		NextWeek:    func(time.Time) time.Weekday { return time.Monday },
		ThisWeekend: func(time.Time) time.Weekday { return time.Saturday },
		NextWeekend: func(time.Time) time.Weekday { return time.Saturday },
		Today:       func(ref time.Time) time.Weekday { return LocalWeekday(ref) },
		Tomorrow:    func(ref time.Time) time.Weekday { return (LocalWeekday(ref) + 1) % 7 },
	}

	ref := utc(2026, 11, 20, 0, 17, 0, 0)
	for i := 0; i < 24*60; i++ {
		ref = ref.Add(97 * time.Minute)
		for _, r := range BoundedRanges() {
			start, end, err := RangeFor(r, ref)
			require.NoError(t, err)
			require.False(t, end.Before(start), "%s at %s", r, ref)
			require.Equal(t, time.UTC, start.Location())

			if fn, ok := expectedFirstDay[r]; ok {
				require.Equal(t, fn(ref), LocalWeekday(start), "%s at %s", r, ref)
			}
			if r == ThisMonth || r == NextMonth {
				require.Equal(t, 1, InDubai(start).Day())
			}
		}
	}
}

func TestIsWeekend_Properties(t *testing.T) {
	ref := utc(2026, 1, 1, 0, 0, 0, 0)
	for i := 0; i < 24*21; i++ {
		ts := ref.Add(time.Duration(i) * time.Hour)
		wd := LocalWeekday(ts)
		assert.Equal(t, wd == time.Saturday || wd == time.Sunday, IsWeekend(ts))
		assert.NotEqual(t, IsWeekend(ts), IsWeekday(ts))
	}

	assert.False(t, IsWeekend(dubai(2026, time.October, 23, 12, 0)), "Friday is a working day")
	assert.True(t, IsWeekend(dubai(2026, time.October, 24, 0, 0)))
	assert.True(t, IsWeekend(dubai(2026, time.October, 25, 23, 59)))
	assert.False(t, IsWeekend(dubai(2026, time.October, 26, 0, 0)))
}

func TestRangeFor_RecurringAndUnknown(t *testing.T) {
	_, _, err := RangeFor(Weekends, time.Now())
	assert.ErrorIs(t, err, ErrRecurringRange)

	_, _, err = RangeFor(NamedRange("fortnight"), time.Now())
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestParseNamedRange(t *testing.T) {
	r, err := ParseNamedRange("This-Weekend")
	require.NoError(t, err)
	assert.Equal(t, ThisWeekend, r)

	_, err = ParseNamedRange("someday")
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestMatchesDayType(t *testing.T) {
	saturday := dubai(2026, time.October, 24, 10, 0)
	tuesday := dubai(2026, time.October, 20, 10, 0)

	assert.True(t, MatchesDayType(Weekends, saturday))
	assert.False(t, MatchesDayType(Weekends, tuesday))
	assert.True(t, MatchesDayType(Weekdays, tuesday))
	assert.True(t, MatchesDayType(ThisWeek, saturday))
}

func TestFilterByDayType(t *testing.T) {
	days := []time.Time{
		dubai(2026, time.October, 23, 23, 30), // Friday
		dubai(2026, time.October, 24, 10, 0),
		dubai(2026, time.October, 26, 0, 0),
	}
	identity := func(t time.Time) time.Time { return t }

	weekend := FilterByDayType(Weekends, days, identity)
	require.Len(t, weekend, 1)
	assert.Equal(t, "2026-10-24", LocalDay(weekend[0]))

	assert.Len(t, FilterByDayType(Weekdays, days, identity), 2)
	assert.Len(t, FilterByDayType(Today, days, identity), 3)
}

func TestLocalDay_CrossesUTCMidnight(t *testing.T) {
	utc := time.Date(2026, time.October, 23, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-24", LocalDay(utc))
}
