package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OybekDeveloper/leora/internal/date"
	"github.com/OybekDeveloper/leora/internal/domain"
)

var on = date.MustParse

func TestNext_Patterns(t *testing.T) {
	tests := []struct {
		name     string
		pattern  domain.Pattern
		interval int
		ref      string
		c        Constraints
		want     string
	}{
		{"daily", domain.Daily, 1, "2025-01-31", Constraints{}, "2025-02-01"},
		{"daily interval 3", domain.Daily, 3, "2025-12-30", Constraints{}, "2026-01-02"},
		{"weekly", domain.Weekly, 1, "2025-03-05", Constraints{}, "2025-03-12"},
		{"weekly interval 2", domain.Weekly, 2, "2025-03-05", Constraints{}, "2025-03-19"},
		{"biweekly ignores interval", domain.Biweekly, 5, "2025-03-05", Constraints{}, "2025-03-19"},
		// 2025-03-05 is a Wednesday.
		{"weekday later same week", domain.Weekly, 1, "2025-03-05",
			Constraints{DaysOfWeek: []time.Weekday{time.Monday, time.Friday}}, "2025-03-07"},
		{"weekday wraps to next week", domain.Weekly, 1, "2025-03-07",
			Constraints{DaysOfWeek: []time.Weekday{time.Friday, time.Monday}}, "2025-03-10"},
		{"weekday wraps interval weeks", domain.Weekly, 3, "2025-03-07",
			Constraints{DaysOfWeek: []time.Weekday{time.Monday, time.Friday}}, "2025-03-24"},
		{"biweekly weekday wraps two weeks", domain.Biweekly, 1, "2025-03-07",
			Constraints{DaysOfWeek: []time.Weekday{time.Monday}}, "2025-03-17"},
		{"monthly", domain.Monthly, 1, "2025-01-15", Constraints{}, "2025-02-15"},
		{"monthly day 31 clamps in february", domain.Monthly, 1, "2025-01-31",
			Constraints{DayOfMonth: 31}, "2025-02-28"},
		{"monthly day 31 clamps in leap february", domain.Monthly, 1, "2024-01-31",
			Constraints{DayOfMonth: 31}, "2024-02-29"},
		{"monthly returns to 31 after february", domain.Monthly, 1, "2025-02-28",
			Constraints{DayOfMonth: 31}, "2025-03-31"},
		{"monthly anchored on start day", domain.Monthly, 1, "2025-04-30",
			Constraints{Anchor: on("2025-01-31")}, "2025-05-31"},
		{"monthly same month later day", domain.Monthly, 1, "2025-01-03",
			Constraints{DayOfMonth: 15}, "2025-01-15"},
		{"quarterly", domain.Quarterly, 1, "2025-11-30", Constraints{DayOfMonth: 30}, "2026-02-28"},
		{"quarterly interval 2", domain.Quarterly, 2, "2025-01-10", Constraints{}, "2025-07-10"},
		{"yearly leap day", domain.Yearly, 1, "2024-02-29", Constraints{Anchor: on("2024-02-29")}, "2025-02-28"},
		{"yearly back on leap day", domain.Yearly, 4, "2024-02-29", Constraints{Anchor: on("2024-02-29")}, "2028-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.pattern, tt.interval, on(tt.ref), tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNext_WeeklyIsDeterministic(t *testing.T) {
	ref := on("2025-06-18")
	for i := 0; i < 5; i++ {
		got, err := Next(domain.Weekly, 1, ref, Constraints{})
		require.NoError(t, err)
		assert.Equal(t, ref.AddDays(7), got)
	}
}

func TestNext_SkipDates(t *testing.T) {
	c := Constraints{SkipDates: date.NewSet(on("2025-03-12"), on("2025-03-19"))}
	got, err := Next(domain.Weekly, 1, on("2025-03-05"), c)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-26", got.String())
	assert.False(t, c.SkipDates.Has(got))
}

func TestNext_SkipBoundIsConfigError(t *testing.T) {
	skips := date.NewSet()
	ref := on("2025-01-01")
	for i := 1; i <= MaxSkipIterations+1; i++ {
		skips.Add(ref.AddDays(i))
	}
	_, err := Next(domain.Daily, 1, ref, Constraints{SkipDates: skips})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.ErrorIs(t, err, ErrIterationLimit)
}

func TestNext_SkipJustUnderBound(t *testing.T) {
	skips := date.NewSet()
	ref := on("2025-01-01")
	for i := 1; i <= MaxSkipIterations; i++ {
		skips.Add(ref.AddDays(i))
	}
	got, err := Next(domain.Daily, 1, ref, Constraints{SkipDates: skips})
	require.NoError(t, err)
	assert.Equal(t, ref.AddDays(MaxSkipIterations+1), got)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate("hourly", 1, Constraints{}))
	assert.Error(t, Validate(domain.Daily, 0, Constraints{}))
	assert.Error(t, Validate(domain.Monthly, 1, Constraints{DayOfMonth: 32}))
	assert.Error(t, Validate(domain.Weekly, 1, Constraints{DaysOfWeek: []time.Weekday{7}}))
	assert.NoError(t, Validate(domain.Monthly, 1, Constraints{DayOfMonth: 31}))

	_, err := Next(domain.Daily, 0, on("2025-01-01"), Constraints{})
	assert.True(t, IsConfigError(err))
}

func TestFirstOnOrAfter(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		today string
		want  string
	}{
		{"future start is kept", Rule{Pattern: domain.Daily, Interval: 1,
			Constraints: Constraints{Anchor: on("2025-05-01")}}, "2025-04-01", "2025-05-01"},
		{"start today", Rule{Pattern: domain.Monthly, Interval: 1,
			Constraints: Constraints{Anchor: on("2025-04-01")}}, "2025-04-01", "2025-04-01"},
		{"past monthly start walks forward", Rule{Pattern: domain.Monthly, Interval: 1,
			Constraints: Constraints{Anchor: on("2023-01-31")}}, "2025-04-15", "2025-04-30"},
		{"past weekly start keeps weekday", Rule{Pattern: domain.Weekly, Interval: 2,
			Constraints: Constraints{Anchor: on("2025-01-06")}}, "2025-03-01", "2025-03-03"},
		{"start not matching day of month", Rule{Pattern: domain.Monthly, Interval: 1,
			Constraints: Constraints{Anchor: on("2025-06-20"), DayOfMonth: 5}}, "2025-06-01", "2025-07-05"},
		{"start on a skip date", Rule{Pattern: domain.Daily, Interval: 1,
			Constraints: Constraints{Anchor: on("2025-06-20"), SkipDates: date.NewSet(on("2025-06-20"))}},
			"2025-06-01", "2025-06-21"},
		{"unaligned start takes the first allowed weekday", Rule{Pattern: domain.Weekly, Interval: 2,
			Constraints: Constraints{Anchor: on("2026-01-07"), DaysOfWeek: []time.Weekday{time.Monday}}},
			"2026-01-01", "2026-01-12"},
		{"unaligned start then interval", Rule{Pattern: domain.Weekly, Interval: 2,
			Constraints: Constraints{Anchor: on("2026-01-07"), DaysOfWeek: []time.Weekday{time.Monday}}},
			"2026-01-13", "2026-01-26"},
		{"unaligned biweekly start", Rule{Pattern: domain.Biweekly, Interval: 1,
			Constraints: Constraints{Anchor: on("2026-01-07"), DaysOfWeek: []time.Weekday{time.Monday, time.Friday}}},
			"2026-01-01", "2026-01-09"},
		{"aligned weekday is a skip date", Rule{Pattern: domain.Weekly, Interval: 2,
			Constraints: Constraints{Anchor: on("2026-01-07"), DaysOfWeek: []time.Weekday{time.Monday},
				SkipDates: date.NewSet(on("2026-01-12"))}},
			"2026-01-01", "2026-01-26"},
		{"years of daily backfill", Rule{Pattern: domain.Daily, Interval: 1,
			Constraints: Constraints{Anchor: on("2020-01-01")}}, "2025-10-15", "2025-10-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstOnOrAfter(tt.rule, on(tt.today))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.False(t, got.Before(tt.rule.Anchor))
		})
	}
}

func TestFirstOnOrAfter_RequiresStart(t *testing.T) {
	_, err := FirstOnOrAfter(Rule{Pattern: domain.Daily, Interval: 1}, on("2025-01-01"))
	assert.True(t, IsConfigError(err))
}

func TestRuleOf(t *testing.T) {
	s := domain.Schedule{
		Pattern:    domain.Monthly,
		Interval:   2,
		DayOfMonth: 31,
		StartDate:  on("2025-01-31"),
		SkipDates:  date.NewSet(on("2025-03-31")),
	}
	r := RuleOf(s)
	got, err := r.Next(on("2025-01-31"))
	require.NoError(t, err)
	// 2025-03-31 is skipped, so the next bi-monthly date is May 31.
	assert.Equal(t, "2025-05-31", got.String())
}
