package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoc(t *testing.T, tz string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	require.NoError(t, err)
	return loc
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	ana := MonthDay{Month: time.March, Day: 15}

	tests := []struct {
		name  string
		md    MonthDay
		today time.Time
		want  time.Time
	}{
		{"upcoming this year", ana, utcDate(2024, time.March, 1), utcDate(2024, time.March, 15)},
		{"today counts as upcoming", ana, utcDate(2024, time.March, 15), utcDate(2024, time.March, 15)},
		{"passed rolls to next year", ana, utcDate(2024, time.March, 16), utcDate(2025, time.March, 15)},
		{"december wraps", MonthDay{time.January, 2}, utcDate(2024, time.December, 30), utcDate(2025, time.January, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.md, tt.today)
			assert.True(t, got.Equal(tt.want), "want %s, got %s", tt.want, got)
		})
	}
}

func TestNextOccurrence_TimeOfDayIgnored(t *testing.T) {
	ana := MonthDay{Month: time.March, Day: 15}
	late := time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC)
	got := NextOccurrence(ana, late)
	assert.True(t, got.Equal(utcDate(2024, time.March, 15)))
}

func TestNextOccurrence_LeapDay(t *testing.T) {
	leap := MonthDay{Month: time.February, Day: 29}

	// Leap year: the real date.
	got := NextOccurrence(leap, utcDate(2024, time.January, 10))
	assert.True(t, got.Equal(utcDate(2024, time.February, 29)))

	// Non-leap year: observed on March 1.
	got = NextOccurrence(leap, utcDate(2025, time.January, 10))
	assert.True(t, got.Equal(utcDate(2025, time.March, 1)))
}

func TestReminderInstant(t *testing.T) {
	occ := utcDate(2025, time.March, 15)
	ny := mustLoc(t, "America/New_York")

	tests := []struct {
		name string
		rule Rule
		loc  *time.Location
		want time.Time
	}{
		{
			"days_before at 09:00 local",
			Rule{Kind: DaysBefore, Count: 1},
			time.UTC,
			time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC),
		},
		{
			"minutes_before counts back from local midnight",
			Rule{Kind: MinutesBefore, Count: 90},
			time.UTC,
			time.Date(2025, time.March, 14, 22, 30, 0, 0, time.UTC),
		},
		{
			"hours_before counts back from local midnight",
			Rule{Kind: HoursBefore, Count: 2},
			time.UTC,
			time.Date(2025, time.March, 14, 22, 0, 0, 0, time.UTC),
		},
		{
			"time_on_day",
			Rule{Kind: TimeOnDay, Hour: 9, Minute: 30},
			time.UTC,
			time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC),
		},
		{
			// 2025-03-14 is after the US DST switch: 18:00 EDT = 22:00 UTC.
			"time_before across DST offset",
			Rule{Kind: TimeBefore, Count: 1, Hour: 18},
			ny,
			time.Date(2025, time.March, 14, 22, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReminderInstant(occ, tt.rule, tt.loc)
			assert.True(t, got.Equal(tt.want), "want %s, got %s", tt.want, got)
		})
	}
}

func TestReminderInstant_TimezoneMonotonic(t *testing.T) {
	// Shifting the timezone east by a fixed offset shifts the UTC
	// instant west by exactly that offset, for a fixed wall time.
	occ := utcDate(2025, time.June, 10)
	rule := Rule{Kind: TimeOnDay, Hour: 10}

	berlin := mustLoc(t, "Europe/Berlin") // UTC+2 in June

	inUTC := ReminderInstant(occ, rule, time.UTC)
	inBerlin := ReminderInstant(occ, rule, berlin)
	assert.Equal(t, 2*time.Hour, inUTC.Sub(inBerlin))
}
