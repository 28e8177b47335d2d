package domain

import "time"

// NextOccurrence returns the earliest date (midnight UTC) on or after
// "today" with the birthday's month and day, rolling to next year when
// this year's date has already passed. Only today's date part matters.
//
// A 02-29 birthday in a non-leap year is observed on March 1: time.Date
// normalizes the overflowing day, and we keep that behavior on purpose.
func NextOccurrence(md MonthDay, today time.Time) time.Time {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	occ := time.Date(today.Year(), md.Month, md.Day, 0, 0, 0, 0, time.UTC)
	if occ.Before(day) {
		occ = time.Date(today.Year()+1, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
	}
	return occ
}

// ReminderInstant maps an occurrence date and a rule to the UTC instant
// the rule should fire at. All wall-clock arithmetic happens in the
// subscriber's location: time.Date normalizes out-of-range fields in
// local terms, which matches "subtract from local midnight, then
// convert" and stays correct across DST transitions.
func ReminderInstant(occurrence time.Time, r Rule, loc *time.Location) time.Time {
	y, m, d := occurrence.Date()

	var local time.Time
	switch r.Kind {
	case MinutesBefore:
		local = time.Date(y, m, d, 0, -r.Count, 0, 0, loc)
	case HoursBefore:
		local = time.Date(y, m, d, -r.Count, 0, 0, 0, loc)
	case DaysBefore:
		local = time.Date(y, m, d-r.Count, 9, 0, 0, 0, loc)
	case TimeOnDay:
		local = time.Date(y, m, d, r.Hour, r.Minute, 0, 0, loc)
	case TimeBefore:
		local = time.Date(y, m, d-r.Count, r.Hour, r.Minute, 0, 0, loc)
	default:
		// Unknown kinds cannot be stored; midnight keeps the zero value out.
		local = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return local.UTC()
}
