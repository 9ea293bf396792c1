package cronspec

import "time"

// Matches reports whether instant satisfies every field of e. Year is only
// checked when e.Year is present; its absence means "any" (spec §4.1).
func (e Expression) Matches(instant time.Time) bool {
	minute := uint32(instant.Minute())
	hour := uint32(instant.Hour())
	dayOfMonth := uint32(instant.Day())
	month := uint32(instant.Month())
	dayOfWeek := uint32(instant.Weekday()) // time.Sunday == 0, matches spec's 0 = Sunday

	if !e.Minutes.Matches(minute) {
		return false
	}
	if !e.Hours.Matches(hour) {
		return false
	}
	if !e.DayOfMonth.Matches(dayOfMonth) {
		return false
	}
	if !e.Month.Matches(month) {
		return false
	}
	if !e.DayOfWeek.Matches(dayOfWeek) {
		return false
	}
	if e.Year != nil && !e.Year.Matches(uint32(instant.Year())) {
		return false
	}
	return true
}

// ShiftForOffset applies a persisted schedule's timezone_offset_minutes to a
// UTC instant before cron matching, per SPEC_FULL.md's open-question
// decision: schedules are matched against local wall-clock components,
// derived by shifting UTC "now" by the stored offset rather than by loading
// an IANA zone (cron fields are zoneless wall-clock values, not absolute
// instants, so a fixed-minute shift is the correct transform).
func ShiftForOffset(now time.Time, offsetMinutes int) time.Time {
	return now.UTC().Add(time.Duration(offsetMinutes) * time.Minute)
}

// SameMinute reports whether a and b fall in the same (year, month, day,
// hour, minute) tuple, used for the scheduler's at-most-once-per-minute
// dedup check (spec §4.7).
func SameMinute(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute()
}
