package domain

import "time"

// DateOnly truncates a timestamp to midnight in its own location
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ISODayOfWeek returns 1 for Monday ... 7 for Sunday
func ISODayOfWeek(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DaysBetween returns the number of calendar days from a to b (negative if b is before a)
func DaysBetween(a, b time.Time) int {
	da := DateOnly(a)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, da.Location())
	return int(db.Sub(da).Hours() / 24)
}
