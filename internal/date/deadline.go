package date

import (
	"fmt"
	"time"
)

// DefaultDueSoonDays is the look-ahead window used when none is configured.
const DefaultDueSoonDays = 3

const day = 24 * time.Hour

// IsOverdue reports whether d lies on a calendar day before today.
func IsOverdue(d *Date) bool {
	return OverdueAt(d, time.Now())
}

// OverdueAt reports whether the calendar day of d is strictly before the
// calendar day of now, in now's location. A deadline of today is never overdue.
func OverdueAt(d *Date, now time.Time) bool {
	if d == nil {
		return false
	}
	return d.Before(Of(now).Time)
}

// IsDueSoon reports whether d falls within the next days days.
func IsDueSoon(d *Date, days int) bool {
	return DueSoonAt(d, time.Now(), days)
}

// DueSoonAt compares full timestamps: the deadline instant (midnight of d in
// now's location) must be strictly after now and strictly before now+days.
// Unlike OverdueAt this is not calendar-day based, so a deadline of today has
// already passed and is not due soon.
func DueSoonAt(d *Date, now time.Time, days int) bool {
	if d == nil {
		return false
	}
	deadline := d.In(now.Location())
	return deadline.After(now) && deadline.Before(now.Add(time.Duration(days)*day))
}

// FormatRelative renders t relative to now, e.g. "3 days ago" or "in 2 hours".
func FormatRelative(t, now time.Time) string {
	delta := now.Sub(t)
	future := delta < 0
	if future {
		delta = -delta
	}

	var amount int
	var unit string
	switch {
	case delta < time.Minute:
		return "just now"
	case delta < time.Hour:
		amount, unit = int(delta/time.Minute), "minute"
	case delta < day:
		amount, unit = int(delta/time.Hour), "hour"
	case delta < 30*day:
		amount, unit = int(delta/day), "day"
	case delta < 365*day:
		amount, unit = int(delta/(30*day)), "month"
	default:
		amount, unit = int(delta/(365*day)), "year"
	}
	if amount != 1 {
		unit += "s"
	}
	if future {
		return fmt.Sprintf("in %d %s", amount, unit)
	}
	return fmt.Sprintf("%d %s ago", amount, unit)
}
