package dealview

import "time"

// FormatEventTime renders a timeline timestamp with three tiers of
// detail: events from today show only the clock, events from the
// current year add day and month, older events show the date alone.
func FormatEventTime(t, now time.Time) string {
	t = t.In(now.Location())
	sameYear := t.Year() == now.Year()
	sameDay := sameYear && t.Month() == now.Month() && t.Day() == now.Day()

	switch {
	case sameDay:
		return t.Format("15:04")
	case sameYear:
		return t.Format("02 Jan 15:04")
	default:
		return t.Format("02 Jan 2006")
	}
}

// FormatDateTime renders an absolute timestamp, used for scheduled
// posting times inside proposal details.
func FormatDateTime(t time.Time) string {
	return t.Format("02 Jan 2006 15:04")
}
