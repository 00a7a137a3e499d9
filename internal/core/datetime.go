package core

import "time"

// Wire layouts for wall-clock values. The whole system transmits and
// interprets these as the server's local time; nothing round-trips through
// UTC-based ISO parsing, so a due date entered at 23:30 stays on the same
// calendar day everywhere.
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// ParseDateTime parses a "YYYY-MM-DD HH:MM:SS" wire string as local time.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, s, time.Local)
}

// ParseDate parses a "YYYY-MM-DD" wire string as local midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// FormatDateTime renders t in the wire layout. Transaction creation and
// recurring-payment execution both stamp settlement times through this one
// routine.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// FormatDate renders the date part of t in the wire layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
