package models

import "time"

// Today returns the current date truncated to midnight UTC. Overridable in
// tests to pin date-boundary behaviour.
var Today = func() time.Time {
	return DateOf(time.Now())
}

// DateOf truncates a timestamp to its date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
