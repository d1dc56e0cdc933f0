package utils

import (
	"time"
)

// SameLocalDay reports whether a and b fall on the same calendar date when
// projected into loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// NextWallClock returns the next instant after "after" at which the local
// wall clock in loc reads hour:minute. The projection goes through the
// zone's civil calendar, so DST transitions shift the result with the
// zone's offset instead of assuming a fixed one.
func NextWallClock(after time.Time, hour, minute int, loc *time.Location) time.Time {
	local := after.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(after) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}
