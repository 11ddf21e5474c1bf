package services

import (
	"fmt"
	"time"
)

// DayClock resolves wall-clock timestamps to calendar check-in days under a
// single configured boundary policy (a fixed offset east of UTC). Day keys are
// normalized to midnight UTC so they compare and store cleanly as DATE values.
// The time source is injected so tests can drive day rollovers directly.
type DayClock struct {
	loc *time.Location
	now func() time.Time
}

// NewDayClock builds a clock with the given day-boundary offset in minutes.
// A nil now defaults to time.Now.
func NewDayClock(utcOffsetMin int, now func() time.Time) *DayClock {
	if now == nil {
		now = time.Now
	}
	loc := time.UTC
	if utcOffsetMin != 0 {
		loc = time.FixedZone(fmt.Sprintf("UTC%+dmin", utcOffsetMin), utcOffsetMin*60)
	}
	return &DayClock{loc: loc, now: now}
}

// Today returns the day key for the current instant.
func (c *DayClock) Today() time.Time {
	return c.DayOf(c.now())
}

// DayOf maps a timestamp to its day key. Two timestamps map to the same key
// iff they fall within the same calendar day under the configured boundary.
func (c *DayClock) DayOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeDay re-keys a stored check-in date. Drivers may attach an arbitrary
// location when scanning a DATE column; the civil date itself is what counts.
func NormalizeDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from b to a:
// DaysBetween(today, yesterday) == 1.
func DaysBetween(a, b time.Time) int {
	diff := NormalizeDay(a).Sub(NormalizeDay(b))
	return int(diff / (24 * time.Hour))
}
