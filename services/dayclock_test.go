package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayOfSameDayMapping(t *testing.T) {
	clock := NewDayClock(0, nil)

	early := time.Date(2026, 3, 10, 0, 0, 1, 0, time.UTC)
	late := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2026, 3, 11, 0, 0, 1, 0, time.UTC)

	assert.Equal(t, clock.DayOf(early), clock.DayOf(late))
	assert.NotEqual(t, clock.DayOf(late), clock.DayOf(nextDay))
	assert.Equal(t, 1, DaysBetween(clock.DayOf(nextDay), clock.DayOf(late)))
}

func TestDayOfWithOffsetBoundary(t *testing.T) {
	// UTC+8: the calendar day rolls over at 16:00 UTC
	clock := NewDayClock(480, nil)

	before := time.Date(2026, 3, 10, 15, 59, 0, 0, time.UTC)
	after := time.Date(2026, 3, 10, 16, 1, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), clock.DayOf(before))
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), clock.DayOf(after))
}

func TestTodayUsesInjectedTimeSource(t *testing.T) {
	current := time.Date(2026, 2, 28, 23, 30, 0, 0, time.UTC)
	clock := NewDayClock(0, func() time.Time { return current })

	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), clock.Today())

	current = current.Add(time.Hour)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), clock.Today())
}

func TestDaysBetween(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, 0, DaysBetween(day(2026, 3, 10), day(2026, 3, 10)))
	assert.Equal(t, 1, DaysBetween(day(2026, 3, 11), day(2026, 3, 10)))
	assert.Equal(t, -1, DaysBetween(day(2026, 3, 10), day(2026, 3, 11)))
	assert.Equal(t, 31, DaysBetween(day(2026, 4, 1), day(2026, 3, 1)))

	// leap year rollover
	assert.Equal(t, 1, DaysBetween(day(2024, 2, 29), day(2024, 2, 28)))
	assert.Equal(t, 2, DaysBetween(day(2024, 3, 1), day(2024, 2, 28)))
	assert.Equal(t, 1, DaysBetween(day(2023, 3, 1), day(2023, 2, 28)))
}

func TestNormalizeDayIgnoresScanLocation(t *testing.T) {
	// a DATE scanned back in a non-UTC zone still keys to the same civil date
	zone := time.FixedZone("UTC+8", 8*3600)
	scanned := time.Date(2026, 3, 10, 0, 0, 0, 0, zone)

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), NormalizeDay(scanned))
}
