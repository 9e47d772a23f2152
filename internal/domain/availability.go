package domain

import (
	"fmt"
	"time"
)

// DefaultUTCOffset anchors "today" for every caller to the service desk's
// civil day, whatever the caller's own clock says.
const DefaultUTCOffset = 8 * time.Hour

// ReferenceZone returns a fixed zone for the given offset, e.g. UTC+8.
func ReferenceZone(offset time.Duration) *time.Location {
	sign := "+"
	abs := offset
	if offset < 0 {
		sign = "-"
		abs = -offset
	}
	hours := int(abs / time.Hour)
	minutes := int((abs % time.Hour) / time.Minute)
	name := fmt.Sprintf("UTC%s%d", sign, hours)
	if minutes != 0 {
		name = fmt.Sprintf("UTC%s%d:%02d", sign, hours, minutes)
	}
	return time.FixedZone(name, int(offset/time.Second))
}

// ReferenceToday is the civil date of now in zone.
func ReferenceToday(now time.Time, zone *time.Location) CalendarDate {
	return DateOf(now.In(zone))
}

// IsBookable applies the past-date, weekend and holiday rules in that order.
// referenceToday itself is bookable unless another rule excludes it.
func IsBookable(date, referenceToday CalendarDate, holidays HolidaySet) bool {
	if date.Before(referenceToday) {
		return false
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays.Contains(date)
}
