package domain

import (
	"sort"
	"strings"
)

// HolidaySet is read-only after construction and safe to share.
type HolidaySet struct {
	days map[string]struct{}
}

// NewHolidaySet parses YYYY-MM-DD strings. Blank entries are ignored.
func NewHolidaySet(dates ...string) (HolidaySet, error) {
	days := make(map[string]struct{}, len(dates))
	for _, raw := range dates {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		d, err := ParseCalendarDate(s)
		if err != nil {
			return HolidaySet{}, err
		}
		days[d.String()] = struct{}{}
	}
	return HolidaySet{days: days}, nil
}

func MustHolidaySet(dates ...string) HolidaySet {
	h, err := NewHolidaySet(dates...)
	if err != nil {
		panic(err)
	}
	return h
}

func (h HolidaySet) Contains(d CalendarDate) bool {
	_, ok := h.days[d.String()]
	return ok
}

func (h HolidaySet) Len() int {
	return len(h.days)
}

// Dates returns the members in ascending order.
func (h HolidaySet) Dates() []string {
	out := make([]string, 0, len(h.days))
	for d := range h.days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// mainlandChinaHolidays lists the fixed public holidays observed by the
// Shanghai service desk. Make-up working weekends are not listed because
// weekends are never bookable.
var mainlandChinaHolidays = []string{
	// 2025
	"2025-01-01",
	"2025-01-28", "2025-01-29", "2025-01-30", "2025-01-31",
	"2025-02-03", "2025-02-04",
	"2025-04-04",
	"2025-05-01", "2025-05-02", "2025-05-05",
	"2025-06-02",
	"2025-10-01", "2025-10-02", "2025-10-03", "2025-10-06", "2025-10-07", "2025-10-08",
	// 2026
	"2026-01-01", "2026-01-02",
	"2026-02-16", "2026-02-17",
	"2026-04-06",
	"2026-05-01", "2026-05-04", "2026-05-05",
	"2026-06-19",
	"2026-09-25",
	"2026-10-01", "2026-10-02", "2026-10-05", "2026-10-06", "2026-10-07",
}

// DefaultHolidays returns the built-in holiday table.
func DefaultHolidays() HolidaySet {
	return MustHolidaySet(mainlandChinaHolidays...)
}
