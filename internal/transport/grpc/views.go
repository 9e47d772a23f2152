package grpc

import (
	"time"

	"lumina/backend/internal/domain"
	"lumina/backend/internal/locale"
	"lumina/backend/internal/service/scheduler"
)

// The *Value helpers build plain maps that structpb.NewStruct accepts.

func viewValue(c *scheduler.Controller, lang locale.Language) map[string]any {
	st := c.State()
	v := map[string]any{
		"isOpen":          st.IsOpen,
		"step":            string(st.Step),
		"displayedMonth":  st.DisplayedMonth.String(),
		"referenceToday":  c.ReferenceToday().String(),
		"canNavigateBack": c.CanNavigateBack(),
		"language":        string(lang),
		"weekdays":        weekdaysValue(lang),
	}
	if st.Request.Date != nil {
		v["selectedDate"] = st.Request.Date.String()
	}
	if st.Request.Slot != nil {
		v["selectedSlot"] = string(*st.Request.Slot)
	}

	cells := make([]any, 0, 42)
	for cell := range c.Calendar() {
		if cell.Blank {
			cells = append(cells, map[string]any{"blank": true})
			continue
		}
		cells = append(cells, map[string]any{
			"date":     cell.Date.String(),
			"day":      cell.Day,
			"bookable": cell.Bookable,
			"selected": cell.Selected,
		})
	}
	v["calendar"] = cells

	slots := make([]any, 0, 6)
	for _, opt := range c.Slots() {
		slots = append(slots, map[string]any{
			"slot":     string(opt.Slot),
			"enabled":  opt.Enabled,
			"selected": opt.Selected,
		})
	}
	v["slots"] = slots

	if st.Step == scheduler.StepSuccess {
		if rec, ok := c.Confirmed(); ok {
			v["booking"] = bookingValue(rec)
		}
	}
	return v
}

func bookingValue(b domain.BookingRecord) map[string]any {
	return map[string]any{
		"id":        b.ID,
		"date":      b.Date.UTC().Format(time.RFC3339),
		"slot":      string(b.Slot),
		"status":    string(b.Status),
		"createdAt": b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func userValue(u domain.User) map[string]any {
	bookmarks := make([]any, 0, len(u.Bookmarks))
	for _, b := range u.Bookmarks {
		bookmarks = append(bookmarks, b)
	}
	bookings := make([]any, 0, len(u.Bookings))
	for _, b := range u.Bookings {
		bookings = append(bookings, bookingValue(b))
	}
	v := map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"nickname":  u.Nickname,
		"bookmarks": bookmarks,
		"bookings":  bookings,
	}
	if u.Email != "" {
		v["email"] = u.Email
	}
	if u.Company != "" {
		v["company"] = u.Company
	}
	if u.Avatar != "" {
		v["avatar"] = u.Avatar
	}
	return v
}

// closedViewValue is the view for a user with no scheduler session.
func closedViewValue(lang locale.Language) map[string]any {
	return map[string]any{
		"isOpen":   false,
		"language": string(lang),
		"weekdays": weekdaysValue(lang),
	}
}

// weekdaysValue lists the column headers, Sunday first, matching the
// calendar cells.
func weekdaysValue(lang locale.Language) []any {
	days := locale.Strings(lang, "calendarDaysShort")
	out := make([]any, 0, len(days))
	for _, d := range days {
		out = append(out, d)
	}
	return out
}
