package domain

import "slices"

type TimeSlot string

// DefaultTimeSlots is the consultation desk's fixed ordering.
var DefaultTimeSlots = []TimeSlot{
	"10:00 - 11:00",
	"11:00 - 12:00",
	"14:00 - 15:00",
	"15:00 - 16:00",
	"16:00 - 17:00",
	"17:00 - 18:00",
}

// SlotOption is a slot as offered to the presentation layer.
type SlotOption struct {
	Slot     TimeSlot
	Enabled  bool
	Selected bool
}

// SelectableSlots returns every slot in order. Without a chosen date the
// slots are still listed but disabled; there is no per-slot capacity.
func SelectableSlots(slots []TimeSlot, req BookingRequest) []SlotOption {
	out := make([]SlotOption, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotOption{
			Slot:     s,
			Enabled:  req.Date != nil,
			Selected: req.Slot != nil && *req.Slot == s,
		})
	}
	return out
}

func ContainsSlot(slots []TimeSlot, s TimeSlot) bool {
	return slices.Contains(slots, s)
}

// BookingRequest is the in-progress selection. A slot is only held while a
// date is held.
type BookingRequest struct {
	Date *CalendarDate
	Slot *TimeSlot
}

// WithDate selects d and drops any previously chosen slot.
func (r BookingRequest) WithDate(d CalendarDate) BookingRequest {
	return BookingRequest{Date: &d}
}

func (r BookingRequest) WithSlot(s TimeSlot) (BookingRequest, error) {
	if r.Date == nil {
		return r, ErrInvalidState
	}
	d := *r.Date
	return BookingRequest{Date: &d, Slot: &s}, nil
}

func (r BookingRequest) Complete() bool {
	return r.Date != nil && r.Slot != nil
}
