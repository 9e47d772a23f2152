package domain

import "iter"

// CellView is one cell of a month grid. Blank cells pad the first week so
// day 1 lands under its weekday column (Sunday first).
type CellView struct {
	Blank    bool
	Date     CalendarDate
	Day      int
	Bookable bool
	Selected bool
}

// RenderMonth yields the grid for month. The sequence is computed on each
// iteration, so callers can range over it again after a selection changes.
func RenderMonth(month YearMonth, referenceToday CalendarDate, holidays HolidaySet, selected *CalendarDate) iter.Seq[CellView] {
	return func(yield func(CellView) bool) {
		first := month.FirstDay()
		for i := 0; i < int(first.Weekday()); i++ {
			if !yield(CellView{Blank: true}) {
				return
			}
		}
		days := month.Days()
		for day := 1; day <= days; day++ {
			d := NewCalendarDate(month.Year, month.Month, day)
			cell := CellView{
				Date:     d,
				Day:      day,
				Bookable: IsBookable(d, referenceToday, holidays),
				Selected: selected != nil && *selected == d,
			}
			if !yield(cell) {
				return
			}
		}
	}
}

// CanNavigateBack reports whether the month before displayed is still on
// or after the reference month.
func CanNavigateBack(displayed YearMonth, referenceToday CalendarDate) bool {
	return displayed.Compare(referenceToday.YearMonth()) > 0
}
