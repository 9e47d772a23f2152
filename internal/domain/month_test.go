package domain

import (
	"slices"
	"testing"
	"time"
)

func TestRenderMonth_LeadingBlanksAndDays(t *testing.T) {
	tests := []struct {
		name       string
		month      YearMonth
		wantBlanks int
		wantDays   int
	}{
		{name: "feb 2026 starts sunday", month: YearMonth{Year: 2026, Month: time.February}, wantBlanks: 0, wantDays: 28},
		{name: "mar 2026 starts sunday", month: YearMonth{Year: 2026, Month: time.March}, wantBlanks: 0, wantDays: 31},
		{name: "apr 2026 starts wednesday", month: YearMonth{Year: 2026, Month: time.April}, wantBlanks: 3, wantDays: 30},
		{name: "feb 2028 leap year", month: YearMonth{Year: 2028, Month: time.February}, wantBlanks: 2, wantDays: 29},
	}

	today := NewCalendarDate(2026, 1, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := slices.Collect(RenderMonth(tt.month, today, HolidaySet{}, nil))
			if len(cells) != tt.wantBlanks+tt.wantDays {
				t.Fatalf("len(cells) = %d, want %d", len(cells), tt.wantBlanks+tt.wantDays)
			}
			for i := 0; i < tt.wantBlanks; i++ {
				if !cells[i].Blank {
					t.Fatalf("cell %d not blank", i)
				}
			}
			for i, c := range cells[tt.wantBlanks:] {
				if c.Blank || c.Day != i+1 {
					t.Fatalf("cell day = %d (blank=%v), want %d", c.Day, c.Blank, i+1)
				}
				if c.Date != NewCalendarDate(tt.month.Year, tt.month.Month, i+1) {
					t.Fatalf("cell date = %s", c.Date)
				}
			}
		})
	}
}

func TestRenderMonth_BookableAndSelected(t *testing.T) {
	today := NewCalendarDate(2026, 2, 16)
	selected := NewCalendarDate(2026, 2, 19)
	month := YearMonth{Year: 2026, Month: time.February}

	cells := slices.Collect(RenderMonth(month, today, DefaultHolidays(), &selected))

	byDay := make(map[int]CellView, len(cells))
	for _, c := range cells {
		if !c.Blank {
			byDay[c.Day] = c
		}
	}

	if byDay[13].Bookable {
		t.Fatalf("past day 13 bookable")
	}
	if byDay[16].Bookable || byDay[17].Bookable {
		t.Fatalf("holidays 16/17 bookable")
	}
	if !byDay[18].Bookable || !byDay[19].Bookable {
		t.Fatalf("working days 18/19 not bookable")
	}
	if byDay[21].Bookable || byDay[22].Bookable {
		t.Fatalf("weekend 21/22 bookable")
	}

	for day, c := range byDay {
		if c.Selected != (day == 19) {
			t.Fatalf("day %d selected = %v", day, c.Selected)
		}
	}
}

func TestRenderMonth_Restartable(t *testing.T) {
	seq := RenderMonth(YearMonth{Year: 2026, Month: time.April}, NewCalendarDate(2026, 4, 1), HolidaySet{}, nil)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Fatalf("second iteration differs from first")
	}

	n := 0
	for range seq {
		n++
		if n == 5 {
			break
		}
	}
	if n != 5 {
		t.Fatalf("early break yielded %d cells", n)
	}
}

func TestYearMonth_AddMonths(t *testing.T) {
	tests := []struct {
		from  YearMonth
		delta int
		want  YearMonth
	}{
		{YearMonth{2026, time.January}, -1, YearMonth{2025, time.December}},
		{YearMonth{2026, time.December}, 1, YearMonth{2027, time.January}},
		{YearMonth{2026, time.March}, 14, YearMonth{2027, time.May}},
		{YearMonth{2026, time.March}, -27, YearMonth{2023, time.December}},
		{YearMonth{2026, time.March}, 0, YearMonth{2026, time.March}},
	}
	for _, tt := range tests {
		if got := tt.from.AddMonths(tt.delta); got != tt.want {
			t.Fatalf("%s.AddMonths(%d) = %s, want %s", tt.from, tt.delta, got, tt.want)
		}
	}
}

func TestCanNavigateBack(t *testing.T) {
	today := NewCalendarDate(2026, 2, 18)
	if CanNavigateBack(YearMonth{2026, time.February}, today) {
		t.Fatalf("CanNavigateBack(reference month) = true")
	}
	if !CanNavigateBack(YearMonth{2026, time.March}, today) {
		t.Fatalf("CanNavigateBack(next month) = false")
	}
}
