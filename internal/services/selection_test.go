package services

import (
	"testing"
	"time"
)

func TestSelectionDefaultsAndGuards(t *testing.T) {
	sel := NewSelection(time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC))

	if sel.Month() != "November" || sel.Year() != 2025 {
		t.Fatalf("defaults = %s %d, want November 2025", sel.Month(), sel.Year())
	}
	if sel.SetMonth("Brumaire") {
		t.Fatal("SetMonth accepted a bogus month")
	}
	if !sel.SetMonth("February") || sel.Month() != "February" {
		t.Fatalf("SetMonth: month = %s, want February", sel.Month())
	}

	sel.SetYear(2023)
	if sel.Year() != 2023 || sel.CurrentYear() != 2025 {
		t.Fatalf("year = %d current = %d, want 2023 and 2025", sel.Year(), sel.CurrentYear())
	}

	years := sel.Years()
	if len(years) != 7 || years[0] != 2022 || years[6] != 2028 {
		t.Fatalf("years window = %v, want 2022..2028", years)
	}
}

func TestSelectionVisibleMonths(t *testing.T) {
	now := time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC)
	sel := NewSelection(now)

	got := sel.VisibleMonths(now)
	want := []string{"November", "December", "January", "February"}
	if len(got) != len(want) {
		t.Fatalf("visible months = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visible months = %v, want %v", got, want)
		}
	}

	sel.SetShowAllMonths(true)
	if got := sel.VisibleMonths(now); len(got) != 12 {
		t.Fatalf("show all: %d months, want 12", len(got))
	}
}
