package core

import (
	"testing"
	"time"
)

func TestMonthIndex(t *testing.T) {
	if got := MonthIndex("January"); got != 0 {
		t.Fatalf("got %d", got)
	}
	if got := MonthIndex("December"); got != 11 {
		t.Fatalf("got %d", got)
	}
	if got := MonthIndex("january"); got != -1 {
		t.Fatalf("month names are exact, got %d", got)
	}
	if got := MonthName(3); got != "April" {
		t.Fatalf("got %q", got)
	}
	if got := MonthName(12); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestYears(t *testing.T) {
	years := Years(2025, -3, 3)
	if len(years) != 7 {
		t.Fatalf("expected 7 years, got %d", len(years))
	}
	if years[0] != 2022 || years[6] != 2028 {
		t.Fatalf("unexpected window: %v", years)
	}
	if got := Years(2025, 2, 1); got != nil {
		t.Fatalf("inverted window should be empty, got %v", got)
	}
}

func TestVisibleMonths(t *testing.T) {
	november := time.Date(2025, time.November, 5, 0, 0, 0, 0, time.UTC)

	all := VisibleMonths(true, november)
	if len(all) != 12 || all[0] != "January" {
		t.Fatalf("unexpected full list: %v", all)
	}

	upcoming := VisibleMonths(false, november)
	want := []string{"November", "December", "January", "February"}
	if len(upcoming) != len(want) {
		t.Fatalf("expected %d months, got %v", len(want), upcoming)
	}
	for i, m := range want {
		if upcoming[i] != m {
			t.Fatalf("position %d: got %q, want %q", i, upcoming[i], m)
		}
	}
}
