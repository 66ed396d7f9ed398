package core

import (
	"testing"
	"time"
)

func TestFirstWeekdayIndex(t *testing.T) {
	cases := []struct {
		year  int
		month int // zero-based
		want  int
	}{
		{2025, 0, 2},  // January 2025 starts on a Wednesday
		{2025, 8, 0},  // September 2025 starts on a Monday
		{2025, 5, 6},  // June 2025 starts on a Sunday
		{2025, 10, 5}, // November 2025 starts on a Saturday
	}
	for i, tc := range cases {
		if got := FirstWeekdayIndex(tc.year, tc.month); got != tc.want {
			t.Fatalf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month int
		want  int
	}{
		{2025, 0, 31},
		{2025, 1, 28},
		{2024, 1, 29}, // leap year
		{2025, 3, 30},
	}
	for i, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Fatalf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestMonthGrid(t *testing.T) {
	today := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	cells := MonthGrid(2025, 0, today)

	if len(cells)%7 != 0 {
		t.Fatalf("grid length %d is not a multiple of 7", len(cells))
	}
	// Day 1 falls on a Wednesday: Monday and Tuesday are placeholders.
	if !cells[0].Empty || !cells[1].Empty {
		t.Fatalf("expected leading placeholder cells, got %+v %+v", cells[0], cells[1])
	}
	if cells[2].Empty || cells[2].Day != 1 {
		t.Fatalf("expected day 1 at index 2, got %+v", cells[2])
	}
	last := cells[len(cells)-1]
	if !last.Empty && last.Day != 31 {
		t.Fatalf("unexpected final cell %+v", last)
	}

	var todayCount int
	for _, c := range cells {
		if c.Today {
			todayCount++
			if c.Day != 15 {
				t.Fatalf("today tag on day %d", c.Day)
			}
		}
	}
	if todayCount != 1 {
		t.Fatalf("expected exactly one today cell, got %d", todayCount)
	}

	// A different viewed month never carries the today tag.
	for _, c := range MonthGrid(2025, 1, today) {
		if c.Today {
			t.Fatalf("unexpected today tag in another month: %+v", c)
		}
	}
}

func TestBillsByDay(t *testing.T) {
	entries := []Entry{
		{ID: "a", Type: Expense, DueDay: intPtr(5)},
		{ID: "b", Type: Expense, DueDay: intPtr(5)},
		{ID: "c", Type: Expense, DueDay: intPtr(12)},
		{ID: "d", Type: Expense, DueDay: nil}, // no due day, not calendar material
		{ID: "e", Type: Income, DueDay: intPtr(5)},
	}
	bills := BillsByDay(entries)
	if len(bills) != 2 {
		t.Fatalf("expected 2 days, got %d", len(bills))
	}
	if len(bills[5]) != 2 || len(bills[12]) != 1 {
		t.Fatalf("unexpected grouping: %v", bills)
	}
}

func TestBillDots(t *testing.T) {
	entries := []Entry{
		{ID: "a", Type: Expense, DueDay: intPtr(1), CategoryID: "c1"},
		{ID: "b", Type: Expense, DueDay: intPtr(1), CategoryID: "c1"}, // duplicate color
		{ID: "c", Type: Expense, DueDay: intPtr(1), CategoryID: "c2"},
		{ID: "d", Type: Expense, DueDay: intPtr(1), CategoryID: "c3"},
		{ID: "e", Type: Expense, DueDay: intPtr(1), CategoryID: "c4"},
		{ID: "f", Type: Expense, DueDay: intPtr(1), CategoryID: "c5"}, // beyond the cap
		{ID: "g", Type: Expense, DueDay: intPtr(2), CategoryID: "missing"},
	}
	colors := map[string]string{
		"c1": "#111111", "c2": "#222222", "c3": "#333333",
		"c4": "#444444", "c5": "#555555",
	}
	dots := BillDots(BillsByDay(entries), colors)
	if len(dots[1]) != 4 {
		t.Fatalf("expected 4 dots, got %v", dots[1])
	}
	if dots[1][0] != "#111111" || dots[1][1] != "#222222" {
		t.Fatalf("first-seen order broken: %v", dots[1])
	}
	if len(dots[2]) != 1 || dots[2][0] != defaultDotColor {
		t.Fatalf("expected fallback color, got %v", dots[2])
	}
}
