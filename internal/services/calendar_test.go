package services

import (
	"context"
	"testing"
	"time"

	"budgetbook/internal/core"
)

func newCalendarEnv(t *testing.T) (*testEnv, *CalendarService) {
	t.Helper()
	env := newTestEnv(t)
	cal := NewCalendarService(env.store, env.session, env.categories, env.selection, testLogger())
	cal.now = func() time.Time { return testNow }
	return env, cal
}

func TestLoadBillsKeepsDatedExpenses(t *testing.T) {
	env, cal := newCalendarEnv(t)
	ctx := context.Background()

	env.store.CreateEntry(ctx, core.Entry{
		Name: "Rent", Amount: 900, Type: core.Expense, DueDay: intPtr(1),
		Month: "March", Year: 2025, UserID: "u1",
	})
	env.store.CreateEntry(ctx, core.Entry{
		Name: "Groceries", Amount: 200, Type: core.Expense,
		Month: "March", Year: 2025, UserID: "u1",
	})
	env.store.CreateEntry(ctx, core.Entry{
		Name: "Salary", Amount: 3000, Type: core.Income, DueDay: intPtr(25),
		Month: "March", Year: 2025, UserID: "u1",
	})
	// The calendar is month-scoped only; a different year stamp still
	// shows on its due day.
	env.store.CreateEntry(ctx, core.Entry{
		Name: "Old rent", Amount: 800, Type: core.Expense, DueDay: intPtr(1),
		Month: "March", Year: 2024, UserID: "u1",
	})

	cal.LoadBills(ctx)
	bills := cal.BillsByDay()
	if len(bills) != 1 {
		t.Fatalf("BillsByDay = %v, want only day 1", bills)
	}
	if got := bills[1]; len(got) != 2 {
		t.Fatalf("day 1 bills = %v, want Rent and Old rent", got)
	}
}

func TestCalendarGridForSelectedMonth(t *testing.T) {
	_, cal := newCalendarEnv(t)

	// March 2025 starts on a Saturday: five leading blanks, 36 slots
	// padded to six weeks.
	cells := cal.Grid()
	if len(cells) != 42 {
		t.Fatalf("grid has %d cells, want 42", len(cells))
	}
	for i := 0; i < 5; i++ {
		if !cells[i].Empty {
			t.Fatalf("cell %d should be padding", i)
		}
	}
	if cells[5].Day != 1 {
		t.Fatalf("day 1 at index 5, got %+v", cells[5])
	}

	var today int
	for _, c := range cells {
		if c.Today {
			today = c.Day
		}
	}
	if today != 10 {
		t.Fatalf("today marker on day %d, want 10", today)
	}
}

func TestSelectDayToggles(t *testing.T) {
	env, cal := newCalendarEnv(t)
	ctx := context.Background()

	env.store.CreateEntry(ctx, core.Entry{
		Name: "Rent", Amount: 900, Type: core.Expense, DueDay: intPtr(14),
		Month: "March", Year: 2025, UserID: "u1",
	})
	cal.LoadBills(ctx)

	cal.SelectDay(14)
	if got := cal.SelectedLabel(); got != "March 14, 2025" {
		t.Fatalf("label = %q, want March 14, 2025", got)
	}
	if got := cal.SelectedBills(); len(got) != 1 || got[0].Name != "Rent" {
		t.Fatalf("selected bills = %v, want Rent", got)
	}

	cal.SelectDay(14)
	if got := cal.SelectedDay(); got != 0 {
		t.Fatalf("second select should close the panel, day = %d", got)
	}
	if got := cal.SelectedLabel(); got != "" {
		t.Fatalf("label after close = %q", got)
	}
}

func TestLoadBillsErrorRendersEmpty(t *testing.T) {
	env, cal := newCalendarEnv(t)
	ctx := context.Background()

	env.store.CreateEntry(ctx, core.Entry{
		Name: "Rent", Amount: 900, Type: core.Expense, DueDay: intPtr(1),
		Month: "March", Year: 2025, UserID: "u1",
	})
	cal.LoadBills(ctx)
	if got := cal.BillsByDay(); len(got) != 1 {
		t.Fatalf("bills = %v, want one day", got)
	}

	env.store.SignOut()
	env.session.Invalidate()
	cal.LoadBills(ctx)
	if got := cal.BillsByDay(); len(got) != 0 {
		t.Fatalf("signed out bills = %v, want empty calendar", got)
	}
}
