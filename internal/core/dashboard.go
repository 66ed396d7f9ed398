package core

import (
	"sort"
	"time"
)

// Color used for the synthesized uncategorized bucket.
const uncategorizedColor = "#7a6f63"

// CategoryTotal is one bucket of the per-category expense breakdown.
type CategoryTotal struct {
	ID     string
	Name   string
	Color  string
	Amount float64
}

// MonthTotal is one point of the year trend series.
type MonthTotal struct {
	Month  string
	Amount float64
}

// RemainingToPay sums expense amounts that still have a due day ahead.
// When the viewed month is the real current month only days strictly
// after today count; otherwise every dated expense counts.
func RemainingToPay(entries []Entry, selectedMonth string, today time.Time) float64 {
	currentMonth := MonthName(int(today.Month()) - 1)
	todayDay := today.Day()

	var sum float64
	for _, e := range entries {
		if e.Type != Expense || e.DueDay == nil {
			continue
		}
		if selectedMonth == currentMonth && *e.DueDay <= todayDay {
			continue
		}
		sum += e.AmountValue()
	}
	return sum
}

// ExpenseByCategory groups expense amounts by category id, sorted by
// amount descending. Entries without a category land in a synthesized
// uncategorized bucket.
func ExpenseByCategory(entries []Entry, nameByID, colorByID map[string]string) []CategoryTotal {
	totals := make(map[string]float64)
	order := make([]string, 0)
	for _, e := range entries {
		if e.Type != Expense {
			continue
		}
		key := e.CategoryID
		if key == "" {
			key = UncategorizedCategoryName
		}
		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		totals[key] += e.AmountValue()
	}

	rows := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		row := CategoryTotal{ID: id, Amount: totals[id]}
		if id == UncategorizedCategoryName {
			row.Name = "Uncategorized"
		} else {
			row.Name = nameByID[id]
		}
		row.Color = colorByID[id]
		if row.Color == "" {
			row.Color = uncategorizedColor
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Amount > rows[j].Amount })
	return rows
}

// MaxCategoryAmount is the largest breakdown bucket, 0 if none. Used to
// scale bar charts.
func MaxCategoryAmount(rows []CategoryTotal) float64 {
	var max float64
	for _, row := range rows {
		if row.Amount > max {
			max = row.Amount
		}
	}
	return max
}

// YearlyTotals computes the per-month sum over a year's entries for one
// transaction type. A series where every month is zero is suppressed to
// empty, to tell "no year data" apart from flat zero.
func YearlyTotals(yearEntries []Entry, mode EntryType) []MonthTotal {
	if len(yearEntries) == 0 {
		return nil
	}
	totals := make([]MonthTotal, 0, len(Months))
	hasValues := false
	for _, month := range Months {
		var amount float64
		for _, e := range yearEntries {
			if e.Month != month || e.Type != mode {
				continue
			}
			amount += e.AmountValue()
		}
		if amount > 0 {
			hasValues = true
		}
		totals = append(totals, MonthTotal{Month: month, Amount: amount})
	}
	if !hasValues {
		return nil
	}
	return totals
}

// MaxYearAmount is the largest month in the trend series, 0 if none.
func MaxYearAmount(rows []MonthTotal) float64 {
	var max float64
	for _, row := range rows {
		if row.Amount > max {
			max = row.Amount
		}
	}
	return max
}
