package core

import (
	"sort"
	"strings"
)

// IncomeTotal sums income entry amounts.
func IncomeTotal(entries []Entry) float64 {
	return sumByType(entries, Income)
}

// ExpenseTotal sums expense entry amounts.
func ExpenseTotal(entries []Entry) float64 {
	return sumByType(entries, Expense)
}

// BalanceTotal is income minus expenses.
func BalanceTotal(entries []Entry) float64 {
	return IncomeTotal(entries) - ExpenseTotal(entries)
}

// FilteredTotal is the signed sum over a set: expenses subtract, anything
// else adds.
func FilteredTotal(entries []Entry) float64 {
	var sum float64
	for _, e := range entries {
		amount := e.AmountValue()
		if e.Type == Expense {
			sum -= amount
		} else {
			sum += amount
		}
	}
	return sum
}

func sumByType(entries []Entry, t EntryType) float64 {
	var sum float64
	for _, e := range entries {
		if e.Type == t {
			sum += e.AmountValue()
		}
	}
	return sum
}

// FilterByCategories keeps entries whose category id is in the active
// filter set. An empty set means no filtering.
func FilterByCategories(entries []Entry, active map[string]struct{}) []Entry {
	if len(active) == 0 {
		return append([]Entry(nil), entries...)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := active[e.CategoryID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// SortEntries orders income before expense, then by category display name,
// then by entry name, both case-insensitive. The input is not mutated.
func SortEntries(entries []Entry, nameByID map[string]string) []Entry {
	out := append([]Entry(nil), entries...)
	priority := func(t EntryType) int {
		switch t {
		case Income:
			return 0
		case Expense:
			return 1
		default:
			return 2
		}
	}
	displayName := func(e Entry) string {
		if name, ok := nameByID[e.CategoryID]; ok && name != "" {
			return name
		}
		return "Uncategorized"
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if d := priority(a.Type) - priority(b.Type); d != 0 {
			return d < 0
		}
		ac := strings.ToLower(displayName(a))
		bc := strings.ToLower(displayName(b))
		if ac != bc {
			return ac < bc
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out
}
