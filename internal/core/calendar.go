package core

import "time"

// Fallback dot color for bills whose category has no known color.
const defaultDotColor = "#c9c1b5"

// maxDotColors caps the number of indicator colors shown per day.
const maxDotColors = 4

// CalendarCell is one slot in the 7-column month grid. Leading and
// trailing padding cells have Empty set.
type CalendarCell struct {
	Day   int
	Empty bool
	Today bool
}

// DaysInMonth returns the day count for a zero-based month index.
func DaysInMonth(year, monthIndex int) int {
	return time.Date(year, time.Month(monthIndex+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayIndex returns the Monday-indexed weekday of day 1:
// Monday=0 .. Saturday=5, Sunday=6.
func FirstWeekdayIndex(year, monthIndex int) int {
	weekday := int(time.Date(year, time.Month(monthIndex+1), 1, 0, 0, 0, 0, time.UTC).Weekday())
	if weekday == 0 {
		return 6
	}
	return weekday - 1
}

// MonthGrid builds the calendar cells for a month, padded to a multiple
// of seven. Cells matching today's real date are tagged.
func MonthGrid(year, monthIndex int, today time.Time) []CalendarCell {
	offset := FirstWeekdayIndex(year, monthIndex)
	days := DaysInMonth(year, monthIndex)
	total := offset + days
	slots := ((total + 6) / 7) * 7

	cells := make([]CalendarCell, 0, slots)
	for i := 0; i < slots; i++ {
		day := i - offset + 1
		empty := day < 1 || day > days
		isToday := !empty &&
			day == today.Day() &&
			year == today.Year() &&
			monthIndex == int(today.Month())-1
		cells = append(cells, CalendarCell{Day: day, Empty: empty, Today: isToday})
	}
	return cells
}

// BillsByDay groups expense entries with a due day into day buckets.
// Entries without a due day are not calendar material.
func BillsByDay(entries []Entry) map[int][]Entry {
	out := make(map[int][]Entry)
	for _, e := range entries {
		if e.Type != Expense || e.DueDay == nil {
			continue
		}
		day := *e.DueDay
		out[day] = append(out[day], e)
	}
	return out
}

// BillDots derives up to four distinct indicator colors per day, in
// first-seen order.
func BillDots(bills map[int][]Entry, colorByID map[string]string) map[int][]string {
	out := make(map[int][]string, len(bills))
	for day, dayBills := range bills {
		seen := make(map[string]struct{})
		var colors []string
		for _, bill := range dayBills {
			color := colorByID[bill.CategoryID]
			if color == "" {
				color = defaultDotColor
			}
			if _, ok := seen[color]; ok {
				continue
			}
			seen[color] = struct{}{}
			colors = append(colors, color)
			if len(colors) == maxDotColors {
				break
			}
		}
		out[day] = colors
	}
	return out
}
