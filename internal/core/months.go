package core

import "time"

// Months in display order. Entries reference months by name.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthIndex returns the zero-based index of a month name, or -1.
func MonthIndex(name string) int {
	for i, m := range Months {
		if m == name {
			return i
		}
	}
	return -1
}

// MonthName returns the name for a zero-based month index.
func MonthName(index int) string {
	if index < 0 || index >= len(Months) {
		return ""
	}
	return Months[index]
}

// Years returns the selectable year window around the current year.
func Years(currentYear, startOffset, endOffset int) []int {
	start := currentYear + startOffset
	end := currentYear + endOffset
	if end < start {
		return nil
	}
	out := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		out = append(out, y)
	}
	return out
}

// VisibleMonths returns either all months or the four months starting at
// the real current month, wrapping past December.
func VisibleMonths(showAll bool, now time.Time) []string {
	if showAll {
		return append([]string(nil), Months...)
	}
	current := int(now.Month()) - 1
	out := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		out = append(out, Months[(current+i)%12])
	}
	return out
}
