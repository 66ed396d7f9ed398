package services

import (
	"sync"
	"time"

	"budgetbook/internal/core"
)

// Selection tracks the month and year the user is currently viewing.
// A single instance is shared across the services so entries, calendar
// and dashboard all answer questions about the same period.
type Selection struct {
	mu       sync.Mutex
	month    string
	year     int
	current  int
	showAll  bool
	yearsLow int
	yearsTop int
}

// NewSelection starts at the month and year of the given instant.
func NewSelection(now time.Time) *Selection {
	return &Selection{
		month:    core.Months[int(now.Month())-1],
		year:     now.Year(),
		current:  now.Year(),
		yearsLow: -3,
		yearsTop: 3,
	}
}

func (s *Selection) Month() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.month
}

func (s *Selection) Year() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.year
}

// CurrentYear is the real-world year captured at startup, distinct from
// the selected year which the user can move around.
func (s *Selection) CurrentYear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetMonth ignores names that are not one of the twelve months.
func (s *Selection) SetMonth(name string) bool {
	if core.MonthIndex(name) < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.month = name
	return true
}

func (s *Selection) SetYear(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.year = year
}

func (s *Selection) ShowAllMonths() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showAll
}

func (s *Selection) SetShowAllMonths(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showAll = v
}

// Years returns the selectable year window around the current year.
func (s *Selection) Years() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Years(s.current, s.yearsLow, s.yearsTop)
}

// VisibleMonths returns either all months or the next few starting from
// the real current month, depending on the show-all toggle.
func (s *Selection) VisibleMonths(now time.Time) []string {
	s.mu.Lock()
	showAll := s.showAll
	s.mu.Unlock()
	return core.VisibleMonths(showAll, now)
}
