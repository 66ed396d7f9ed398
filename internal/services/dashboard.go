package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/core"
	"budgetbook/internal/session"
	"budgetbook/internal/store"
)

// DashboardService aggregates the selected month and the whole selected
// year into the overview numbers. Month and year entries are loaded
// separately; the year load fans out one fetch per month.
type DashboardService struct {
	store      store.EntryStore
	session    *session.Session
	categories *CategoryService
	selection  *Selection
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.Mutex
	month     []core.Entry
	year      []core.Entry
	chartMode core.EntryType
}

func NewDashboardService(st store.EntryStore, sess *session.Session, cats *CategoryService, sel *Selection, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:      st,
		session:    sess,
		categories: cats,
		selection:  sel,
		logger:     logger,
		now:        time.Now,
		chartMode:  core.Expense,
	}
}

// LoadMonth fetches the selected month's entries for the summary cards.
func (s *DashboardService) LoadMonth(ctx context.Context) error {
	userID, err := s.session.UserID(ctx)
	if err != nil {
		return err
	}
	if userID == "" {
		s.mu.Lock()
		s.month = nil
		s.mu.Unlock()
		return nil
	}

	month := s.selection.Month()
	entries, err := s.store.ListEntries(ctx, month, userID)
	if err != nil {
		s.logger.Error("dashboard: load month", "month", month, "error", err)
		return err
	}

	selected := s.selection.Year()
	current := s.selection.CurrentYear()
	var visible []core.Entry
	for _, e := range entries {
		if e.MatchesYear(selected, current) {
			visible = append(visible, e)
		}
	}

	s.mu.Lock()
	s.month = visible
	s.mu.Unlock()
	return nil
}

// LoadYear fetches all twelve months of the selected year concurrently
// and concatenates them in calendar order.
func (s *DashboardService) LoadYear(ctx context.Context) error {
	userID, err := s.session.UserID(ctx)
	if err != nil {
		return err
	}
	if userID == "" {
		s.mu.Lock()
		s.year = nil
		s.mu.Unlock()
		return nil
	}

	selected := s.selection.Year()
	current := s.selection.CurrentYear()

	results := make([][]core.Entry, len(core.Months))
	g, gctx := errgroup.WithContext(ctx)
	for i, month := range core.Months {
		i, month := i, month
		g.Go(func() error {
			entries, err := s.store.ListEntries(gctx, month, userID)
			if err != nil {
				return err
			}
			var visible []core.Entry
			for _, e := range entries {
				if e.MatchesYear(selected, current) {
					visible = append(visible, e)
				}
			}
			results[i] = visible
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard: load year", "year", selected, "error", err)
		return err
	}

	var all []core.Entry
	for _, chunk := range results {
		all = append(all, chunk...)
	}

	s.mu.Lock()
	s.year = all
	s.mu.Unlock()
	return nil
}

// MonthIncome returns nil while the month has no entries, before and
// after loading alike, so the view can show a placeholder instead of a
// misleading zero.
func (s *DashboardService) MonthIncome() *float64 {
	entries, ok := s.monthEntries()
	if !ok {
		return nil
	}
	v := core.IncomeTotal(entries)
	return &v
}

func (s *DashboardService) MonthExpenses() *float64 {
	entries, ok := s.monthEntries()
	if !ok {
		return nil
	}
	v := core.ExpenseTotal(entries)
	return &v
}

func (s *DashboardService) MonthBalance() *float64 {
	entries, ok := s.monthEntries()
	if !ok {
		return nil
	}
	v := core.BalanceTotal(entries)
	return &v
}

// RemainingToPay sums the dated bills still ahead of today. Outside the
// real current month every dated bill counts.
func (s *DashboardService) RemainingToPay() *float64 {
	entries, ok := s.monthEntries()
	if !ok {
		return nil
	}
	v := core.RemainingToPay(entries, s.selection.Month(), s.now())
	return &v
}

// ExpenseByCategory buckets the month's expenses for the category bars.
func (s *DashboardService) ExpenseByCategory() []core.CategoryTotal {
	entries, _ := s.monthEntries()
	return core.ExpenseByCategory(entries, s.categories.NameByID(), s.categories.ColorByID())
}

func (s *DashboardService) MaxCategoryAmount() float64 {
	return core.MaxCategoryAmount(s.ExpenseByCategory())
}

// YearlyTotals returns the per-month series for the chart mode, or nil
// when the year is empty so the chart can hide itself.
func (s *DashboardService) YearlyTotals() []core.MonthTotal {
	s.mu.Lock()
	entries := make([]core.Entry, len(s.year))
	copy(entries, s.year)
	mode := s.chartMode
	s.mu.Unlock()
	return core.YearlyTotals(entries, mode)
}

func (s *DashboardService) MaxYearAmount() float64 {
	return core.MaxYearAmount(s.YearlyTotals())
}

// ChartMode is the entry type the yearly chart currently shows.
func (s *DashboardService) ChartMode() core.EntryType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chartMode
}

// SetChartMode ignores values that are not a valid entry type.
func (s *DashboardService) SetChartMode(mode core.EntryType) bool {
	if !mode.Valid() {
		return false
	}
	s.mu.Lock()
	s.chartMode = mode
	s.mu.Unlock()
	return true
}

func (s *DashboardService) monthEntries() ([]core.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.month) == 0 {
		return nil, false
	}
	out := make([]core.Entry, len(s.month))
	copy(out, s.month)
	return out, true
}
