package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/session"
	"budgetbook/internal/store"
)

// ErrNotSignedIn is returned for mutations attempted without a user.
var ErrNotSignedIn = errors.New("not signed in")

// EventPublisher emits entry change events for downstream consumers.
// A nil publisher disables eventing without touching the call sites.
type EventPublisher interface {
	PublishEntryEvent(ctx context.Context, event *amqp.EntryEvent) error
}

// EntryInput is what callers provide when creating an entry. Month and
// year come from the shared selection, not from the caller.
type EntryInput struct {
	Name       string
	Amount     float64
	Type       core.EntryType
	DueDay     *int
	CategoryID string
}

// EntryService owns the entries of the selected month: loading,
// mutations, the legacy year migration and the derived totals the
// views render. Errors from the store are caught here, logged, and
// surfaced as a user-facing message.
type EntryService struct {
	store      store.EntryStore
	session    *session.Session
	categories *CategoryService
	selection  *Selection
	events     EventPublisher
	logger     *slog.Logger

	mu        sync.Mutex
	entries   []core.Entry
	filters   map[string]struct{}
	errMsg    string
	loading   bool
	migrated  bool
	migrating bool
}

func NewEntryService(st store.EntryStore, sess *session.Session, cats *CategoryService, sel *Selection, events EventPublisher, logger *slog.Logger) *EntryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryService{
		store:      st,
		session:    sess,
		categories: cats,
		selection:  sel,
		events:     events,
		logger:     logger,
		filters:    make(map[string]struct{}),
	}
}

// LoadEntries runs the one-shot year migration for legacy records,
// then fetches the selected month's entries and keeps only the ones
// that belong to the selected year.
func (s *EntryService) LoadEntries(ctx context.Context) error {
	s.setError("")
	userID, err := s.session.UserID(ctx)
	if err != nil {
		s.setError("Could not resolve the current user.")
		s.logger.Error("load entries: resolve user", "error", err)
		return err
	}
	if userID == "" {
		s.mu.Lock()
		s.entries = nil
		s.mu.Unlock()
		return nil
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.migrateYears(ctx, userID); err != nil {
		// Not fatal for the view. The guard stays unset, so the next
		// load retries, and the message tells the user why data may
		// look off meanwhile.
		s.setError("Could not migrate entries to include year.")
		s.logger.Error("migrate entry years", "error", err)
	}

	month := s.selection.Month()
	entries, err := s.store.ListEntries(ctx, month, userID)
	if err != nil {
		s.setError("Could not load entries.")
		s.logger.Error("load entries", "month", month, "error", err)
		return err
	}

	selected := s.selection.Year()
	current := s.selection.CurrentYear()
	visible := entries[:0:0]
	for _, e := range entries {
		if e.MatchesYear(selected, current) {
			visible = append(visible, e)
		}
	}

	s.mu.Lock()
	s.entries = visible
	s.mu.Unlock()
	return nil
}

// migrateYears stamps a year and a fallback category onto legacy
// entries that predate both fields. Every month is scanned, since
// legacy records exist regardless of the current selection. The guard
// is set only after a clean pass, and the patches run concurrently.
func (s *EntryService) migrateYears(ctx context.Context, userID string) error {
	s.mu.Lock()
	if s.migrated || s.migrating {
		s.mu.Unlock()
		return nil
	}
	s.migrating = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.migrating = false
		s.mu.Unlock()
	}()

	incomeID := s.categories.IncomeCategoryID()
	uncategorizedID := s.categories.UncategorizedCategoryID()

	var candidates []core.Entry
	for _, month := range core.Months {
		entries, err := s.store.ListEntries(ctx, month, userID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Year == 0 {
				candidates = append(candidates, e)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range candidates {
		// Without a creation timestamp there is no year to infer, so
		// the entry is left alone.
		if e.CreatedAt.IsZero() {
			continue
		}
		categoryID := e.CategoryID
		if categoryID == "" {
			if e.Type == core.Income {
				categoryID = firstNonEmpty(incomeID, uncategorizedID)
			} else {
				categoryID = firstNonEmpty(uncategorizedID, incomeID)
			}
		}
		if categoryID == "" {
			continue
		}
		id := e.ID
		y := e.CreatedAt.Year()
		cid := categoryID
		g.Go(func() error {
			_, err := s.store.UpdateEntry(gctx, id, userID, store.EntryPatch{
				Year:       &y,
				CategoryID: &cid,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.migrated = true
	s.mu.Unlock()
	return nil
}

// SaveEntry creates an entry in the selected month and year.
func (s *EntryService) SaveEntry(ctx context.Context, input EntryInput) (core.Entry, error) {
	userID, err := s.session.UserID(ctx)
	if err != nil || userID == "" {
		s.setError("Sign in to add entries.")
		if err == nil {
			err = ErrNotSignedIn
		}
		return core.Entry{}, err
	}

	entry := core.Entry{
		Name:       strings.TrimSpace(input.Name),
		Amount:     input.Amount,
		Type:       input.Type,
		Month:      s.selection.Month(),
		Year:       s.selection.Year(),
		DueDay:     input.DueDay,
		CategoryID: input.CategoryID,
		UserID:     userID,
	}
	if err := entry.Validate(); err != nil {
		s.setError("Check the entry fields and try again.")
		return core.Entry{}, err
	}

	created, err := s.store.CreateEntry(ctx, entry)
	if err != nil {
		s.setError("Could not save the entry.")
		s.logger.Error("create entry", "error", err)
		return core.Entry{}, err
	}

	s.mu.Lock()
	s.entries = append([]core.Entry{created}, s.entries...)
	s.errMsg = ""
	s.mu.Unlock()

	s.publish(ctx, amqp.NewEntryCreated(created.ID, userID))
	return created, nil
}

// UpdateEntry applies a partial update to one of the user's entries.
func (s *EntryService) UpdateEntry(ctx context.Context, id string, patch store.EntryPatch) (core.Entry, error) {
	userID, err := s.session.UserID(ctx)
	if err != nil || userID == "" {
		s.setError("Sign in to edit entries.")
		if err == nil {
			err = ErrNotSignedIn
		}
		return core.Entry{}, err
	}

	updated, err := s.store.UpdateEntry(ctx, id, userID, patch)
	if err != nil {
		s.setError("Could not update the entry.")
		s.logger.Error("update entry", "id", id, "error", err)
		return core.Entry{}, err
	}

	s.mu.Lock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i] = updated
		}
	}
	s.errMsg = ""
	s.mu.Unlock()
	return updated, nil
}

// DeleteEntryByID removes an entry and drops it from the cache.
func (s *EntryService) DeleteEntryByID(ctx context.Context, id string) error {
	userID, err := s.session.UserID(ctx)
	if err != nil || userID == "" {
		s.setError("Sign in to delete entries.")
		if err == nil {
			err = ErrNotSignedIn
		}
		return err
	}

	if err := s.store.DeleteEntry(ctx, id, userID); err != nil {
		s.setError("Could not delete the entry.")
		s.logger.Error("delete entry", "id", id, "error", err)
		return err
	}

	s.mu.Lock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.errMsg = ""
	s.mu.Unlock()

	s.publish(ctx, amqp.NewEntryDeleted(id, userID))
	return nil
}

// CopyMonth copies every entry of the source month in the selected
// year into the selected month. Copies are created concurrently; a
// failure aborts the batch but already created copies stay.
func (s *EntryService) CopyMonth(ctx context.Context, fromMonth string) (int, error) {
	if core.MonthIndex(fromMonth) < 0 {
		s.setError("Pick a month to copy from.")
		return 0, core.ErrInvalidMonth
	}
	userID, err := s.session.UserID(ctx)
	if err != nil || userID == "" {
		s.setError("Sign in to copy entries.")
		if err == nil {
			err = ErrNotSignedIn
		}
		return 0, err
	}

	source, err := s.store.ListEntries(ctx, fromMonth, userID)
	if err != nil {
		s.setError("Could not load the source month.")
		s.logger.Error("copy month: load source", "month", fromMonth, "error", err)
		return 0, err
	}

	selected := s.selection.Year()
	current := s.selection.CurrentYear()
	targetMonth := s.selection.Month()

	g, gctx := errgroup.WithContext(ctx)
	copied := 0
	for _, e := range source {
		if !e.MatchesYear(selected, current) {
			continue
		}
		copied++
		categoryID := e.CategoryID
		if categoryID == "" {
			categoryID = s.categories.UncategorizedCategoryID()
		}
		entry := core.Entry{
			Name:       e.Name,
			Amount:     e.Amount,
			Type:       e.Type,
			Month:      targetMonth,
			Year:       selected,
			DueDay:     e.DueDay,
			CategoryID: categoryID,
			UserID:     userID,
		}
		g.Go(func() error {
			_, err := s.store.CreateEntry(gctx, entry)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.setError("Could not copy all entries.")
		s.logger.Error("copy month", "from", fromMonth, "error", err)
		return 0, err
	}

	if err := s.LoadEntries(ctx); err != nil {
		return copied, err
	}
	return copied, nil
}

// ClearMonth deletes every entry of the selected month and year. The
// month is listed fresh from the store first, so entries created since
// the last load are cleared too. Deletes run concurrently; there is no
// rollback on partial failure.
func (s *EntryService) ClearMonth(ctx context.Context) error {
	userID, err := s.session.UserID(ctx)
	if err != nil || userID == "" {
		s.setError("Sign in to clear the month.")
		if err == nil {
			err = ErrNotSignedIn
		}
		return err
	}

	month := s.selection.Month()
	entries, err := s.store.ListEntries(ctx, month, userID)
	if err != nil {
		s.setError("Could not clear the month.")
		s.logger.Error("clear month: load", "month", month, "error", err)
		return err
	}

	selected := s.selection.Year()
	current := s.selection.CurrentYear()
	var targets []string
	for _, e := range entries {
		if e.MatchesYear(selected, current) {
			targets = append(targets, e.ID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range targets {
		id := id
		g.Go(func() error {
			return s.store.DeleteEntry(gctx, id, userID)
		})
	}
	if err := g.Wait(); err != nil {
		s.setError("Could not clear the month.")
		s.logger.Error("clear month", "error", err)
		return err
	}

	for _, id := range targets {
		s.publish(ctx, amqp.NewEntryDeleted(id, userID))
	}
	return s.LoadEntries(ctx)
}

// Entries returns the visible entries, filtered by the active category
// set and sorted for display.
func (s *EntryService) Entries() []core.Entry {
	s.mu.Lock()
	entries := make([]core.Entry, len(s.entries))
	copy(entries, s.entries)
	active := make(map[string]struct{}, len(s.filters))
	for id := range s.filters {
		active[id] = struct{}{}
	}
	s.mu.Unlock()

	filtered := core.FilterByCategories(entries, active)
	return core.SortEntries(filtered, s.categories.NameByID())
}

// AllEntries returns the loaded entries ignoring category filters.
func (s *EntryService) AllEntries() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *EntryService) IncomeTotal() float64 {
	return core.IncomeTotal(s.AllEntries())
}

func (s *EntryService) ExpenseTotal() float64 {
	return core.ExpenseTotal(s.AllEntries())
}

func (s *EntryService) Balance() float64 {
	return core.BalanceTotal(s.AllEntries())
}

// FilteredTotal sums the visible entries, expenses counted negative.
func (s *EntryService) FilteredTotal() float64 {
	return core.FilteredTotal(s.Entries())
}

// ToggleCategoryFilter flips a category in the active filter set and
// reports whether it is active afterwards.
func (s *EntryService) ToggleCategoryFilter(categoryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.filters[categoryID]; ok {
		delete(s.filters, categoryID)
		return false
	}
	s.filters[categoryID] = struct{}{}
	return true
}

func (s *EntryService) ClearCategoryFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = make(map[string]struct{})
}

func (s *EntryService) ActiveFilters() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.filters))
	for id := range s.filters {
		out = append(out, id)
	}
	return out
}

func (s *EntryService) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *EntryService) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *EntryService) publish(ctx context.Context, event *amqp.EntryEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEntryEvent(ctx, event); err != nil {
		s.logger.Error("publish entry event", "action", event.Action, "error", err)
	}
}

func (s *EntryService) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

func (s *EntryService) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
