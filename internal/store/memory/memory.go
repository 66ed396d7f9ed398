package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetbook/internal/core"
	"budgetbook/internal/store"
)

// Store is an in-memory document store. It backs tests and local
// development and enforces the same per-user scoping as the real backends.
type Store struct {
	mu          sync.Mutex
	entries     []core.Entry
	categories  []core.Category
	templates   []core.Template
	currentUser *core.User
	prefs       map[string]core.Preferences
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{prefs: make(map[string]core.Preferences)}
}

// SignIn sets the user returned by CurrentUser.
func (s *Store) SignIn(user core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.currentUser = &u
}

// SignOut clears the current user.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = nil
}

func (s *Store) CurrentUser(_ context.Context) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentUser == nil {
		return nil, nil
	}
	u := *s.currentUser
	return &u, nil
}

func (s *Store) GetPrefs(_ context.Context, userID string) (core.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.prefs[userID]; ok {
		return p, nil
	}
	return core.DefaultPreferences(), nil
}

func (s *Store) UpdatePrefs(_ context.Context, userID string, prefs core.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = prefs
	return nil
}

func (s *Store) ListEntries(_ context.Context, month, userID string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entry
	// Walk backwards so same-timestamp entries keep newest-insert-first order.
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.Month == month && e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetEntry(_ context.Context, id, userID string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id && e.UserID == userID {
			return e, nil
		}
	}
	return core.Entry{}, store.ErrNotFound
}

func (s *Store) CreateEntry(_ context.Context, entry core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *Store) UpdateEntry(_ context.Context, id, userID string, patch store.EntryPatch) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID != id || s.entries[i].UserID != userID {
			continue
		}
		applyEntryPatch(&s.entries[i], patch)
		return s.entries[i], nil
	}
	return core.Entry{}, store.ErrNotFound
}

func (s *Store) DeleteEntry(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id && s.entries[i].UserID == userID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, category core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	s.categories = append(s.categories, category)
	return category, nil
}

func (s *Store) UpdateCategory(_ context.Context, id, userID string, patch store.CategoryPatch) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID != id || s.categories[i].UserID != userID {
			continue
		}
		if patch.Name != nil {
			s.categories[i].Name = *patch.Name
		}
		if patch.Color != nil {
			s.categories[i].Color = *patch.Color
		}
		return s.categories[i], nil
	}
	return core.Category{}, store.ErrNotFound
}

func (s *Store) DeleteCategory(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id && s.categories[i].UserID == userID {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListTemplates(_ context.Context, userID string) ([]core.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Template
	for _, t := range s.templates {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) CreateTemplate(_ context.Context, template core.Template) (core.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	s.templates = append(s.templates, template)
	return template, nil
}

func (s *Store) DeleteTemplate(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.templates {
		if s.templates[i].ID == id && s.templates[i].UserID == userID {
			s.templates = append(s.templates[:i], s.templates[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func applyEntryPatch(e *core.Entry, patch store.EntryPatch) {
	if patch.Name != nil {
		e.Name = *patch.Name
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Type != nil {
		e.Type = *patch.Type
	}
	if patch.Month != nil {
		e.Month = *patch.Month
	}
	if patch.Year != nil {
		e.Year = *patch.Year
	}
	if patch.SetDueDay {
		e.DueDay = patch.DueDay
	}
	if patch.CategoryID != nil {
		e.CategoryID = *patch.CategoryID
	}
}
