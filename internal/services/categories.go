package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"budgetbook/internal/core"
	"budgetbook/internal/store"
)

// DefaultCategories is the starter set offered to users whose account
// has no categories yet.
var DefaultCategories = []core.Category{
	{Name: "Income", Color: "#4C7A5A"},
	{Name: "Housing", Color: "#8A6F4D"},
	{Name: "Groceries", Color: "#B0803C"},
	{Name: "Transport", Color: "#5B7A8C"},
	{Name: "Subscriptions", Color: "#7A5C8A"},
	{Name: "Savings", Color: "#3E6B6B"},
	{Name: "Uncategorized", Color: "#7A6F63"},
}

// CategoryService caches the user's categories and exposes the lookup
// maps the other services render with. All mutations go through the
// store first and only then update the cache.
type CategoryService struct {
	store  store.CategoryStore
	logger *slog.Logger

	mu         sync.Mutex
	categories []core.Category
	errMsg     string
}

func NewCategoryService(st store.CategoryStore, logger *slog.Logger) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{store: st, logger: logger}
}

// LoadCategories replaces the cache with the user's categories,
// deduplicated by normalized name. An empty userID clears the cache.
func (s *CategoryService) LoadCategories(ctx context.Context, userID string) error {
	if userID == "" {
		s.mu.Lock()
		s.categories = nil
		s.mu.Unlock()
		return nil
	}

	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		s.setError("Could not load categories.")
		s.logger.Error("load categories", "error", err)
		return err
	}

	s.mu.Lock()
	s.categories = core.DedupCategories(cats)
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Categories returns a copy of the cached list.
func (s *CategoryService) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *CategoryService) NameByID() map[string]string {
	return core.CategoryNameByID(s.Categories())
}

func (s *CategoryService) ColorByID() map[string]string {
	return core.CategoryColorByID(s.Categories())
}

// IncomeCategoryID returns the id of the reserved Income category, or
// "" when the user has none.
func (s *CategoryService) IncomeCategoryID() string {
	if c := core.FindCategoryByName(s.Categories(), core.IncomeCategoryName); c != nil {
		return c.ID
	}
	return ""
}

// UncategorizedCategoryID returns the id of the reserved Uncategorized
// category, or "" when the user has none.
func (s *CategoryService) UncategorizedCategoryID() string {
	if c := core.FindCategoryByName(s.Categories(), core.UncategorizedCategoryName); c != nil {
		return c.ID
	}
	return ""
}

// AddDefaultCategories creates every default category the user is
// missing, comparing names case-insensitively, then reloads the cache.
// With an empty cache the store is consulted first, so a restart never
// re-creates categories that already exist.
func (s *CategoryService) AddDefaultCategories(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if len(s.Categories()) == 0 {
		if err := s.LoadCategories(ctx, userID); err != nil {
			return err
		}
	}
	existing := s.Categories()
	for _, def := range DefaultCategories {
		if core.FindCategoryByName(existing, def.Name) != nil {
			continue
		}
		if _, err := s.store.CreateCategory(ctx, core.Category{
			Name:   def.Name,
			Color:  def.Color,
			UserID: userID,
		}); err != nil {
			s.setError("Could not add default categories.")
			s.logger.Error("add default categories", "name", def.Name, "error", err)
			return err
		}
	}
	return s.LoadCategories(ctx, userID)
}

// CreateCategory rejects blank names and duplicates of cached names.
func (s *CategoryService) CreateCategory(ctx context.Context, userID, name, color string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.setError("Category name cannot be empty.")
		return core.Category{}, core.ErrEmptyName
	}
	if core.FindCategoryByName(s.Categories(), name) != nil {
		s.setError("A category with that name already exists.")
		return core.Category{}, store.ErrConflict
	}
	if normalized, ok := core.NormalizeHex(color); ok {
		color = normalized
	} else {
		color = defaultCategoryColor
	}
	created, err := s.store.CreateCategory(ctx, core.Category{Name: name, Color: color, UserID: userID})
	if err != nil {
		s.setError("Could not create the category.")
		s.logger.Error("create category", "error", err)
		return core.Category{}, err
	}
	s.mu.Lock()
	s.categories = append(s.categories, created)
	sort.Slice(s.categories, func(i, j int) bool {
		return strings.ToLower(s.categories[i].Name) < strings.ToLower(s.categories[j].Name)
	})
	s.errMsg = ""
	s.mu.Unlock()
	return created, nil
}

// RenameCategory updates the name of an existing category.
func (s *CategoryService) RenameCategory(ctx context.Context, id, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		s.setError("Category name cannot be empty.")
		return core.ErrEmptyName
	}
	if _, err := s.store.UpdateCategory(ctx, id, userID, store.CategoryPatch{Name: &name}); err != nil {
		s.setError("Could not rename the category.")
		s.logger.Error("rename category", "id", id, "error", err)
		return err
	}
	return s.LoadCategories(ctx, userID)
}

// UpdateCategoryColor validates the hex input, persists it and patches
// the cache. Invalid input leaves the stored color untouched and
// returns the current category so callers can revert their field.
func (s *CategoryService) UpdateCategoryColor(ctx context.Context, id, userID, input string) (core.Category, error) {
	current := s.categoryByID(id)
	normalized, ok := core.NormalizeHex(input)
	if !ok {
		s.setError("Enter a valid hex color, like #2C6E63.")
		return current, core.ErrInvalidColor
	}
	if _, err := s.store.UpdateCategory(ctx, id, userID, store.CategoryPatch{Color: &normalized}); err != nil {
		s.setError("Could not update the color.")
		s.logger.Error("update category color", "id", id, "error", err)
		return current, err
	}
	s.mu.Lock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories[i].Color = normalized
			current = s.categories[i]
		}
	}
	s.errMsg = ""
	s.mu.Unlock()
	return current, nil
}

// DeleteCategory removes the category. Entries that pointed at it keep
// their stale id and render as uncategorized.
func (s *CategoryService) DeleteCategory(ctx context.Context, id, userID string) error {
	if err := s.store.DeleteCategory(ctx, id, userID); err != nil {
		s.setError("Could not delete the category.")
		s.logger.Error("delete category", "id", id, "error", err)
		return err
	}
	s.mu.Lock()
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

func (s *CategoryService) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *CategoryService) categoryByID(id string) core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			return c
		}
	}
	return core.Category{}
}

func (s *CategoryService) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

const defaultCategoryColor = "#7A6F63"
