package store

import (
	"context"
	"errors"

	"budgetbook/internal/core"
)

// ErrNotFound is returned for records that do not exist or belong to a
// different user. Ownership violations are indistinguishable from absence.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a create would duplicate a record that
// must be unique, such as a category name.
var ErrConflict = errors.New("record already exists")

// EntryPatch carries a partial entry update. Nil fields stay untouched.
// SetDueDay distinguishes "set due day to null" from "leave unchanged".
type EntryPatch struct {
	Name       *string
	Amount     *float64
	Type       *core.EntryType
	Month      *string
	Year       *int
	DueDay     *int
	SetDueDay  bool
	CategoryID *string
}

// CategoryPatch carries a partial category update.
type CategoryPatch struct {
	Name  *string
	Color *string
}

// Ports for the remote document store. Every operation is scoped to the
// owning user; implementations enforce that scope.
type (
	EntryStore interface {
		// ListEntries returns the user's entries for a month, newest first.
		ListEntries(ctx context.Context, month, userID string) ([]core.Entry, error)
		GetEntry(ctx context.Context, id, userID string) (core.Entry, error)
		CreateEntry(ctx context.Context, entry core.Entry) (core.Entry, error)
		UpdateEntry(ctx context.Context, id, userID string, patch EntryPatch) (core.Entry, error)
		DeleteEntry(ctx context.Context, id, userID string) error
	}

	CategoryStore interface {
		// ListCategories returns the user's categories ordered by name.
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		CreateCategory(ctx context.Context, category core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, id, userID string, patch CategoryPatch) (core.Category, error)
		DeleteCategory(ctx context.Context, id, userID string) error
	}

	TemplateStore interface {
		ListTemplates(ctx context.Context, userID string) ([]core.Template, error)
		CreateTemplate(ctx context.Context, template core.Template) (core.Template, error)
		DeleteTemplate(ctx context.Context, id, userID string) error
	}

	// IdentityStore resolves the authenticated user and their preferences.
	// CurrentUser returns (nil, nil) when nobody is signed in; that is an
	// empty state, not an error.
	IdentityStore interface {
		CurrentUser(ctx context.Context) (*core.User, error)
		GetPrefs(ctx context.Context, userID string) (core.Preferences, error)
		UpdatePrefs(ctx context.Context, userID string, prefs core.Preferences) error
	}
)

// Store is the full backend surface the services run against.
type Store interface {
	EntryStore
	CategoryStore
	TemplateStore
	IdentityStore
}
