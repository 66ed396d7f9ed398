package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"budgetbook/internal/core"
	"budgetbook/internal/store"
)

// Repository is the sqlite-backed document store. Deployments are
// single-user: the owner is resolved once at startup via EnsureOwner and
// served by CurrentUser afterwards.
type Repository struct {
	db *sql.DB

	mu    sync.Mutex
	owner *core.User
}

var _ store.Store = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// EnsureOwner looks up the user record by email, creating it on first run,
// and makes it the identity served by CurrentUser.
func (r *Repository) EnsureOwner(ctx context.Context, email, name string) (core.User, error) {
	if strings.TrimSpace(email) == "" {
		return core.User{}, errors.New("owner email is required")
	}

	var user core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name FROM users WHERE email = ?`, email,
	).Scan(&user.ID, &user.Email, &user.Name)
	if errors.Is(err, sql.ErrNoRows) {
		user = core.User{ID: uuid.NewString(), Email: email, Name: name}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO users (id, email, name) VALUES (?, ?, ?)`,
			user.ID, user.Email, user.Name,
		)
		if err != nil {
			return core.User{}, fmt.Errorf("create owner: %w", err)
		}
		slog.InfoContext(ctx, "Created owner user", "email", email, "id", user.ID)
	} else if err != nil {
		return core.User{}, fmt.Errorf("lookup owner: %w", err)
	}

	r.mu.Lock()
	r.owner = &user
	r.mu.Unlock()
	return user, nil
}

func (r *Repository) CurrentUser(_ context.Context) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner == nil {
		return nil, nil
	}
	u := *r.owner
	return &u, nil
}

func (r *Repository) GetPrefs(ctx context.Context, userID string) (core.Preferences, error) {
	var prefs core.Preferences
	var showDecimals int
	err := r.db.QueryRowContext(ctx,
		`SELECT currency, savings_rate, show_decimals FROM preferences WHERE user_id = ?`, userID,
	).Scan(&prefs.Currency, &prefs.SavingsRate, &showDecimals)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultPreferences(), nil
	}
	if err != nil {
		return core.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	prefs.ShowDecimals = showDecimals != 0
	return prefs, nil
}

func (r *Repository) UpdatePrefs(ctx context.Context, userID string, prefs core.Preferences) error {
	showDecimals := 0
	if prefs.ShowDecimals {
		showDecimals = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, currency, savings_rate, show_decimals)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   currency = excluded.currency,
		   savings_rate = excluded.savings_rate,
		   show_decimals = excluded.show_decimals`,
		userID, prefs.Currency, prefs.SavingsRate, showDecimals,
	)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

const entryColumns = `id, name, amount, type, month, year, due_day, category_id, user_id, created_at`

func scanEntry(row interface{ Scan(...any) error }) (core.Entry, error) {
	var e core.Entry
	var year sql.NullInt64
	var dueDay sql.NullInt64
	err := row.Scan(&e.ID, &e.Name, &e.Amount, &e.Type, &e.Month,
		&year, &dueDay, &e.CategoryID, &e.UserID, &e.CreatedAt)
	if err != nil {
		return core.Entry{}, err
	}
	if year.Valid {
		e.Year = int(year.Int64)
	}
	if dueDay.Valid {
		d := int(dueDay.Int64)
		e.DueDay = &d
	}
	return e, nil
}

func (r *Repository) ListEntries(ctx context.Context, month, userID string) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE month = ? AND user_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		month, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

func (r *Repository) GetEntry(ctx context.Context, id, userID string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, store.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (r *Repository) CreateEntry(ctx context.Context, entry core.Entry) (core.Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	var year any
	if entry.Year != 0 {
		year = entry.Year
	}
	var dueDay any
	if entry.DueDay != nil {
		dueDay = *entry.DueDay
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Name, entry.Amount, entry.Type, entry.Month,
		year, dueDay, entry.CategoryID, entry.UserID, entry.CreatedAt,
	)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	return entry, nil
}

func (r *Repository) UpdateEntry(ctx context.Context, id, userID string, patch store.EntryPatch) (core.Entry, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Amount != nil {
		add("amount", *patch.Amount)
	}
	if patch.Type != nil {
		add("type", string(*patch.Type))
	}
	if patch.Month != nil {
		add("month", *patch.Month)
	}
	if patch.Year != nil {
		add("year", *patch.Year)
	}
	if patch.SetDueDay {
		if patch.DueDay != nil {
			add("due_day", *patch.DueDay)
		} else {
			add("due_day", nil)
		}
	}
	if patch.CategoryID != nil {
		add("category_id", *patch.CategoryID)
	}

	if len(sets) > 0 {
		args = append(args, id, userID)
		res, err := r.db.ExecContext(ctx,
			`UPDATE entries SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
			args...,
		)
		if err != nil {
			return core.Entry{}, fmt.Errorf("update entry: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return core.Entry{}, store.ErrNotFound
		}
	}

	return r.GetEntry(ctx, id, userID)
}

func (r *Repository) DeleteEntry(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, user_id FROM categories WHERE user_id = ? ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category core.Category) (core.Category, error) {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, color, user_id) VALUES (?, ?, ?, ?)`,
		category.ID, category.Name, category.Color, category.UserID,
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id, userID string, patch store.CategoryPatch) (core.Category, error) {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *patch.Color)
	}
	if len(sets) > 0 {
		args = append(args, id, userID)
		res, err := r.db.ExecContext(ctx,
			`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
			args...,
		)
		if err != nil {
			return core.Category{}, fmt.Errorf("update category: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return core.Category{}, store.ErrNotFound
		}
	}

	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, user_id FROM categories WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&c.ID, &c.Name, &c.Color, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, store.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ListTemplates(ctx context.Context, userID string) ([]core.Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, user_id, data FROM templates WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []core.Template
	for rows.Next() {
		var t core.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.UserID, &t.Data); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateTemplate(ctx context.Context, template core.Template) (core.Template, error) {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, user_id, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		template.ID, template.Name, template.UserID, template.Data, time.Now(),
	)
	if err != nil {
		return core.Template{}, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

func (r *Repository) DeleteTemplate(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM templates WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
