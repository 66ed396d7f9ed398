package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

// Reserved category names that drive fallback behavior.
const (
	IncomeCategoryName        = "income"
	UncategorizedCategoryName = "uncategorized"
)

type (
	EntryType string

	// Entry is a single monthly income or expense line.
	Entry struct {
		ID         string
		Name       string
		Amount     float64
		Type       EntryType
		Month      string
		Year       int // 0 when the record predates year tracking
		DueDay     *int
		CategoryID string
		UserID     string
		CreatedAt  time.Time
	}

	Category struct {
		ID     string
		Name   string
		Color  string // normalized hex, e.g. #2C6E63
		UserID string
	}

	// Template stores a snapshot of a month's entries as a JSON array
	// of TemplateItem in Data.
	Template struct {
		ID     string
		Name   string
		UserID string
		Data   string
	}

	TemplateItem struct {
		Name       string    `json:"name"`
		Amount     float64   `json:"amount"`
		Type       EntryType `json:"type"`
		DueDay     *int      `json:"dueDay"`
		CategoryID string    `json:"categoryId"`
	}

	User struct {
		ID    string
		Email string
		Name  string
	}

	Preferences struct {
		Currency     string  `json:"currency"`
		SavingsRate  float64 `json:"savingsRate"`
		ShowDecimals bool    `json:"showDecimals"`
	}
)

var (
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidType   = errors.New("invalid entry type")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidDueDay = errors.New("invalid due day")
	ErrInvalidColor  = errors.New("invalid hex color")
)

// DefaultPreferences returns the preference values used before the user
// has saved anything.
func DefaultPreferences() Preferences {
	return Preferences{Currency: "NOK", SavingsRate: 20, ShowDecimals: false}
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if MonthIndex(e.Month) < 0 {
		return ErrInvalidMonth
	}
	if e.DueDay != nil && (*e.DueDay < 1 || *e.DueDay > 31) {
		return ErrInvalidDueDay
	}
	return nil
}

// AmountValue returns the entry amount coerced to 0 when it is not a
// usable number. All aggregation goes through this.
func (e Entry) AmountValue() float64 {
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return 0
	}
	return e.Amount
}

// MatchesYear reports whether the entry belongs to the selected year.
// Entries without a year default-match the current calendar year.
func (e Entry) MatchesYear(selectedYear, currentYear int) bool {
	year := e.Year
	if year == 0 {
		year = currentYear
	}
	return year == selectedYear
}

// NormalizeCategoryName is the key used for case-insensitive category
// uniqueness checks.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DedupCategories removes categories whose normalized name was already
// seen, first occurrence wins, order preserved.
func DedupCategories(categories []Category) []Category {
	seen := make(map[string]struct{}, len(categories))
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		key := NormalizeCategoryName(c.Name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// CategoryNameByID builds the derived id -> name lookup map.
func CategoryNameByID(categories []Category) map[string]string {
	m := make(map[string]string, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Name
	}
	return m
}

// CategoryColorByID builds the derived id -> color lookup map.
func CategoryColorByID(categories []Category) map[string]string {
	m := make(map[string]string, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Color
	}
	return m
}

// FindCategoryByName returns the first category whose name matches
// case-insensitively, or nil.
func FindCategoryByName(categories []Category, name string) *Category {
	key := NormalizeCategoryName(name)
	for i := range categories {
		if NormalizeCategoryName(categories[i].Name) == key {
			return &categories[i]
		}
	}
	return nil
}
