package services

import (
	"context"
	"testing"

	"budgetbook/internal/core"
	"budgetbook/internal/store"
)

func TestLoadCategoriesDedup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.store.CreateCategory(ctx, core.Category{Name: "Food", Color: "#111111", UserID: "u1"})
	env.store.CreateCategory(ctx, core.Category{Name: "food ", Color: "#222222", UserID: "u1"})
	env.store.CreateCategory(ctx, core.Category{Name: "Rent", Color: "#333333", UserID: "u1"})

	if err := env.categories.LoadCategories(ctx, "u1"); err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}
	got := env.categories.Categories()
	if len(got) != 2 {
		t.Fatalf("categories = %v, want Food and Rent", got)
	}
	// First occurrence wins.
	if got[0].Name != "Food" || got[0].Color != "#111111" {
		t.Fatalf("dedup kept %+v, want the first Food", got[0])
	}
}

func TestAddDefaultCategoriesIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Pre-existing category with a different casing must survive.
	env.store.CreateCategory(ctx, core.Category{Name: "income", Color: "#000000", UserID: "u1"})
	if err := env.categories.LoadCategories(ctx, "u1"); err != nil {
		t.Fatalf("LoadCategories: %v", err)
	}

	if err := env.categories.AddDefaultCategories(ctx, "u1"); err != nil {
		t.Fatalf("AddDefaultCategories: %v", err)
	}
	first := env.categories.Categories()
	if len(first) != len(DefaultCategories) {
		t.Fatalf("after defaults: %d categories, want %d", len(first), len(DefaultCategories))
	}
	if c := core.FindCategoryByName(first, "Income"); c == nil || c.Color != "#000000" {
		t.Fatalf("existing income category replaced: %+v", c)
	}

	if err := env.categories.AddDefaultCategories(ctx, "u1"); err != nil {
		t.Fatalf("second AddDefaultCategories: %v", err)
	}
	if got := env.categories.Categories(); len(got) != len(first) {
		t.Fatalf("defaults not idempotent: %d then %d", len(first), len(got))
	}
}

func TestAddDefaultCategoriesWithColdCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.categories.AddDefaultCategories(ctx, "u1"); err != nil {
		t.Fatalf("AddDefaultCategories: %v", err)
	}

	// A fresh service has an empty cache but the store is already
	// seeded. Defaults must compare against the store, not the cache.
	fresh := NewCategoryService(env.store, testLogger())
	if err := fresh.AddDefaultCategories(ctx, "u1"); err != nil {
		t.Fatalf("AddDefaultCategories on fresh service: %v", err)
	}

	stored, err := env.store.ListCategories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(stored) != len(DefaultCategories) {
		t.Fatalf("store holds %d categories, want %d", len(stored), len(DefaultCategories))
	}
}

func TestCreateCategoryRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.categories.CreateCategory(ctx, "u1", "Travel", "#5B7A8C"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := env.categories.CreateCategory(ctx, "u1", " travel ", "#5B7A8C"); err != store.ErrConflict {
		t.Fatalf("duplicate create: err = %v, want ErrConflict", err)
	}
	if _, err := env.categories.CreateCategory(ctx, "u1", "  ", "#5B7A8C"); err != core.ErrEmptyName {
		t.Fatalf("blank create: err = %v, want ErrEmptyName", err)
	}
}

func TestUpdateCategoryColor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.categories.CreateCategory(ctx, "u1", "Pets", "#8A6F4D")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	updated, err := env.categories.UpdateCategoryColor(ctx, created.ID, "u1", "2c6")
	if err != nil {
		t.Fatalf("UpdateCategoryColor: %v", err)
	}
	if updated.Color != "#22CC66" {
		t.Fatalf("color = %s, want shorthand expanded to #22CC66", updated.Color)
	}

	reverted, err := env.categories.UpdateCategoryColor(ctx, created.ID, "u1", "not-a-color")
	if err != core.ErrInvalidColor {
		t.Fatalf("invalid input: err = %v, want ErrInvalidColor", err)
	}
	if reverted.Color != "#22CC66" {
		t.Fatalf("invalid input changed the color to %s", reverted.Color)
	}
	if env.categories.ErrorMessage() == "" {
		t.Fatal("expected a validation message for invalid hex input")
	}
}

func TestDeleteCategoryLeavesEntriesUncategorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat, err := env.categories.CreateCategory(ctx, "u1", "Hobbies", "#7A5C8A")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	entry, err := env.entries.SaveEntry(ctx, EntryInput{
		Name: "Paint", Amount: 30, Type: core.Expense, CategoryID: cat.ID,
	})
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	if err := env.categories.DeleteCategory(ctx, cat.ID, "u1"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if got := env.categories.Categories(); len(got) != 0 {
		t.Fatalf("categories after delete = %v", got)
	}

	// The entry keeps the stale id and renders under the fallback name.
	stored, err := env.store.GetEntry(ctx, entry.ID, "u1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if stored.CategoryID != cat.ID {
		t.Fatalf("entry category rewritten to %s", stored.CategoryID)
	}
	sorted := core.SortEntries([]core.Entry{stored}, env.categories.NameByID())
	if len(sorted) != 1 {
		t.Fatalf("sort dropped the entry: %v", sorted)
	}
}
