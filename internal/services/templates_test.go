package services

import (
	"context"
	"testing"

	"budgetbook/internal/core"
)

func newTemplateEnv(t *testing.T) (*testEnv, *TemplateService) {
	t.Helper()
	env := newTestEnv(t)
	tpls := NewTemplateService(env.store, env.session, env.entries, env.selection, testLogger())
	return env, tpls
}

func TestSaveTemplateSnapshotsMonth(t *testing.T) {
	env, tpls := newTemplateEnv(t)
	ctx := context.Background()

	env.entries.SaveEntry(ctx, EntryInput{Name: "Rent", Amount: 900, Type: core.Expense, DueDay: intPtr(1)})
	env.entries.SaveEntry(ctx, EntryInput{Name: "Salary", Amount: 3000, Type: core.Income})

	created, err := tpls.SaveTemplate(ctx, "Monthly basics")
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	if got := tpls.ItemCount(created); got != 2 {
		t.Fatalf("ItemCount = %d, want 2", got)
	}

	items := tpls.ParseItems(created)
	var rent *core.TemplateItem
	for i := range items {
		if items[i].Name == "Rent" {
			rent = &items[i]
		}
	}
	if rent == nil || rent.DueDay == nil || *rent.DueDay != 1 || rent.Type != core.Expense {
		t.Fatalf("rent item = %+v, want due day 1 expense", rent)
	}

	if _, err := tpls.SaveTemplate(ctx, "  "); err != core.ErrEmptyName {
		t.Fatalf("blank name: err = %v, want ErrEmptyName", err)
	}
}

func TestSaveTemplateRejectsEmptyMonth(t *testing.T) {
	_, tpls := newTemplateEnv(t)
	ctx := context.Background()

	if _, err := tpls.SaveTemplate(ctx, "Nothing here"); err != ErrNoEntries {
		t.Fatalf("SaveTemplate on empty month: err = %v, want ErrNoEntries", err)
	}
	if tpls.ErrorMessage() == "" {
		t.Fatal("expected an error message for an empty month")
	}
	if got := tpls.Templates(); len(got) != 0 {
		t.Fatalf("templates = %v, want none", got)
	}
}

func TestApplyTemplateAddsToSelectedMonth(t *testing.T) {
	env, tpls := newTemplateEnv(t)
	ctx := context.Background()

	env.entries.SaveEntry(ctx, EntryInput{Name: "Rent", Amount: 900, Type: core.Expense})
	created, err := tpls.SaveTemplate(ctx, "Basics")
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	// Move to another month and apply on top of an existing entry.
	env.selection.SetMonth("April")
	if err := env.entries.LoadEntries(ctx); err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	env.entries.SaveEntry(ctx, EntryInput{Name: "Already here", Amount: 5, Type: core.Expense})

	if err := tpls.RequestAction(TemplateActionApply, created.ID); err != nil {
		t.Fatalf("RequestAction: %v", err)
	}
	if err := tpls.ConfirmAction(ctx); err != nil {
		t.Fatalf("ConfirmAction: %v", err)
	}

	april, _ := env.store.ListEntries(ctx, "April", "u1")
	if len(april) != 2 {
		t.Fatalf("April has %d entries after apply, want 2", len(april))
	}
	march, _ := env.store.ListEntries(ctx, "March", "u1")
	if len(march) != 1 {
		t.Fatalf("March changed during apply: %v", march)
	}
	if tpls.SuccessMessage() == "" {
		t.Fatal("expected a success message after apply")
	}
}

func TestApplyTemplateReloadsEntries(t *testing.T) {
	env, tpls := newTemplateEnv(t)
	ctx := context.Background()

	env.entries.SaveEntry(ctx, EntryInput{Name: "Rent", Amount: 900, Type: core.Expense})
	created, err := tpls.SaveTemplate(ctx, "Basics")
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	env.selection.SetMonth("May")
	if err := env.entries.LoadEntries(ctx); err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if got := env.entries.AllEntries(); len(got) != 0 {
		t.Fatalf("May should start empty, got %v", got)
	}

	tpls.RequestAction(TemplateActionApply, created.ID)
	if err := tpls.ConfirmAction(ctx); err != nil {
		t.Fatalf("ConfirmAction: %v", err)
	}

	// The entries view shows the applied items without a manual reload.
	got := env.entries.AllEntries()
	if len(got) != 1 || got[0].Name != "Rent" || got[0].Month != "May" {
		t.Fatalf("entries after apply = %+v, want Rent in May", got)
	}
}

func TestConfirmGate(t *testing.T) {
	env, tpls := newTemplateEnv(t)
	ctx := context.Background()

	env.entries.SaveEntry(ctx, EntryInput{Name: "Rent", Amount: 900, Type: core.Expense})
	created, err := tpls.SaveTemplate(ctx, "Doomed")
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	// Nothing staged: confirm is a no-op.
	if err := tpls.ConfirmAction(ctx); err != nil {
		t.Fatalf("ConfirmAction with nothing staged: %v", err)
	}
	if got := tpls.Templates(); len(got) != 1 {
		t.Fatalf("template vanished without confirmation: %v", got)
	}

	// Staged then cancelled: still there.
	tpls.RequestAction(TemplateActionDelete, created.ID)
	tpls.CancelAction()
	if action, _ := tpls.PendingAction(); action != "" {
		t.Fatalf("pending action after cancel = %q", action)
	}
	if err := tpls.ConfirmAction(ctx); err != nil {
		t.Fatalf("ConfirmAction after cancel: %v", err)
	}
	if got := tpls.Templates(); len(got) != 1 {
		t.Fatalf("cancelled delete still ran: %v", got)
	}

	// Staged and confirmed: gone, and a second confirm is inert.
	tpls.RequestAction(TemplateActionDelete, created.ID)
	if err := tpls.ConfirmAction(ctx); err != nil {
		t.Fatalf("ConfirmAction: %v", err)
	}
	if got := tpls.Templates(); len(got) != 0 {
		t.Fatalf("templates after delete = %v", got)
	}
	if err := tpls.ConfirmAction(ctx); err != nil {
		t.Fatalf("repeat ConfirmAction: %v", err)
	}

	if err := tpls.RequestAction("explode", created.ID); err == nil {
		t.Fatal("RequestAction accepted an unknown action")
	}
}

func TestCorruptTemplateDataCountsAsEmpty(t *testing.T) {
	_, tpls := newTemplateEnv(t)

	tpl := core.Template{ID: "t1", Name: "Broken", Data: "{not json"}
	if got := tpls.ParseItems(tpl); got != nil {
		t.Fatalf("ParseItems on corrupt data = %v, want nil", got)
	}
	if got := tpls.ItemCount(tpl); got != 0 {
		t.Fatalf("ItemCount on corrupt data = %d, want 0", got)
	}
}

func TestApplyTemplateFillsItemDefaults(t *testing.T) {
	env, tpls := newTemplateEnv(t)
	ctx := context.Background()

	if err := env.categories.AddDefaultCategories(ctx, "u1"); err != nil {
		t.Fatalf("AddDefaultCategories: %v", err)
	}
	tpl, err := env.store.CreateTemplate(ctx, core.Template{
		Name:   "Sparse",
		UserID: "u1",
		Data:   `[{"name":"  ","amount":50,"type":"bogus","dueDay":99}]`,
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if err := tpls.LoadTemplates(ctx); err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	tpls.RequestAction(TemplateActionApply, tpl.ID)
	if err := tpls.ConfirmAction(ctx); err != nil {
		t.Fatalf("ConfirmAction: %v", err)
	}

	entries, _ := env.store.ListEntries(ctx, "March", "u1")
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.Name != "Untitled" {
		t.Errorf("Name = %q, want Untitled", got.Name)
	}
	if got.Type != core.Expense {
		t.Errorf("Type = %q, want expense", got.Type)
	}
	if got.DueDay != nil {
		t.Errorf("DueDay = %v, want nil", *got.DueDay)
	}
	if got.CategoryID != env.categories.UncategorizedCategoryID() {
		t.Errorf("CategoryID = %q, want the uncategorized id", got.CategoryID)
	}
}
