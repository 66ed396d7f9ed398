package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/export"
	"budgetbook/internal/store/memory"
)

type fakeMirror struct {
	appended  []core.Entry
	deleted   []string
	appendErr error
	deleteErr error
}

func (f *fakeMirror) AppendEntry(_ context.Context, entry core.Entry) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appended = append(f.appended, entry)
	return fmt.Sprintf("Entries!A%d", len(f.appended)+1), nil
}

func (f *fakeMirror) DeleteEntryRow(_ context.Context, entryID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, entryID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMirrorWorker_HandleCreated(t *testing.T) {
	st := memory.New()
	entry, err := st.CreateEntry(context.Background(), core.Entry{
		Name:      "Rent",
		Amount:    950,
		Type:      core.Expense,
		Month:     "March",
		Year:      2025,
		UserID:    "u1",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	mirror := &fakeMirror{}
	w := NewMirrorWorker(st, mirror, discardLogger())

	event := amqp.NewEntryCreated(entry.ID, "u1")
	if err := w.HandleEntryEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEntryEvent: %v", err)
	}
	if len(mirror.appended) != 1 {
		t.Fatalf("appended = %d, want 1", len(mirror.appended))
	}
	if mirror.appended[0].Name != "Rent" {
		t.Errorf("appended entry name = %q, want Rent", mirror.appended[0].Name)
	}
}

func TestMirrorWorker_CreatedForMissingEntryIsDropped(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewMirrorWorker(memory.New(), mirror, discardLogger())

	event := amqp.NewEntryCreated("gone", "u1")
	if err := w.HandleEntryEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEntryEvent: %v", err)
	}
	if len(mirror.appended) != 0 {
		t.Errorf("appended = %d, want 0", len(mirror.appended))
	}
}

func TestMirrorWorker_AppendFailureRequeues(t *testing.T) {
	st := memory.New()
	entry, err := st.CreateEntry(context.Background(), core.Entry{
		Name: "Rent", Amount: 950, Type: core.Expense,
		Month: "March", Year: 2025, UserID: "u1",
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	mirror := &fakeMirror{appendErr: errors.New("quota exceeded")}
	w := NewMirrorWorker(st, mirror, discardLogger())

	if err := w.HandleEntryEvent(context.Background(), amqp.NewEntryCreated(entry.ID, "u1")); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestMirrorWorker_HandleDeleted(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewMirrorWorker(memory.New(), mirror, discardLogger())

	if err := w.HandleEntryEvent(context.Background(), amqp.NewEntryDeleted("e9", "u1")); err != nil {
		t.Fatalf("HandleEntryEvent: %v", err)
	}
	if len(mirror.deleted) != 1 || mirror.deleted[0] != "e9" {
		t.Errorf("deleted = %v, want [e9]", mirror.deleted)
	}
}

func TestMirrorWorker_DeletedRowAlreadyGone(t *testing.T) {
	mirror := &fakeMirror{deleteErr: export.ErrRowNotFound}
	w := NewMirrorWorker(memory.New(), mirror, discardLogger())

	if err := w.HandleEntryEvent(context.Background(), amqp.NewEntryDeleted("e9", "u1")); err != nil {
		t.Fatalf("missing row should not requeue, got %v", err)
	}
}

func TestMirrorWorker_UnknownActionIsAcked(t *testing.T) {
	w := NewMirrorWorker(memory.New(), &fakeMirror{}, discardLogger())

	event := &amqp.EntryEvent{Action: "renamed", EntryID: "e1", UserID: "u1"}
	if err := w.HandleEntryEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown action should be acked, got %v", err)
	}
}
