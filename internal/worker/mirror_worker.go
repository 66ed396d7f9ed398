package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/export"
	"budgetbook/internal/store"
)

// EntryMirror is the sheet-side surface the worker writes to.
type EntryMirror interface {
	AppendEntry(ctx context.Context, entry core.Entry) (string, error)
	DeleteEntryRow(ctx context.Context, entryID string) error
}

// MirrorWorker consumes entry change events and keeps the Google Sheet
// mirror in step with the store.
type MirrorWorker struct {
	entries store.EntryStore
	mirror  EntryMirror
	logger  *slog.Logger
}

func NewMirrorWorker(entries store.EntryStore, mirror EntryMirror, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{entries: entries, mirror: mirror, logger: logger}
}

// HandleEntryEvent processes one event. Returning an error requeues the
// message, so conditions that a retry cannot fix are swallowed here.
func (w *MirrorWorker) HandleEntryEvent(ctx context.Context, event *amqp.EntryEvent) error {
	switch event.Action {
	case amqp.ActionCreated:
		return w.handleCreated(ctx, event)
	case amqp.ActionDeleted:
		return w.handleDeleted(ctx, event)
	default:
		w.logger.WarnContext(ctx, "Unknown entry event action",
			"action", event.Action, "entry_id", event.EntryID)
		return nil
	}
}

func (w *MirrorWorker) handleCreated(ctx context.Context, event *amqp.EntryEvent) error {
	entry, err := w.entries.GetEntry(ctx, event.EntryID, event.UserID)
	if err != nil {
		// The entry can be gone already if it was deleted before the
		// worker caught up. The delete event will keep the sheet clean.
		if errors.Is(err, store.ErrNotFound) {
			w.logger.WarnContext(ctx, "Entry vanished before mirroring",
				"entry_id", event.EntryID)
			return nil
		}
		return fmt.Errorf("load entry %s: %w", event.EntryID, err)
	}

	ref, err := w.mirror.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("mirror entry %s: %w", event.EntryID, err)
	}

	w.logger.InfoContext(ctx, "Entry mirrored to sheet",
		"entry_id", event.EntryID, "sheet_ref", ref,
		"name", entry.Name, "amount", entry.AmountValue())
	return nil
}

func (w *MirrorWorker) handleDeleted(ctx context.Context, event *amqp.EntryEvent) error {
	if err := w.mirror.DeleteEntryRow(ctx, event.EntryID); err != nil {
		if errors.Is(err, export.ErrRowNotFound) {
			w.logger.WarnContext(ctx, "Entry row already absent from sheet",
				"entry_id", event.EntryID)
			return nil
		}
		return fmt.Errorf("remove mirrored entry %s: %w", event.EntryID, err)
	}

	w.logger.InfoContext(ctx, "Mirrored entry removed from sheet",
		"entry_id", event.EntryID)
	return nil
}
