// Package export mirrors entries to a Google Sheet so the owner can
// build their own pivot tables outside the app. The sheet is a mirror,
// never a source of truth.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetbook/internal/core"
)

// ErrRowNotFound is returned when a delete cannot locate the entry's row.
var ErrRowNotFound = errors.New("entry row not found in sheet")

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Options configures the exporter. Exactly one of CredentialsFile or
// CredentialsJSON must be set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// New creates a Sheets exporter from service account credentials.
func New(ctx context.Context, opts Options) (*Exporter, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Entries"
	}

	var clientOpt goption.ClientOption
	switch {
	case opts.CredentialsJSON != "":
		clientOpt = goption.WithCredentialsJSON([]byte(opts.CredentialsJSON))
	case opts.CredentialsFile != "":
		clientOpt = goption.WithCredentialsFile(opts.CredentialsFile)
	default:
		return nil, errors.New("missing Google credentials")
	}

	svc, err := gsheet.NewService(ctx, clientOpt, goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendEntry appends one entry as a row: id, month, year, name,
// amount, type, due day, category id. The id column is what deletes
// search on.
func (e *Exporter) AppendEntry(ctx context.Context, entry core.Entry) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	dueDay := any("")
	if entry.DueDay != nil {
		dueDay = *entry.DueDay
	}
	vr := &gsheet.ValueRange{Values: [][]any{{
		entry.ID, entry.Month, entry.Year, entry.Name,
		entry.AmountValue(), string(entry.Type), dueDay, entry.CategoryID,
	}}}

	rng := fmt.Sprintf("%s!A:H", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// DeleteEntryRow removes the row whose id column matches the entry id.
func (e *Exporter) DeleteEntryRow(ctx context.Context, entryID string) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rowIndex, err := e.findRow(ctx, entryID)
	if err != nil {
		return err
	}

	sheetID, err := e.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex),
					EndIndex:   int64(rowIndex + 1),
				},
			},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", rowIndex+1, e.sheetName, err)
	}
	return nil
}

// findRow scans the id column for the entry and returns its zero-based
// row index.
func (e *Exporter) findRow(ctx context.Context, entryID string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read id column of %s: %w", e.sheetName, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && strings.TrimSpace(id) == entryID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrRowNotFound, entryID)
}

func (e *Exporter) sheetID(ctx context.Context) (int64, error) {
	meta, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == e.sheetName {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", e.sheetName)
}
