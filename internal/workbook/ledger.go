// Package workbook implements the batch ledger as a local .xlsx workbook.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"labelscan/internal/batch"
	"labelscan/internal/logger"
)

// DefaultSheet is the worksheet used when none is configured.
const DefaultSheet = "Labels"

// Ledger appends batch rows to a worksheet of an .xlsx file, creating the
// file and its header row on first use.
type Ledger struct {
	path  string
	sheet string
	log   zerolog.Logger
}

// NewLedger returns a Ledger writing to sheet of the workbook at path.
func NewLedger(path, sheet string) *Ledger {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Ledger{path: path, sheet: sheet, log: logger.WithComponent("workbook")}
}

// Path returns the workbook location.
func (l *Ledger) Path() string {
	return l.path
}

// open returns the workbook with the ledger sheet present.
func (l *Ledger) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(l.path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), l.sheet); err != nil {
			f.Close()
			return nil, err
		}
	default:
		return nil, err
	}

	if index, _ := f.GetSheetIndex(l.sheet); index == -1 {
		if _, err := f.NewSheet(l.sheet); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// AppendRows writes rows after the last used row of the sheet and saves
// the workbook.
func (l *Ledger) AppendRows(ctx context.Context, rows []batch.Row) error {
	const op = "workbook.AppendRows"

	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := l.open()
	if err != nil {
		return fmt.Errorf("%s: open %s: %w", op, l.path, err)
	}
	defer f.Close()

	existing, err := f.GetRows(l.sheet)
	if err != nil {
		return fmt.Errorf("%s: read %s: %w", op, l.sheet, err)
	}

	next := len(existing) + 1
	if len(existing) == 0 {
		if err := l.writeHeader(f); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		next = 2
	}

	for _, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		values := row.Values()
		if err := f.SetSheetRow(l.sheet, cell, &values); err != nil {
			return fmt.Errorf("%s: write row %d: %w", op, next, err)
		}
		next++
	}

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("%s: save %s: %w", op, l.path, err)
	}

	l.log.Info().
		Str("path", l.path).
		Str("sheet", l.sheet).
		Int("rows_written", len(rows)).
		Msg("Appended ledger rows to workbook")

	return nil
}

func (l *Ledger) writeHeader(f *excelize.File) error {
	header := make([]interface{}, len(batch.Header))
	for i, h := range batch.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(l.sheet, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(l.sheet, 1, 1, bold)
	}
	_ = f.SetColWidth(l.sheet, "A", "A", 20) // timestamp
	_ = f.SetColWidth(l.sheet, "B", "B", 28) // file
	_ = f.SetColWidth(l.sheet, "C", "E", 22) // model, article, color
	_ = f.SetColWidth(l.sheet, "G", "G", 16) // barcode
	return nil
}

// LastRows returns the header row and the last n data rows.
func (l *Ledger) LastRows(n int) ([]string, [][]string, error) {
	const op = "workbook.LastRows"

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: open %s: %w", op, l.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(l.sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: read %s: %w", op, l.sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	data := rows[1:]
	if n > 0 && len(data) > n {
		data = data[len(data)-n:]
	}
	return rows[0], data, nil
}
