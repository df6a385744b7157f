package excel

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

type Editor struct {
	file     *excelize.File
	filepath string
}

// OpenFile opens an existing Excel file
func OpenFile(filepath string) (*Editor, error) {
	file, err := excelize.OpenFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &Editor{
		file:     file,
		filepath: filepath,
	}, nil
}

// Path returns the path the workbook was opened from or last saved to
func (e *Editor) Path() string {
	return e.filepath
}

// GetSheetNames returns all sheet names in the workbook
func (e *Editor) GetSheetNames() []string {
	return e.file.GetSheetList()
}

// ResolveSheet returns name if the workbook has it. When fallbackToFirst is
// set and the workbook has no such sheet, the first sheet is used instead
func (e *Editor) ResolveSheet(name string, fallbackToFirst bool) (string, error) {
	sheets := e.file.GetSheetList()
	for _, s := range sheets {
		if s == name {
			return s, nil
		}
	}
	if fallbackToFirst && len(sheets) > 0 {
		return sheets[0], nil
	}
	return "", fmt.Errorf("sheet %q not found in %s", name, e.filepath)
}

// GetColumnHeaders returns all column headers (first row)
func (e *Editor) GetColumnHeaders(sheet string) ([]string, error) {
	rows, err := e.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get first row: %w", err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	return rows[0], nil
}

// GetRawRows returns all rows with unformatted cell values, so dates come
// back as serial numbers
func (e *Editor) GetRawRows(sheet string) ([][]string, error) {
	rows, err := e.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of %s: %w", sheet, err)
	}
	return rows, nil
}

// EnsureColumn returns the 1-based index of the column headed header,
// appending it after the last used column if it does not exist yet
func (e *Editor) EnsureColumn(sheet, header string) (int, error) {
	headers, err := e.GetColumnHeaders(sheet)
	if err != nil {
		return 0, err
	}
	for i, h := range headers {
		if strings.TrimSpace(h) == header {
			return i + 1, nil
		}
	}

	col := len(headers) + 1
	cell, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return 0, err
	}
	if err := e.file.SetCellValue(sheet, cell, header); err != nil {
		return 0, fmt.Errorf("failed to add column %q: %w", header, err)
	}
	return col, nil
}

// SetCellAt sets the value of the cell at 1-based column col and row
func (e *Editor) SetCellAt(sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := e.file.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set value in cell %s: %w", cell, err)
	}
	return nil
}

// SetColumnNumberFormat applies a custom number format such as yyyy-mm-dd to
// rows firstRow..lastRow of column col
func (e *Editor) SetColumnNumberFormat(sheet string, col, firstRow, lastRow int, numFmt string) error {
	if lastRow < firstRow {
		return nil
	}
	style, err := e.file.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create number format style: %w", err)
	}

	top, err := excelize.CoordinatesToCellName(col, firstRow)
	if err != nil {
		return err
	}
	bottom, err := excelize.CoordinatesToCellName(col, lastRow)
	if err != nil {
		return err
	}
	if err := e.file.SetCellStyle(sheet, top, bottom, style); err != nil {
		return fmt.Errorf("failed to apply number format: %w", err)
	}
	return nil
}

// FormatSheets bolds the header row and sizes every column to its widest
// value, on every sheet of the workbook
func (e *Editor) FormatSheets() error {
	bold, err := e.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for _, sheet := range e.file.GetSheetList() {
		rows, err := e.file.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		widths := make([]int, 0)
		for _, row := range rows {
			for i, v := range row {
				for len(widths) <= i {
					widths = append(widths, 0)
				}
				if n := utf8.RuneCountInString(v); n > widths[i] {
					widths[i] = n
				}
			}
		}

		last, err := excelize.ColumnNumberToName(len(rows[0]))
		if err != nil || len(rows[0]) == 0 {
			last = "A"
		}
		if err := e.file.SetCellStyle(sheet, "A1", last+"1", bold); err != nil {
			return fmt.Errorf("failed to bold header of %s: %w", sheet, err)
		}

		for i, w := range widths {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			if err := e.file.SetColWidth(sheet, name, name, autofitWidth(w)); err != nil {
				return fmt.Errorf("failed to size column %s of %s: %w", name, sheet, err)
			}
		}
	}
	return nil
}

func autofitWidth(chars int) float64 {
	w := float64(chars) + 2
	if w < 8 {
		w = 8
	}
	if w > 60 {
		w = 60
	}
	return w
}

// SaveAs saves the Excel file with a new name
func (e *Editor) SaveAs(filepath string) error {
	e.filepath = filepath
	return e.file.SaveAs(filepath)
}

// Close closes the Excel file
func (e *Editor) Close() error {
	return e.file.Close()
}
