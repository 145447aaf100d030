package xlsxparser

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is the sheet written by WriteExample.
const DefaultSheetName = "Sheet1"

// ExampleOptions tunes WriteExample.
type ExampleOptions struct {
	// SheetName names the data sheet. Default: DefaultSheetName.
	SheetName string

	// Rows are optional sample rows written under the header.
	Rows [][]string
}

// WriteExample creates an input workbook with one header column per
// placeholder name.
//
// PARAMETERS:
//   - filePath: Destination .xlsx path.
//   - headers:  Column names without braces, in column order.
//   - opts:     Sheet name and sample rows.
func WriteExample(filePath string, headers []string, opts ExampleOptions) error {
	if len(headers) == 0 {
		return fmt.Errorf("failed to write example: %w", ErrNoHeader)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := DefaultSheetName
	if opts.SheetName != "" && opts.SheetName != sheet {
		if err := f.SetSheetName(sheet, opts.SheetName); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
		sheet = opts.SheetName
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range opts.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to resolve row %d: %w", i+2, err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := styleHeader(f, sheet, headers); err != nil {
		return err
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save example: %w", err)
	}
	return nil
}

// styleHeader bolds and shades the header row, sizes columns to their
// header and freezes the header in place.
func styleHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "9BC2E6", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column %d: %w", i+1, err)
		}
		// Hangul glyphs are roughly two columns wide.
		width := float64(utf8.RuneCountInString(h))*2 + 4
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	return nil
}
