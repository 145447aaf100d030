// =============================================================================
// Contract Generator - XLSX Row Parser
// =============================================================================
//
// This module reads the contract data spreadsheet. Each data row produces one
// contract; each column header names a placeholder in the template.
//
// SHEET STRUCTURE (Expected Layout):
//
//   | Column A | Column B     | Column C   | Column D   | ...
//   |----------|--------------|------------|------------|
//   | 이름     | 주민등록번호 | 계약시작일 | 계약마감일 |      <- header row
//   | 홍길동   | 990101-1...  | 2024-01-01 | 2024-01-10 |      <- one contract
//   | 김철수   | 050101-3...  | 2024-02-01 | 2024-02-29 |      <- one contract
//
//   Header "이름" fills the placeholder "{이름}". Headers that already carry
//   braces are used as-is.
//
// CUSTOMIZATION:
//   - Set sheet.name / sheet.header_row / sheet.data_start_row in config.yaml
//     for workbooks with a title block above the table.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/types"
)

// ErrSheetNotFound is returned when the configured sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrNoHeader is returned when the header row is missing or blank.
var ErrNoHeader = errors.New("header row is missing or empty")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an .xlsx file and returns its rows.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - settings: Sheet selection and header/data row positions.
//
// RETURNS:
//   - The parsed sheet. Rows may be empty; callers decide whether that is an
//     error.
//   - An error if the file cannot be opened or has no header.
func Parse(filePath string, settings config.SheetSettings) (*types.SheetData, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, filePath, settings)
}

// ParseReader reads a workbook from r. source is recorded as the sheet's
// SourceFile.
func ParseReader(r io.Reader, source string, settings config.SheetSettings) (*types.SheetData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, source, settings)
}

func parseFile(f *excelize.File, source string, settings config.SheetSettings) (*types.SheetData, error) {
	sheetName, err := resolveSheet(f, settings.Name)
	if err != nil {
		return nil, err
	}

	// GetRows returns formatted cell text. Date-styled cells are re-read
	// from their serial value so every date format arrives as ISO text.
	records, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	newDateCells(f, sheetName).apply(records, raw, dataStartIndex(settings))

	return FromRecords(source, records, settings)
}

func resolveSheet(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, name, strings.Join(sheets, ", "))
}

// FromRecords builds sheet data from raw records (one slice per sheet row).
// It is shared by the .xlsx and .csv readers.
//
// PROCESS:
//   1. Read headers from settings.HeaderRow, trimming and NFC-normalising them.
//   2. Skip blank headers; keep the first column of duplicated headers.
//   3. Read data rows from settings.DataStartRow, skipping blank rows.
func FromRecords(source string, records [][]string, settings config.SheetSettings) (*types.SheetData, error) {
	headerRow := headerRowOf(settings)
	dataStart := dataStartIndex(settings) + 1

	if len(records) < headerRow {
		return nil, fmt.Errorf("%w: row %d", ErrNoHeader, headerRow)
	}

	headers, columns := extractHeaders(records[headerRow-1])
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: row %d", ErrNoHeader, headerRow)
	}

	sheet := &types.SheetData{
		SourceFile: source,
		Headers:    headers,
	}

	for i := dataStart - 1; i < len(records); i++ {
		record := records[i]
		if isRowEmpty(record) {
			continue
		}

		row := types.Row{Number: i + 1, Keywords: make([]types.Keyword, 0, len(headers))}
		for h, header := range headers {
			value := ""
			if col := columns[h]; col < len(record) {
				value = record[col]
			}
			row.Keywords = append(row.Keywords, types.Keyword{
				Key:   HeaderKey(header),
				Value: value,
			})
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

func headerRowOf(settings config.SheetSettings) int {
	if settings.HeaderRow < 1 {
		return 1
	}
	return settings.HeaderRow
}

// dataStartIndex returns the 0-based index of the first data row.
func dataStartIndex(settings config.SheetSettings) int {
	headerRow := headerRowOf(settings)
	if settings.DataStartRow <= headerRow {
		return headerRow
	}
	return settings.DataStartRow - 1
}

// extractHeaders returns the usable header names and their column indexes.
func extractHeaders(record []string) ([]string, []int) {
	seen := make(map[string]bool, len(record))
	var headers []string
	var columns []int

	for col, cell := range record {
		name := NormalizeHeader(cell)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		headers = append(headers, name)
		columns = append(columns, col)
	}
	return headers, columns
}

// NormalizeHeader trims a header cell, composes Hangul to NFC and strips
// surrounding braces.
func NormalizeHeader(cell string) string {
	name := norm.NFC.String(strings.TrimSpace(cell))
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		name = strings.TrimSpace(types.StripPlaceholder(name))
	}
	return name
}

// HeaderKey returns the placeholder a header fills.
func HeaderKey(header string) string {
	return types.Placeholder(header)
}

// isRowEmpty checks if a row is empty (all cells are blank).
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
