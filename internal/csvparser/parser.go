// =============================================================================
// Contract Generator - CSV Row Parser
// =============================================================================
//
// This module reads contract data exported as CSV. It produces the same
// SheetData as the XLSX parser, so the rest of the pipeline does not care
// which format the user uploaded.
//
// FEATURES:
//   - Configurable delimiter (comma, tab, semicolon, pipe ...)
//   - UTF-8 with or without BOM (Excel's "CSV UTF-8" export writes a BOM)
//   - EUC-KR / CP949 (Excel's default "CSV" export on Korean Windows)
//   - Quoted fields, embedded newlines and ragged rows
//
// CUSTOMIZATION:
//   - Add encodings in decoderFor.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/types"
	"github.com/ginjaninja78/contract-generator/internal/xlsxparser"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns its rows.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding.
//   - sheet:    Header and data row positions (the sheet name is ignored).
//
// RETURNS:
//   - The parsed rows.
//   - An error if the file cannot be read, decoded or has no header.
func Parse(filePath string, settings config.CSVSettings, sheet config.SheetSettings) (*types.SheetData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, filePath, settings, sheet)
}

// ParseReader reads CSV data from r. source is recorded as the SourceFile.
func ParseReader(r io.Reader, source string, settings config.CSVSettings, sheet config.SheetSettings) (*types.SheetData, error) {
	dec, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := transform.NewReader(bufio.NewReader(r), dec)

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	data, err := xlsxparser.FromRecords(source, records, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to extract rows: %w", err)
	}
	return data, nil
}

// decoderFor maps a configured encoding name to a text decoder.
// UTF-8 input may start with a byte order mark, which is dropped.
func decoderFor(name string) (transform.Transformer, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "UTF-8", "UTF8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "EUC-KR", "EUCKR", "CP949":
		return korean.EUCKR.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported csv encoding %q", name)
	}
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	if r, size := utf8.DecodeRuneInString(settings.Delimiter); size > 0 && r != utf8.RuneError {
		reader.Comma = r
	} else {
		reader.Comma = ','
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}
