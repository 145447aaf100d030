// =============================================================================
// Contract Generator - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser / csvparser (producers)
//   - keyword (substitution engine)
//   - validation
//   - generator
//
// =============================================================================

package types

import "strings"

// =============================================================================
// KEYWORD TYPES
// =============================================================================

// Keyword is a single placeholder/value pair taken from a spreadsheet row.
type Keyword struct {
	// Key is the placeholder token including braces, e.g. "{이름}".
	Key string

	// Value is the cell content as displayed by the spreadsheet.
	Value string
}

// Row is one spreadsheet data row. Each row produces exactly one document.
type Row struct {
	// Number is the 1-based row number in the source sheet.
	// Useful for error reporting.
	Number int

	// Keywords holds the row's values in column order. Order matters:
	// substitutions are applied in this order and later ones may overwrite
	// text produced by earlier ones.
	Keywords []Keyword
}

// Get returns the value for a placeholder key.
func (r Row) Get(key string) (string, bool) {
	for _, kw := range r.Keywords {
		if kw.Key == key {
			return kw.Value, true
		}
	}
	return "", false
}

// GetOr returns the value for a placeholder key, or def when the key is
// missing or blank.
func (r Row) GetOr(key, def string) string {
	if v, ok := r.Get(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// =============================================================================
// SHEET DATA
// =============================================================================

// SheetData represents a parsed input spreadsheet.
type SheetData struct {
	// SourceFile is the path to the source file.
	SourceFile string

	// Headers contains the raw column headers (without braces).
	Headers []string

	// Rows contains the data rows.
	Rows []Row
}

// Placeholder wraps a column name in braces: "이름" -> "{이름}".
func Placeholder(name string) string {
	return "{" + name + "}"
}

// StripPlaceholder removes surrounding braces: "{이름}" -> "이름".
func StripPlaceholder(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, "{"), "}")
}
