// =============================================================================
// Contract Generator - Output Naming
// =============================================================================
//
// File and folder names are built from patterns such as
//
//   "{today}_{이름}_{계약명|Contract}.docx"
//
// PATTERN TOKENS:
//   {today}      - Generation date (YYYYMMDD)
//   {count}      - Number of data rows in the batch
//   {template}   - Display name of the selected template
//   {uuid}       - Batch ID
//   {row}        - Source row number (file names only)
//   {<column>}   - Value of a spreadsheet column, trimmed
//   {<column>|x} - Same, with "x" used when the column is blank
//
// Anything unresolved becomes the configured unknown value ("Unknown").
// The result is sanitised so it is safe inside a zip archive and on Windows.
//
// =============================================================================

package naming

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/contract-generator/internal/types"
)

// Token names reserved by the naming layer.
const (
	TokenToday    = "today"
	TokenCount    = "count"
	TokenTemplate = "template"
	TokenUUID     = "uuid"
	TokenRow      = "row"
)

// TodayLayout formats the {today} token.
const TodayLayout = "20060102"

var fieldPattern = regexp.MustCompile(`\{([^{}|]+)(\|[^{}]*)?\}`)

// Tokens are the batch-level values available to patterns.
type Tokens struct {
	Today    string
	Count    int
	Template string
	UUID     string

	// Row is the source row number. Zero leaves {row} unresolved.
	Row int
}

func (t Tokens) lookup(name string) (string, bool) {
	switch name {
	case TokenToday:
		return t.Today, t.Today != ""
	case TokenCount:
		return strconv.Itoa(t.Count), true
	case TokenTemplate:
		return t.Template, t.Template != ""
	case TokenUUID:
		return t.UUID, t.UUID != ""
	case TokenRow:
		if t.Row <= 0 {
			return "", false
		}
		return strconv.Itoa(t.Row), true
	}
	return "", false
}

// Render resolves a pattern against a row.
//
// PARAMETERS:
//   - pattern: The file or folder pattern.
//   - row:     The data row supplying column values.
//   - tokens:  Batch-level tokens.
//   - unknown: Replacement for unresolved placeholders.
//
// RETURNS:
//   - A sanitised name.
func Render(pattern string, row types.Row, tokens Tokens, unknown string) string {
	out := fieldPattern.ReplaceAllStringFunc(pattern, func(match string) string {
		sub := fieldPattern.FindStringSubmatch(match)
		name := strings.TrimSpace(sub[1])

		if v, ok := tokens.lookup(name); ok {
			return v
		}
		if v := strings.TrimSpace(row.GetOr(types.Placeholder(name), "")); v != "" {
			return v
		}
		if fallback := strings.TrimPrefix(sub[2], "|"); fallback != "" {
			return fallback
		}
		return unknown
	})
	return Sanitize(out, unknown)
}

// Fields returns the column placeholders a pattern reads, e.g. "{이름}".
// Reserved tokens are not included.
func Fields(pattern string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, sub := range fieldPattern.FindAllStringSubmatch(pattern, -1) {
		name := strings.TrimSpace(sub[1])
		switch name {
		case TokenToday, TokenCount, TokenTemplate, TokenUUID, TokenRow:
			continue
		}
		key := types.Placeholder(name)
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// HasFallback reports whether the pattern gives field key its own fallback.
func HasFallback(pattern, key string) bool {
	for _, sub := range fieldPattern.FindAllStringSubmatch(pattern, -1) {
		if types.Placeholder(strings.TrimSpace(sub[1])) == key && len(sub[2]) > 1 {
			return true
		}
	}
	return false
}

// Sanitize replaces characters that are invalid in file names, trims
// trailing dots and spaces from the stem and composes Hangul to NFC.
// An empty stem becomes unknown.
func Sanitize(name, unknown string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	clean := strings.TrimSpace(b.String())
	ext := path.Ext(clean)
	if strings.ContainsRune(ext, ' ') {
		ext = ""
	}
	stem := strings.TrimRight(strings.TrimSuffix(clean, ext), " .")
	if stem == "" {
		stem = unknown
	}
	return stem + ext
}

// EnsureExt appends ext unless name already ends with it (case-insensitive).
func EnsureExt(name, ext string) string {
	if strings.EqualFold(path.Ext(name), ext) {
		return name
	}
	return name + ext
}
