// =============================================================================
// Contract Generator - Keyword Substitution Engine
// =============================================================================
//
// The engine turns one spreadsheet row into an ordered list of placeholder
// substitutions and applies them to a document.
//
// SUBSTITUTION PASSES:
//   1. Row pass: every column of the row, in column order.
//        - date fields   -> YYYY-MM-DD (raw value if unparsable)
//        - number fields -> thousands separators (raw value if unparsable)
//        - anything else -> raw value
//   2. Derived pass: placeholders computed from other values (today's date,
//      Korean numerals, birth date, work period ...). Only placeholders still
//      present in the document are affected; a column that already filled the
//      placeholder in the row pass wins.
//
// The engine never escapes values and never changes document structure.
//
// =============================================================================

package keyword

import (
	"strings"
	"time"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/types"
)

// Replacer is anything placeholders can be substituted into.
// Replace substitutes every occurrence of old and reports how many it found.
type Replacer interface {
	Replace(old, new string) int
}

// Substitution is a single placeholder replacement.
type Substitution struct {
	// Key is the placeholder token, e.g. "{계약시작일}".
	Key string

	// Value is the text written in place of Key.
	Value string

	// Derived marks substitutions from the second pass.
	Derived bool

	// Fallback is true when a date/number formatter rejected the value and
	// the raw value is used instead.
	Fallback bool
}

// Report summarises one Apply call.
type Report struct {
	// Replaced counts occurrences per placeholder key.
	Replaced map[string]int

	// Fallbacks lists keys substituted with their raw value because
	// formatting failed and that were actually present in the document.
	Fallbacks []string
}

// Total returns the number of replaced occurrences.
func (r Report) Total() int {
	total := 0
	for _, n := range r.Replaced {
		total += n
	}
	return total
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes and applies substitutions for spreadsheet rows.
type Engine struct {
	dateFields    map[string]bool
	numberFields  map[string]bool
	derived       []config.DerivedField
	pivot         int
	centuryFromID bool
	periodError   string

	// Now returns the current time; used for the {오늘날짜} style fields.
	Now func() time.Time
}

// NewEngine creates an Engine for a template.
//
// PARAMETERS:
//   - cfg:  The main configuration (field lists, derived rules).
//   - tmpl: The selected template; its extra date/number fields are added.
//           May be nil.
func NewEngine(cfg *config.MainConfig, tmpl *config.TemplateConfig) *Engine {
	dateFields := cfg.DateFields
	numberFields := cfg.NumberFields
	if tmpl != nil {
		dateFields = cfg.DateFieldsFor(tmpl)
		numberFields = cfg.NumberFieldsFor(tmpl)
	}

	return &Engine{
		dateFields:    toSet(dateFields),
		numberFields:  toSet(numberFields),
		derived:       cfg.Derived,
		pivot:         cfg.BirthYearPivot,
		centuryFromID: cfg.BirthCenturyFromID,
		periodError:   cfg.WorkPeriodError,
		Now:           time.Now,
	}
}

// IsDateField reports whether key is reformatted as a date.
func (e *Engine) IsDateField(key string) bool { return e.dateFields[key] }

// IsNumberField reports whether key is formatted as a number.
func (e *Engine) IsNumberField(key string) bool { return e.numberFields[key] }

// DerivedKeys returns the placeholders of the derived pass.
func (e *Engine) DerivedKeys() []string {
	keys := make([]string, 0, len(e.derived))
	for _, d := range e.derived {
		keys = append(keys, d.Key)
	}
	return keys
}

// Plan returns the ordered substitutions for a row: the row pass followed by
// the derived pass.
func (e *Engine) Plan(row types.Row) []Substitution {
	subs := make([]Substitution, 0, len(row.Keywords)+len(e.derived))

	for _, kw := range row.Keywords {
		value, ok := e.FormatValue(kw.Key, kw.Value)
		subs = append(subs, Substitution{Key: kw.Key, Value: value, Fallback: !ok})
	}

	for _, d := range e.derived {
		subs = append(subs, Substitution{Key: d.Key, Value: e.Derive(d, row), Derived: true})
	}

	return subs
}

// FormatValue applies the row-pass formatting for a placeholder.
// ok is false when a date/number field fell back to its raw value.
func (e *Engine) FormatValue(key, value string) (string, bool) {
	switch {
	case e.dateFields[key]:
		if value == "" {
			return "", true
		}
		return FormatDate(value)
	case e.numberFields[key]:
		if value == "" {
			return "", true
		}
		return FormatNumber(value)
	default:
		return value, true
	}
}

// Derive computes the value of a derived placeholder for a row.
//
// CUSTOMIZATION:
//   Add new cases to this switch statement for new derived kinds, and
//   register the kind in config.validateDerivedField.
func (e *Engine) Derive(d config.DerivedField, row types.Row) string {
	source := func(i int) string {
		if i >= len(d.Sources) {
			return d.Default
		}
		return row.GetOr(d.Sources[i], d.Default)
	}

	switch d.Kind {
	case config.DerivedToday:
		return e.Now().Format(DateLayout)

	case config.DerivedKoreanNumber:
		out, _ := KoreanNumber(source(0))
		return out

	case config.DerivedBirthDate:
		id := source(0)
		if id == "" {
			return ""
		}
		out, _ := BirthDate(id, e.pivot, e.centuryFromID)
		return out

	case config.DerivedDateOnly:
		out, _ := FormatDate(source(0))
		return out

	case config.DerivedWorkPeriod:
		out, ok := WorkPeriod(source(0), source(1))
		if !ok {
			return e.periodError
		}
		return out

	default:
		return ""
	}
}

// Apply substitutes a row into doc and reports what was replaced.
func (e *Engine) Apply(doc Replacer, row types.Row) Report {
	report := Report{Replaced: make(map[string]int)}

	for _, sub := range e.Plan(row) {
		n := doc.Replace(sub.Key, sub.Value)
		if n == 0 {
			continue
		}
		report.Replaced[sub.Key] += n
		if sub.Fallback {
			report.Fallbacks = append(report.Fallbacks, sub.Key)
		}
	}

	return report
}

// =============================================================================
// STRING REPLACER
// =============================================================================

// Text is a Replacer over a plain string.
type Text struct {
	s string
}

// NewText wraps s.
func NewText(s string) *Text {
	return &Text{s: s}
}

// Replace implements Replacer.
func (t *Text) Replace(old, new string) int {
	if old == "" {
		return 0
	}
	n := strings.Count(t.s, old)
	if n > 0 {
		t.s = strings.ReplaceAll(t.s, old, new)
	}
	return n
}

// String returns the current text.
func (t *Text) String() string {
	return t.s
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
