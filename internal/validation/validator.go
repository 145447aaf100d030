// =============================================================================
// Contract Generator - Validation Engine
// =============================================================================
//
// This module checks an input sheet against the selected template before any
// document is generated. Problems are reported, not fixed: the generator
// still substitutes raw values where formatting fails.
//
// VALIDATION STRATEGY:
//   1. Sheet-level: at least one data row must exist (fatal).
//   2. Template-level: every placeholder in the template should be filled by
//      a column or a derived rule (warning).
//   3. Field-level: date, number and national ID values must parse
//      (warning; the raw value is used).
//   4. Naming-level: columns used in the file name pattern should not be
//      blank (warning; the configured unknown_value is used).
//
// ERROR HANDLING:
//   - Errors are collected, not returned one by one
//   - Each error includes row number, field and value
//   - Only "error" severity stops generation
//
// CUSTOMIZATION:
//   - Register extra checks with ValidationOptions.CustomValidators.
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/keyword"
	"github.com/ginjaninja78/contract-generator/internal/naming"
	"github.com/ginjaninja78/contract-generator/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule identifiers.
const (
	RuleNoRows         = "no_rows"
	RuleMissingColumn  = "missing_column"
	RuleInvalidDate    = "invalid_date"
	RuleInvalidNumber  = "invalid_number"
	RuleInvalidID      = "invalid_national_id"
	RuleEmptyNameField = "empty_name_field"
	RuleCustom         = "custom"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the placeholder concerned, e.g. "{계약시작일}".
	Field string

	// Value is the cell value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable message.
	Message string

	// RowNumber is the source row number; 0 for sheet-level findings.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", strings.ToUpper(e.Severity))
	if e.RowNumber > 0 {
		fmt.Fprintf(&b, "Row %d, ", e.RowNumber)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "Field '%s': ", e.Field)
	}
	b.WriteString(e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", e.Value)
	}
	return b.String()
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// RowsValidated is the number of data rows checked.
	RowsValidated int
}

func (r *ValidationResult) add(e *ValidationError, opts ValidationOptions) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if opts.TreatWarningsAsErrors {
		r.IsValid = false
	}
}

// Warnings returns the warning-level findings.
func (r *ValidationResult) Warnings() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors makes any warning invalidate the result.
	// Default: false
	TreatWarningsAsErrors bool

	// CustomValidators maps a placeholder to an extra check. A non-empty
	// return value is reported as a warning.
	CustomValidators map[string]CustomValidatorFunc
}

// CustomValidatorFunc checks a single value and returns a message when the
// value is not acceptable.
type CustomValidatorFunc func(value string, row types.Row) string

// Validator checks sheets for one template.
type Validator struct {
	engine   *keyword.Engine
	template *config.TemplateConfig
	idFields map[string]bool
	pivot    int
	unknown  string
	options  ValidationOptions
}

// NewValidator creates a Validator.
//
// PARAMETERS:
//   - cfg:    Main configuration (derived rules, birth year pivot, unknown value).
//   - tmpl:   The selected template. May be nil, which skips naming checks.
//   - engine: The keyword engine that will perform substitution.
func NewValidator(cfg *config.MainConfig, tmpl *config.TemplateConfig, engine *keyword.Engine) *Validator {
	return NewValidatorWithOptions(cfg, tmpl, engine, ValidationOptions{})
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(cfg *config.MainConfig, tmpl *config.TemplateConfig, engine *keyword.Engine, options ValidationOptions) *Validator {
	idFields := make(map[string]bool)
	for _, d := range cfg.Derived {
		if d.Kind == config.DerivedBirthDate && len(d.Sources) > 0 {
			idFields[d.Sources[0]] = true
		}
	}

	return &Validator{
		engine:   engine,
		template: tmpl,
		idFields: idFields,
		pivot:    cfg.BirthYearPivot,
		unknown:  cfg.UnknownValue,
		options:  options,
	}
}

// Validate checks a sheet.
//
// PARAMETERS:
//   - sheet:        The parsed input rows.
//   - placeholders: Placeholders found in the template document. May be nil
//                   when the template is not available.
func (v *Validator) Validate(sheet *types.SheetData, placeholders []string) *ValidationResult {
	result := &ValidationResult{IsValid: true, RowsValidated: len(sheet.Rows)}

	if len(sheet.Rows) == 0 {
		result.add(&ValidationError{
			Severity: SeverityError,
			Rule:     RuleNoRows,
			Message:  "the input has no data rows",
		}, v.options)
		return result
	}

	for _, e := range v.checkPlaceholders(sheet, placeholders) {
		result.add(e, v.options)
	}

	for _, row := range sheet.Rows {
		for _, e := range v.ValidateRow(row) {
			result.add(e, v.options)
		}
	}

	return result
}

// checkPlaceholders reports template placeholders nothing will fill.
func (v *Validator) checkPlaceholders(sheet *types.SheetData, placeholders []string) []*ValidationError {
	columns := make(map[string]bool, len(sheet.Headers))
	for _, h := range sheet.Headers {
		columns[types.Placeholder(h)] = true
	}
	derived := make(map[string]bool)
	for _, k := range v.engine.DerivedKeys() {
		derived[k] = true
	}

	var out []*ValidationError
	for _, p := range placeholders {
		if columns[p] || derived[p] {
			continue
		}
		out = append(out, &ValidationError{
			Severity: SeverityWarning,
			Field:    p,
			Rule:     RuleMissingColumn,
			Message:  "placeholder has no matching column and will stay in the document",
		})
	}
	return out
}

// ValidateRow checks the values of one row.
func (v *Validator) ValidateRow(row types.Row) []*ValidationError {
	var out []*ValidationError

	warn := func(field, value, rule, message string) {
		out = append(out, &ValidationError{
			Severity:  SeverityWarning,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			RowNumber: row.Number,
		})
	}

	for _, kw := range row.Keywords {
		value := strings.TrimSpace(kw.Value)
		if value == "" {
			continue
		}

		switch {
		case v.engine.IsDateField(kw.Key):
			if _, ok := keyword.ParseDate(value); !ok {
				warn(kw.Key, kw.Value, RuleInvalidDate, "not a recognised date, the raw value will be used")
			}
		case v.engine.IsNumberField(kw.Key):
			if _, ok := keyword.ParseInteger(value); !ok {
				warn(kw.Key, kw.Value, RuleInvalidNumber, "not a number, the raw value will be used")
			}
		}

		if v.idFields[kw.Key] {
			if _, ok := keyword.BirthDate(value, v.pivot, false); !ok {
				warn(kw.Key, kw.Value, RuleInvalidID, "not a valid national ID, birth date cannot be derived")
			}
		}

		if check, ok := v.options.CustomValidators[kw.Key]; ok {
			if msg := check(kw.Value, row); msg != "" {
				warn(kw.Key, kw.Value, RuleCustom, msg)
			}
		}
	}

	if v.template != nil {
		for _, field := range naming.Fields(v.template.FilenamePattern) {
			if naming.HasFallback(v.template.FilenamePattern, field) {
				continue
			}
			if row.GetOr(field, "") == "" {
				warn(field, "", RuleEmptyNameField, fmt.Sprintf("used in the file name but empty, %q will be used", v.unknown))
			}
		}
	}

	return out
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation findings to a text file.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create validation log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Contract Generator - Validation Log\nGenerated: %s\n\n",
		time.Now().Format("2006-01-02 15:04:05"))
	writer.WriteString(FormatErrors(errors))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
