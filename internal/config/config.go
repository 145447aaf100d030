// =============================================================================
// Contract Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration. It
// handles both the main application configuration and the template menu.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global settings, field classification,
//      derived-field rules and the built-in template menu
//   2. Template Configs (templates_config_dir/*.yaml): Extra or overriding
//      template menu entries, one per file
//
// When no config file exists at the default location the built-in defaults
// are used, which reproduce the four contract templates shipped with the tool.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned when a template key or name is not in the menu.
var ErrUnknownTemplate = errors.New("unknown template")

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// TemplatesDir is the directory containing the .docx templates.
	// Default: "./templates"
	TemplatesDir string `yaml:"templates_dir"`

	// DataDir is the directory containing example spreadsheets.
	// Default: "./data"
	DataDir string `yaml:"data_dir"`

	// OutputDir is the directory where generated archives are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// TemplatesConfigDir holds additional template definitions (*.yaml).
	// Optional; entries are merged into Templates by key.
	TemplatesConfigDir string `yaml:"templates_config_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an optional path the logger also writes to.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// Sheet controls how spreadsheet input is read.
	Sheet SheetSettings `yaml:"sheet"`

	// CSV controls how .csv input is read.
	CSV CSVSettings `yaml:"csv"`

	// =========================================================================
	// SUBSTITUTION SETTINGS
	// =========================================================================

	// DateFields are placeholders reformatted to YYYY-MM-DD in the first pass.
	DateFields []string `yaml:"date_fields"`

	// NumberFields are placeholders formatted with thousands separators.
	NumberFields []string `yaml:"number_fields"`

	// Derived are the placeholders computed in the second pass.
	Derived []DerivedField `yaml:"derived"`

	// BirthYearPivot decides the century of a two-digit birth year when the
	// national ID carries no century digit: YY < pivot is 20YY, else 19YY.
	// Default: 22
	BirthYearPivot int `yaml:"birth_year_pivot"`

	// BirthCenturyFromID uses the gender/century digit after the date part of
	// the national ID, when present, instead of the pivot.
	// Default: false
	BirthCenturyFromID bool `yaml:"birth_century_from_id"`

	// WorkPeriodError is substituted for the work period when a date is bad.
	// Default: "날짜 형식 오류"
	WorkPeriodError string `yaml:"work_period_error"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// UnknownValue replaces name placeholders that have no value.
	// Default: "Unknown"
	UnknownValue string `yaml:"unknown_value"`

	// WriteManifest adds manifest.yaml to each archive.
	// Default: false
	WriteManifest bool `yaml:"write_manifest"`

	// ContinueOnError keeps generating the remaining rows when a row fails.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// =========================================================================
	// TEMPLATE MENU
	// =========================================================================

	// Templates is the fixed menu of contract templates.
	Templates []TemplateConfig `yaml:"templates"`
}

// SheetSettings contains settings for reading .xlsx input.
type SheetSettings struct {
	// Name is the sheet to read. Empty means the first sheet.
	Name string `yaml:"name"`

	// HeaderRow is the 1-based row holding the column names.
	// Default: 1
	HeaderRow int `yaml:"header_row"`

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRow + 1
	DataStartRow int `yaml:"data_start_row"`
}

// CSVSettings contains settings for reading .csv input.
type CSVSettings struct {
	// Delimiter separates fields. Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the file encoding: "UTF-8", "EUC-KR" or "CP949".
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// DERIVED FIELD STRUCTURE
// =============================================================================

// Derived field kinds.
const (
	// DerivedToday renders the current date as YYYY-MM-DD.
	DerivedToday = "today"

	// DerivedKoreanNumber spells Sources[0] in Korean numerals.
	DerivedKoreanNumber = "korean_number"

	// DerivedBirthDate extracts YYYY.MM.DD from the national ID in Sources[0].
	DerivedBirthDate = "birth_date"

	// DerivedDateOnly reformats Sources[0] as YYYY-MM-DD.
	DerivedDateOnly = "date_only"

	// DerivedWorkPeriod renders "start ~ end (N일간)" from Sources[0] and Sources[1].
	DerivedWorkPeriod = "work_period"
)

// DerivedField defines a placeholder whose value is computed from others.
type DerivedField struct {
	// Key is the placeholder to fill, e.g. "{생년월일}".
	Key string `yaml:"key"`

	// Kind is one of the Derived* constants.
	Kind string `yaml:"kind"`

	// Sources are the placeholders the value is computed from.
	Sources []string `yaml:"sources,omitempty"`

	// Default is used in place of a missing source value.
	Default string `yaml:"default,omitempty"`
}

// =============================================================================
// TEMPLATE CONFIGURATION STRUCTURE
// =============================================================================

// TemplateConfig describes one entry of the template menu.
type TemplateConfig struct {
	// Key is a short ASCII identifier used on the command line.
	Key string `yaml:"key"`

	// Name is the human-readable menu label.
	// This is also the {template} token in folder patterns.
	Name string `yaml:"name"`

	// File is the .docx file name inside TemplatesDir.
	File string `yaml:"file"`

	// ExampleFile is the example spreadsheet inside DataDir.
	// Default: "<File stem>_Template.xlsx"
	ExampleFile string `yaml:"example_file"`

	// FilenamePattern names each generated document.
	// Default: "{today}_{이름}_{계약명|Contract}.docx"
	// "{key|fallback}" substitutes fallback when the column is blank.
	FilenamePattern string `yaml:"filename_pattern"`

	// FolderPattern names the archive folder (and the archive itself).
	// Row placeholders are resolved against the first data row.
	// Default: "{today}_{template}_{count}"
	FolderPattern string `yaml:"folder_pattern"`

	// DateFields and NumberFields extend the global lists for this template.
	DateFields   []string `yaml:"date_fields,omitempty"`
	NumberFields []string `yaml:"number_fields,omitempty"`
}

// Stem returns the template file name without its extension.
func (t *TemplateConfig) Stem() string {
	return strings.TrimSuffix(t.File, filepath.Ext(t.File))
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the built-in configuration.
func Default() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	return config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//   - required:   When false, a missing file yields the built-in defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed.
func LoadMainConfig(configPath string, required bool) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseMainConfig(data)
}

// ParseMainConfig parses a YAML document into a validated MainConfig.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if config.TemplatesConfigDir != "" {
		extra, err := LoadTemplateConfigs(config.TemplatesConfigDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load template configs: %w", err)
		}
		config.Templates = mergeTemplates(config.Templates, extra)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.TemplatesDir == "" {
		config.TemplatesDir = "./templates"
	}
	if config.DataDir == "" {
		config.DataDir = "./data"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.Sheet.HeaderRow <= 0 {
		config.Sheet.HeaderRow = 1
	}
	if config.Sheet.DataStartRow <= config.Sheet.HeaderRow {
		config.Sheet.DataStartRow = config.Sheet.HeaderRow + 1
	}
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = ","
	}
	if config.CSV.Encoding == "" {
		config.CSV.Encoding = "UTF-8"
	}
	if config.DateFields == nil {
		config.DateFields = []string{"{계약시작일}", "{계약마감일}", "{납품기일}", "{일시}", "{과업일자}"}
	}
	if config.NumberFields == nil {
		config.NumberFields = []string{"{지급금액}", "{납품금액}", "{상금}"}
	}
	if config.Derived == nil {
		config.Derived = defaultDerivedFields()
	}
	if config.BirthYearPivot == 0 {
		config.BirthYearPivot = 22
	}
	if config.WorkPeriodError == "" {
		config.WorkPeriodError = "날짜 형식 오류"
	}
	if config.UnknownValue == "" {
		config.UnknownValue = "Unknown"
	}
	if config.ContinueOnError == nil {
		enabled := true
		config.ContinueOnError = &enabled
	}
	if len(config.Templates) == 0 {
		config.Templates = defaultTemplates()
	}
	for i := range config.Templates {
		applyTemplateConfigDefaults(&config.Templates[i])
	}
}

// defaultDerivedFields reproduces the derived placeholders of the original
// contract templates.
func defaultDerivedFields() []DerivedField {
	return []DerivedField{
		{Key: "{생년월일}", Kind: DerivedBirthDate, Sources: []string{"{주민등록번호}"}},
		{Key: "{오늘날짜}", Kind: DerivedToday},
		{Key: "{납품금액한글}", Kind: DerivedKoreanNumber, Sources: []string{"{납품금액}"}, Default: "0"},
		{Key: "{상금한글}", Kind: DerivedKoreanNumber, Sources: []string{"{상금}"}, Default: "0"},
		{Key: "{일시}", Kind: DerivedDateOnly, Sources: []string{"{일시}"}},
		{Key: "{과업일자}", Kind: DerivedDateOnly, Sources: []string{"{과업일자}"}},
		{Key: "{계약시작일}", Kind: DerivedDateOnly, Sources: []string{"{계약시작일}"}},
		{Key: "{계약마감일}", Kind: DerivedDateOnly, Sources: []string{"{계약마감일}"}},
		{Key: "{근무일}", Kind: DerivedWorkPeriod, Sources: []string{"{계약시작일}", "{계약마감일}"}},
	}
}

// defaultTemplates is the built-in template menu.
func defaultTemplates() []TemplateConfig {
	return []TemplateConfig{
		{
			Key:             "general-service",
			Name:            "일반 대행 용역 계약서",
			File:            "General Service.docx",
			FilenamePattern: "{today}_{사업자명}_{프로젝트명}.docx",
			FolderPattern:   "{프로젝트명}_{today}_{count}",
		},
		{
			Key:  "temporary-worker",
			Name: "일용직 근로자 계약서",
			File: "Temporary Worker.docx",
		},
		{
			Key:  "allowance-payment",
			Name: "수당지급 약정서",
			File: "Allowance Payment.docx",
		},
		{
			Key:  "bonus-payment",
			Name: "상금지급 약정서",
			File: "Bonus Payment.docx",
		},
	}
}

// applyTemplateConfigDefaults sets default values for a template entry.
func applyTemplateConfigDefaults(t *TemplateConfig) {
	if t.Key == "" {
		t.Key = strings.ToLower(strings.ReplaceAll(t.Stem(), " ", "-"))
	}
	if t.Name == "" {
		t.Name = t.Stem()
	}
	if t.ExampleFile == "" && t.File != "" {
		t.ExampleFile = t.Stem() + "_Template.xlsx"
	}
	if t.FilenamePattern == "" {
		t.FilenamePattern = "{today}_{이름}_{계약명|Contract}.docx"
	}
	if t.FolderPattern == "" {
		t.FolderPattern = "{today}_{template}_{count}"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q", config.LogLevel)
	}

	switch strings.ToUpper(config.CSV.Encoding) {
	case "UTF-8", "UTF8", "EUC-KR", "EUCKR", "CP949":
	default:
		return fmt.Errorf("unsupported csv encoding %q", config.CSV.Encoding)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("csv delimiter must be a single character, got %q", config.CSV.Delimiter)
	}

	seen := make(map[string]bool, len(config.Templates))
	for _, t := range config.Templates {
		if t.File == "" {
			return fmt.Errorf("template %q has no file", t.Key)
		}
		if filepath.Ext(t.File) != ".docx" {
			return fmt.Errorf("template %q: file %q is not a .docx", t.Key, t.File)
		}
		if seen[t.Key] {
			return fmt.Errorf("duplicate template key %q", t.Key)
		}
		seen[t.Key] = true
	}

	for _, d := range config.Derived {
		if err := validateDerivedField(d); err != nil {
			return err
		}
	}

	return nil
}

// validateDerivedField checks that a derived rule has what its kind needs.
func validateDerivedField(d DerivedField) error {
	if !strings.HasPrefix(d.Key, "{") || !strings.HasSuffix(d.Key, "}") {
		return fmt.Errorf("derived key %q must be a {placeholder}", d.Key)
	}

	need := 0
	switch d.Kind {
	case DerivedToday:
	case DerivedKoreanNumber, DerivedBirthDate, DerivedDateOnly:
		need = 1
	case DerivedWorkPeriod:
		need = 2
	default:
		return fmt.Errorf("derived %s: unknown kind %q", d.Key, d.Kind)
	}

	if len(d.Sources) < need {
		return fmt.Errorf("derived %s: kind %q needs %d source(s)", d.Key, d.Kind, need)
	}

	return nil
}

// LoadTemplateConfigs loads all template configurations from a directory.
//
// PARAMETERS:
//   - configsDir: The directory containing template configuration files.
//
// RETURNS:
//   - The template entries, in file name order.
//   - An error if the directory cannot be read or any file cannot be parsed.
func LoadTemplateConfigs(configsDir string) ([]TemplateConfig, error) {
	files, err := filepath.Glob(filepath.Join(configsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}

	// Also check for .yml extension.
	ymlFiles, err := filepath.Glob(filepath.Join(configsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)

	var templates []TemplateConfig
	for _, file := range files {
		t, err := loadTemplateConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		templates = append(templates, *t)
	}

	return templates, nil
}

// loadTemplateConfig loads a single template configuration file.
func loadTemplateConfig(filePath string) (*TemplateConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var t TemplateConfig
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	applyTemplateConfigDefaults(&t)

	return &t, nil
}

// mergeTemplates overlays extra entries onto base, replacing by key.
func mergeTemplates(base, extra []TemplateConfig) []TemplateConfig {
	out := append([]TemplateConfig(nil), base...)
	for _, t := range extra {
		replaced := false
		for i := range out {
			if out[i].Key == t.Key {
				out[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, t)
		}
	}
	return out
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================

// FindTemplate returns the menu entry whose key or display name matches.
func (c *MainConfig) FindTemplate(keyOrName string) (*TemplateConfig, error) {
	want := strings.TrimSpace(keyOrName)
	for i := range c.Templates {
		t := &c.Templates[i]
		if strings.EqualFold(t.Key, want) || t.Name == want {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, keyOrName)
}

// TemplatePath returns the full path of a template's .docx file.
func (c *MainConfig) TemplatePath(t *TemplateConfig) string {
	return filepath.Join(c.TemplatesDir, t.File)
}

// ExamplePath returns the full path of a template's example spreadsheet.
func (c *MainConfig) ExamplePath(t *TemplateConfig) string {
	return filepath.Join(c.DataDir, t.ExampleFile)
}

// DateFieldsFor returns the global date fields plus the template's own.
func (c *MainConfig) DateFieldsFor(t *TemplateConfig) []string {
	return appendUnique(c.DateFields, t.DateFields)
}

// NumberFieldsFor returns the global number fields plus the template's own.
func (c *MainConfig) NumberFieldsFor(t *TemplateConfig) []string {
	return appendUnique(c.NumberFields, t.NumberFields)
}

// ComputedKeys returns the placeholders filled purely from other columns.
// Derived rules that read their own key (date reformatting) are excluded
// because the column still has to be supplied.
func (c *MainConfig) ComputedKeys() map[string]bool {
	keys := make(map[string]bool, len(c.Derived))
	for _, d := range c.Derived {
		if !slices.Contains(d.Sources, d.Key) {
			keys[d.Key] = true
		}
	}
	return keys
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
