// =============================================================================
// Contract Generator - Generator Module
// =============================================================================
//
// This module contains the core generation logic. It orchestrates the whole
// pipeline for one input spreadsheet, from parsing rows to writing the zip.
//
// GENERATION PIPELINE:
//   1. Load the selected .docx template
//   2. Parse the input spreadsheet (.xlsx or .csv)
//   3. Validate rows against the template placeholders
//   4. Render the archive folder name from the first row
//   5. For each row: open a fresh copy of the template, substitute keywords,
//      render the file name and add the document to the archive
//   6. Write the error log for rows that failed
//
// CONCURRENCY:
//   Rows are processed sequentially; a Generator is not safe for concurrent
//   use.
//
// =============================================================================

package generator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/contract-generator/internal/archive"
	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/csvparser"
	"github.com/ginjaninja78/contract-generator/internal/docx"
	"github.com/ginjaninja78/contract-generator/internal/keyword"
	"github.com/ginjaninja78/contract-generator/internal/naming"
	"github.com/ginjaninja78/contract-generator/internal/types"
	"github.com/ginjaninja78/contract-generator/internal/validation"
	"github.com/ginjaninja78/contract-generator/internal/xlsxparser"
	"github.com/ginjaninja78/contract-generator/pkg/utils"
)

// Sentinel errors.
var (
	// ErrTemplateNotFound is returned when the template .docx is missing.
	ErrTemplateNotFound = errors.New("template file not found")

	// ErrExampleNotFound is returned when the example spreadsheet is missing.
	ErrExampleNotFound = errors.New("example spreadsheet not found")

	// ErrNoRows is returned when the input has no data rows.
	ErrNoRows = errors.New("input has no data rows")

	// ErrUnsupportedInput is returned for input files that are neither
	// .xlsx nor .csv.
	ErrUnsupportedInput = errors.New("unsupported input file type")

	// ErrNoDocuments is returned when every row failed.
	ErrNoDocuments = errors.New("no documents were generated")
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing one input file.
type Result struct {
	// InputFile is the spreadsheet that was processed.
	InputFile string

	// OutputFile is the generated archive. Empty on failure or dry run.
	OutputFile string

	// ErrorLog is the error log path when rows failed.
	ErrorLog string

	// Folder is the folder name inside the archive.
	Folder string

	// BatchID identifies the run; it is stored in the archive comment.
	BatchID string

	// Success indicates whether the archive was written (or, for a dry run,
	// would have been).
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats

	// Documents maps source rows to file names inside the archive.
	Documents []archive.ManifestEntry

	// RowErrors lists rows that could not be generated.
	RowErrors []RowError

	// Validation holds the pre-flight findings.
	Validation *validation.ValidationResult
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of data rows read.
	RowsProcessed int

	// DocumentsCreated is the number of documents added to the archive.
	DocumentsCreated int

	// Warnings is the number of validation warnings.
	Warnings int

	// Fallbacks counts substitutions that used a raw value because date or
	// number formatting failed.
	Fallbacks int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// RowError records a row that failed.
type RowError struct {
	Row int
	Err error
}

// Error implements the error interface.
func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Unwrap returns the underlying error.
func (e RowError) Unwrap() error {
	return e.Err
}

// Options control a Run.
type Options struct {
	// OutputDir overrides the configured output directory.
	OutputDir string

	// DryRun validates and plans names without writing anything.
	DryRun bool
}

// =============================================================================
// GENERATOR STRUCTURE
// =============================================================================

// Generator produces contract archives for one template.
type Generator struct {
	cfg    *config.MainConfig
	tmpl   *config.TemplateConfig
	engine *keyword.Engine
	logger *zap.Logger

	// Now returns the generation time ({today}, {오늘날짜}, zip timestamps).
	Now func() time.Time

	// NewID returns a batch ID.
	NewID func() string
}

// New creates a Generator.
//
// PARAMETERS:
//   - cfg:    The main configuration.
//   - tmpl:   The selected template.
//   - logger: Structured logger; nil disables logging.
func New(cfg *config.MainConfig, tmpl *config.TemplateConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Generator{
		cfg:    cfg,
		tmpl:   tmpl,
		logger: logger.With(zap.String("template", tmpl.Key)),
		Now:    time.Now,
		NewID:  func() string { return uuid.New().String() },
	}
	g.engine = keyword.NewEngine(cfg, tmpl)
	g.engine.Now = func() time.Time { return g.Now() }
	return g
}

// Template returns the selected template.
func (g *Generator) Template() *config.TemplateConfig {
	return g.tmpl
}

// Engine returns the keyword engine used for substitution.
func (g *Generator) Engine() *keyword.Engine {
	return g.engine
}

// =============================================================================
// LOADING
// =============================================================================

// LoadTemplate reads and checks the template document.
func (g *Generator) LoadTemplate() ([]byte, error) {
	templatePath := g.cfg.TemplatePath(g.tmpl)

	data, err := os.ReadFile(templatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	if _, err := docx.OpenBytes(data); err != nil {
		return nil, fmt.Errorf("failed to open template %s: %w", templatePath, err)
	}
	return data, nil
}

// LoadRows parses the input spreadsheet, choosing the parser by extension.
func (g *Generator) LoadRows(inputPath string) (*types.SheetData, error) {
	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(inputPath, g.cfg.Sheet)
	case ".csv", ".txt":
		return csvparser.Parse(inputPath, g.cfg.CSV, g.cfg.Sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Base(inputPath))
	}
}

// Validate checks rows against the template's placeholders.
// template may be nil, which skips the placeholder coverage check.
func (g *Generator) Validate(sheet *types.SheetData, template []byte) *validation.ValidationResult {
	var placeholders []string
	if template != nil {
		if doc, err := docx.OpenBytes(template); err == nil {
			placeholders = doc.Placeholders()
		}
	}

	v := validation.NewValidator(g.cfg, g.tmpl, g.engine)
	return v.Validate(sheet, placeholders)
}

// =============================================================================
// BATCH GENERATION
// =============================================================================

// Batch is one planned archive.
type Batch struct {
	// ID is the batch ID.
	ID string

	// Started is the generation time shared by every document.
	Started time.Time

	// Folder is the folder name inside the archive; the archive is named
	// Folder + ".zip".
	Folder string

	// Documents lists the entries written.
	Documents []archive.ManifestEntry

	// RowErrors lists rows that failed.
	RowErrors []RowError

	// Fallbacks counts raw-value substitutions.
	Fallbacks int

	tokens naming.Tokens
	source string
}

// ArchiveName returns the archive file name.
func (b *Batch) ArchiveName() string {
	return b.Folder + ".zip"
}

// NewBatch fixes the batch ID, time and folder name for a sheet.
func (g *Generator) NewBatch(sheet *types.SheetData) (*Batch, error) {
	if len(sheet.Rows) == 0 {
		return nil, ErrNoRows
	}

	now := g.Now()
	b := &Batch{
		ID:      g.NewID(),
		Started: now,
		source:  filepath.Base(sheet.SourceFile),
		tokens: naming.Tokens{
			Today:    now.Format(naming.TodayLayout),
			Count:    len(sheet.Rows),
			Template: g.tmpl.Name,
		},
	}
	b.tokens.UUID = b.ID
	b.Folder = naming.Render(g.tmpl.FolderPattern, sheet.Rows[0], b.tokens, g.cfg.UnknownValue)
	return b, nil
}

// FileName renders the document name for a row.
func (g *Generator) FileName(b *Batch, row types.Row) string {
	tokens := b.tokens
	tokens.Row = row.Number
	return naming.EnsureExt(naming.Render(g.tmpl.FilenamePattern, row, tokens, g.cfg.UnknownValue), ".docx")
}

// Generate writes one document per row into an archive on w.
func (g *Generator) Generate(sheet *types.SheetData, template []byte, w io.Writer) (*Batch, error) {
	b, err := g.NewBatch(sheet)
	if err != nil {
		return nil, err
	}
	return b, g.Write(b, sheet, template, w)
}

// Write renders every row of sheet into the archive described by b.
//
// A row that fails is recorded in b.RowErrors. Processing continues unless
// continue_on_error is disabled.
func (g *Generator) Write(b *Batch, sheet *types.SheetData, template []byte, w io.Writer) error {
	aw := archive.NewWriter(w, b.Folder)
	aw.Modified = b.Started
	aw.Unknown = g.cfg.UnknownValue
	b.Folder = aw.Folder()

	continueOnError := g.cfg.ContinueOnError == nil || *g.cfg.ContinueOnError

	for _, row := range sheet.Rows {
		name, fallbacks, err := g.writeRow(aw, b, row, template)
		if err != nil {
			b.RowErrors = append(b.RowErrors, RowError{Row: row.Number, Err: err})
			g.logger.Warn("row failed", zap.Int("row", row.Number), zap.Error(err))
			if !continueOnError {
				aw.Close()
				return RowError{Row: row.Number, Err: err}
			}
			continue
		}

		b.Fallbacks += fallbacks
		g.logger.Debug("document created", zap.Int("row", row.Number), zap.String("file", name))
	}

	b.Documents = aw.Entries()
	if len(b.Documents) == 0 {
		aw.Close()
		return ErrNoDocuments
	}

	if g.cfg.WriteManifest {
		if err := aw.WriteManifest(archive.Manifest{
			BatchID:     b.ID,
			Template:    g.tmpl.Name,
			Source:      b.source,
			GeneratedAt: b.Started,
		}); err != nil {
			aw.Close()
			return err
		}
	}

	if err := aw.SetBatchID(b.ID); err != nil {
		aw.Close()
		return err
	}
	return aw.Close()
}

func (g *Generator) writeRow(aw *archive.Writer, b *Batch, row types.Row, template []byte) (string, int, error) {
	doc, err := docx.OpenBytes(template)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open template: %w", err)
	}

	report := g.engine.Apply(doc, row)
	for _, key := range report.Fallbacks {
		value, _ := row.Get(key)
		g.logger.Debug("raw value substituted",
			zap.Int("row", row.Number),
			zap.String("field", key),
			zap.String("value", value))
	}

	data, err := doc.Bytes()
	if err != nil {
		return "", 0, fmt.Errorf("failed to render document: %w", err)
	}

	name, err := aw.Add(g.FileName(b, row), row.Number, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return "", 0, err
	}
	return name, len(report.Fallbacks), nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the full pipeline for one input file.
//
// PROCESSING STEPS:
//   1. Load and check the template
//   2. Parse the input spreadsheet
//   3. Validate (warnings are logged, only an empty sheet is fatal)
//   4. Plan the batch (ID, folder name)
//   5. Write <output>/<folder>.zip (skipped for a dry run)
//   6. Write the error log for failed rows
func (g *Generator) Run(inputPath string, opts Options) (result Result) {
	startTime := time.Now()
	result = Result{InputFile: inputPath}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	g.logger.Info("processing input", zap.String("input", inputPath))

	template, err := g.LoadTemplate()
	if err != nil {
		result.Error = err
		return result
	}

	sheet, err := g.LoadRows(inputPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to parse input: %w", err)
		return result
	}
	result.Stats.RowsProcessed = len(sheet.Rows)
	g.logger.Debug("parsed input", zap.Int("rows", len(sheet.Rows)), zap.Strings("headers", sheet.Headers))

	result.Validation = g.Validate(sheet, template)
	result.Stats.Warnings = result.Validation.WarningCount
	for _, w := range result.Validation.Warnings() {
		g.logger.Warn("validation warning",
			zap.Int("row", w.RowNumber),
			zap.String("field", w.Field),
			zap.String("rule", w.Rule),
			zap.String("value", w.Value))
	}

	batch, err := g.NewBatch(sheet)
	if err != nil {
		result.Error = err
		return result
	}
	result.BatchID = batch.ID
	result.Folder = batch.Folder

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = g.cfg.OutputDir
	}

	if opts.DryRun {
		for _, row := range sheet.Rows {
			result.Documents = append(result.Documents, archive.ManifestEntry{Row: row.Number, File: g.FileName(batch, row)})
		}
		result.Success = true
		return result
	}

	fm := utils.NewFileManager("", "", outputDir)
	if err := fm.EnsureOutputDir(); err != nil {
		result.Error = err
		return result
	}

	outputPath := utils.UniquePath(filepath.Join(outputDir, naming.Sanitize(batch.ArchiveName(), g.cfg.UnknownValue)))
	if err := g.writeArchive(outputPath, batch, sheet, template); err != nil {
		result.Error = err
		result.RowErrors = batch.RowErrors
		return result
	}

	result.OutputFile = outputPath
	result.Folder = batch.Folder
	result.Documents = batch.Documents
	result.RowErrors = batch.RowErrors
	result.Stats.DocumentsCreated = len(batch.Documents)
	result.Stats.Fallbacks = batch.Fallbacks

	if len(batch.RowErrors) > 0 {
		logPath, err := utils.WriteErrorLog(g.errorLogEntries(inputPath, batch), outputDir, batch.Started)
		if err != nil {
			g.logger.Warn("failed to write error log", zap.Error(err))
		}
		result.ErrorLog = logPath
	}

	g.logger.Info("archive written",
		zap.String("output", outputPath),
		zap.String("batch", batch.ID),
		zap.Int("documents", len(batch.Documents)),
		zap.Int("failed", len(batch.RowErrors)))

	result.Success = true
	return result
}

// writeArchive writes the archive to path, removing it again on failure.
func (g *Generator) writeArchive(path string, b *Batch, sheet *types.SheetData, template []byte) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return g.Write(b, sheet, template, file)
}

func (g *Generator) errorLogEntries(inputPath string, b *Batch) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(b.RowErrors))
	for _, re := range b.RowErrors {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    b.Started,
			FileName:     filepath.Base(inputPath),
			ErrorType:    "row",
			ErrorMessage: re.Err.Error(),
			RowNumber:    re.Row,
		})
	}
	return entries
}
