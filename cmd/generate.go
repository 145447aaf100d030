// =============================================================================
// Contract Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool. It
// fills the selected template once per spreadsheet row and writes the
// documents into a single archive.
//
// COMMAND USAGE:
//   contractgen generate [flags]
//
// FLAGS:
//   -t, --template : Template key or display name (prompted when omitted)
//   -i, --input    : Spreadsheet with one header row and one row per contract
//   -o, --output   : Output directory (default: output_dir from config.yaml)
//   --date         : Generation date as YYYY-MM-DD (default: today)
//   --dry-run      : Validate and list document names without writing
//
// PROCESSING PIPELINE:
//   1. Resolve the template (flag or interactive menu)
//   2. Parse the input spreadsheet
//   3. Validate rows and print warnings
//   4. Write <output>/<folder>.zip with one .docx per row
//   5. Write an error log for rows that failed
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/generator"
	"github.com/ginjaninja78/contract-generator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	templateKey string
	inputPath   string
	outputDir   string
	genDate     string
	dryRun      bool
)

// DateLayout is the format of the --date flag.
const DateLayout = "2006-01-02"

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one contract per spreadsheet row",
	Long: `The generate command fills the selected .docx template with each data row of
the input spreadsheet and packages the documents into <output>/<folder>.zip.

Rows whose dates or numbers cannot be formatted are still generated with the
raw cell value; these rows are reported as warnings. A row that cannot be
rendered at all is skipped and listed in an error log next to the archive.`,
	Example: `  contractgen generate -t temporary-worker -i rows.xlsx
  contractgen generate -t "일반 대행 용역 계약서" -i rows.csv -o ./out --date 2024-03-15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addTemplateFlag(generateCmd)
	addInputFlag(generateCmd)

	generateCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: output_dir from config)")
	generateCmd.Flags().StringVar(&genDate, "date", "", "Generation date as YYYY-MM-DD (default: today)")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and list document names without writing files")
}

func addTemplateFlag(c *cobra.Command) {
	c.Flags().StringVarP(&templateKey, "template", "t", "", "Template key or name (prompted when omitted)")
}

func addInputFlag(c *cobra.Command) {
	c.Flags().StringVarP(&inputPath, "input", "i", "", "Input spreadsheet (.xlsx or .csv)")
	_ = c.MarkFlagRequired("input")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	tmpl, err := resolveTemplate(cmd.Context(), templateKey)
	if err != nil {
		return err
	}

	gen, err := newGenerator(tmpl)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Contract Generator ===")
	fmt.Fprintf(out, "Template: %s\n", tmpl.Name)
	fmt.Fprintf(out, "Input:    %s\n", inputPath)

	result := gen.Run(inputPath, generator.Options{OutputDir: outputDir, DryRun: dryRun})

	if result.Validation != nil && len(result.Validation.Errors) > 0 {
		fmt.Fprintln(out)
		printFindings(out, result.Validation.Errors)
	}

	if result.Error != nil {
		fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(inputPath), result.Error)
		return explain(result.Error, tmpl)
	}

	fmt.Fprintln(out)
	for _, doc := range result.Documents {
		fmt.Fprintf(out, "  ✓ row %d -> %s\n", doc.Row, doc.File)
	}
	for _, re := range result.RowErrors {
		fmt.Fprintf(out, "  ✗ row %d: %v\n", re.Row, re.Err)
	}

	printSummary(out, result, dryRun)
	return nil
}

// newGenerator creates a generator for tmpl, applying --date.
func newGenerator(tmpl *config.TemplateConfig) (*generator.Generator, error) {
	gen := generator.New(mainConfig, tmpl, logger)
	if genDate != "" {
		day, err := time.ParseInLocation(DateLayout, genDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", genDate)
		}
		gen.Now = func() time.Time { return day }
	}
	return gen, nil
}

// explain adds a hint to errors caused by missing files.
func explain(err error, tmpl *config.TemplateConfig) error {
	switch {
	case errors.Is(err, generator.ErrTemplateNotFound):
		return fmt.Errorf("template file for %q is missing; place %s in %s", tmpl.Name, tmpl.File, mainConfig.TemplatesDir)
	case errors.Is(err, generator.ErrNoRows):
		return fmt.Errorf("%s contains no data rows", inputPath)
	default:
		return err
	}
}

func printSummary(out io.Writer, result generator.Result, dry bool) {
	fmt.Fprintln(out)
	if dry {
		fmt.Fprintln(out, "=== Dry Run Complete ===")
	} else {
		fmt.Fprintln(out, "=== Generation Complete ===")
	}
	fmt.Fprintf(out, "Rows:            %d\n", result.Stats.RowsProcessed)
	if dry {
		fmt.Fprintf(out, "Documents:       %d (not written)\n", len(result.Documents))
	} else {
		fmt.Fprintf(out, "Documents:       %d\n", result.Stats.DocumentsCreated)
	}
	fmt.Fprintf(out, "Failed rows:     %d\n", len(result.RowErrors))
	fmt.Fprintf(out, "Warnings:        %d\n", result.Stats.Warnings)
	if result.OutputFile != "" {
		if size, err := utils.GetFileSize(result.OutputFile); err == nil {
			fmt.Fprintf(out, "Archive:         %s (%.1f KB)\n", result.OutputFile, float64(size)/1024)
		} else {
			fmt.Fprintf(out, "Archive:         %s\n", result.OutputFile)
		}
	}
	if result.ErrorLog != "" {
		fmt.Fprintf(out, "Error log:       %s\n", result.ErrorLog)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", result.Stats.ProcessingTime.Round(time.Millisecond))
}
