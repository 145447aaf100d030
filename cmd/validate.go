// =============================================================================
// Contract Generator - Validate Command
// =============================================================================
//
// The 'validate' command parses the input spreadsheet and reports what
// generate would warn about, without writing anything.
//
// COMMAND USAGE:
//   contractgen validate -t <template> -i <input> [--log findings.txt]
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/contract-generator/internal/validation"
)

// validateLog is an optional file the findings are written to.
var validateLog string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an input spreadsheet against a template",
	Long: `The validate command reads the input spreadsheet and reports missing columns,
malformed dates, numbers and national IDs, and rows without a name. The
template document is read when present so that placeholders with no matching
column can be reported too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addTemplateFlag(validateCmd)
	addInputFlag(validateCmd)
	validateCmd.Flags().StringVar(&validateLog, "log", "", "Also write the findings to this file")
}

func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	tmpl, err := resolveTemplate(cmd.Context(), templateKey)
	if err != nil {
		return err
	}
	gen, err := newGenerator(tmpl)
	if err != nil {
		return err
	}

	sheet, err := gen.LoadRows(inputPath)
	if err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}

	template, err := gen.LoadTemplate()
	if err != nil {
		logger.Debug("validating without template document")
		template = nil
	}

	result := gen.Validate(sheet, template)
	fmt.Fprintf(out, "Template: %s\n", tmpl.Name)
	fmt.Fprintf(out, "Rows:     %d\n\n", result.RowsValidated)
	printFindings(out, result.Errors)

	if validateLog != "" {
		if err := validation.WriteErrorLog(result.Errors, validateLog); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nFindings written to %s\n", validateLog)
	}

	if !result.IsValid {
		return fmt.Errorf("validation failed with %d error(s)", result.ErrorCount)
	}
	return nil
}

func printFindings(out io.Writer, findings []*validation.ValidationError) {
	fmt.Fprintln(out, strings.TrimRight(validation.FormatErrors(findings), "\n"))
}
