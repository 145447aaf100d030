// =============================================================================
// Contract Generator - Example Command
// =============================================================================
//
// The 'example' command hands out the example spreadsheet for a template so
// the user knows which columns to fill.
//
// COMMAND USAGE:
//   contractgen example -t <template> [-o path] [--from-template]
//
// SOURCES:
//   1. The configured example file in data_dir (copied as is)
//   2. With --from-template, a new workbook whose header row lists every
//      placeholder of the template document except the derived ones
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/docx"
	"github.com/ginjaninja78/contract-generator/internal/generator"
	"github.com/ginjaninja78/contract-generator/internal/types"
	"github.com/ginjaninja78/contract-generator/internal/xlsxparser"
	"github.com/ginjaninja78/contract-generator/pkg/utils"
)

var (
	exampleOut   string
	fromTemplate bool
)

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Write the example spreadsheet for a template",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExample(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exampleCmd)

	addTemplateFlag(exampleCmd)
	exampleCmd.Flags().StringVarP(&exampleOut, "output", "o", "", "Destination path (default: the example file name in the current directory)")
	exampleCmd.Flags().BoolVar(&fromTemplate, "from-template", false, "Build the spreadsheet from the template's placeholders")
}

func runExample(cmd *cobra.Command) error {
	tmpl, err := resolveTemplate(cmd.Context(), templateKey)
	if err != nil {
		return err
	}

	dst := exampleOut
	if dst == "" {
		dst = filepath.Base(tmpl.ExampleFile)
	}
	dst = utils.UniquePath(dst)

	if fromTemplate {
		err = exampleFromTemplate(tmpl, dst)
	} else {
		err = copyExample(tmpl, dst)
	}
	if err != nil {
		return err
	}

	logger.Info("example written")
	fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %s -> %s\n", tmpl.Name, dst)
	return nil
}

func copyExample(tmpl *config.TemplateConfig, dst string) error {
	src := mainConfig.ExamplePath(tmpl)
	if !utils.FileExists(src) {
		return fmt.Errorf("%w: %s is missing from %s (use --from-template to build one)",
			generator.ErrExampleNotFound, tmpl.ExampleFile, mainConfig.DataDir)
	}
	return utils.CopyFile(src, dst)
}

// exampleFromTemplate writes a workbook whose columns are the placeholders
// the user has to supply.
func exampleFromTemplate(tmpl *config.TemplateConfig, dst string) error {
	path := mainConfig.TemplatePath(tmpl)
	if !utils.FileExists(path) {
		return fmt.Errorf("template file for %q is missing; place %s in %s", tmpl.Name, tmpl.File, mainConfig.TemplatesDir)
	}

	doc, err := docx.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open template: %w", err)
	}

	headers := ExampleHeaders(doc.Placeholders(), mainConfig.ComputedKeys())
	if len(headers) == 0 {
		return fmt.Errorf("template %s contains no placeholders", tmpl.File)
	}
	return xlsxparser.WriteExample(dst, headers, xlsxparser.ExampleOptions{})
}

// ExampleHeaders returns the column names for placeholders, skipping the
// computed ones.
func ExampleHeaders(placeholders []string, computed map[string]bool) []string {
	var headers []string
	for _, p := range placeholders {
		if computed[p] {
			continue
		}
		headers = append(headers, types.StripPlaceholder(p))
	}
	return headers
}
