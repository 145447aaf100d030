// =============================================================================
// Contract Generator - Templates Command
// =============================================================================
//
// The 'templates' command prints the template menu and whether each
// template document and example spreadsheet is present. With --init it first
// creates the templates, data and output directories.
//
// OUTPUT:
//   KEY                NAME                 TEMPLATE  EXAMPLE
//   temporary-worker   일용직 근로자 계약서    ✓         ✗
//
// =============================================================================

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/contract-generator/pkg/utils"
)

// initDirs creates the working directories before listing.
var initDirs bool

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the template menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTemplates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)

	templatesCmd.Flags().BoolVar(&initDirs, "init", false, "Create the templates, data and output directories")
}

func runTemplates(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fm := utils.NewFileManager(mainConfig.TemplatesDir, mainConfig.DataDir, mainConfig.OutputDir)

	if initDirs {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		logger.Info("directories ready")
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tTEMPLATE\tEXAMPLE")

	inMenu := make(map[string]bool, len(mainConfig.Templates))
	for i := range mainConfig.Templates {
		t := &mainConfig.Templates[i]
		inMenu[t.File] = true
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			t.Key,
			t.Name,
			mark(utils.FileExists(mainConfig.TemplatePath(t))),
			mark(utils.FileExists(mainConfig.ExamplePath(t))))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	files, err := fm.DiscoverTemplates()
	if err != nil {
		return err
	}

	var extra []string
	for _, f := range files {
		if !inMenu[f] {
			extra = append(extra, f)
		}
	}
	if len(extra) > 0 {
		fmt.Fprintf(out, "\nNot in the menu (%s):\n", mainConfig.TemplatesDir)
		for _, f := range extra {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	return nil
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
