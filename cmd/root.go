// =============================================================================
// Contract Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (contractgen)
//   ├── generateCmd  (contractgen generate)
//   ├── validateCmd  (contractgen validate)
//   ├── templatesCmd (contractgen templates)
//   ├── exampleCmd   (contractgen example)
//   └── versionCmd   (contractgen version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading config.yaml (or the built-in defaults)
//   3. Building the zap logger used by every subcommand
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/prompt"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig is loaded in PersistentPreRunE.
var mainConfig *config.MainConfig

// logger is built in PersistentPreRunE and synced in PersistentPostRun.
var logger = zap.NewNop()

// selector asks for a template when --template is omitted.
var selector prompt.Selector = prompt.Survey{}

// interactive reports whether prompting is possible.
var interactive = func() bool { return prompt.IsInteractive(os.Stdin) }

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "contractgen",
	Short: "Contract Generator - Fill Korean contract templates from a spreadsheet",
	Long: `contractgen fills a .docx contract template once per spreadsheet row and
packages the resulting documents into a single .zip archive.

Key Features:
  - Fixed menu of contract templates (config.yaml)
  - Placeholders such as {이름} filled from spreadsheet columns
  - Derived values: Korean numerals, birth dates, work periods
  - Validation warnings for malformed dates, numbers and IDs
  - Example spreadsheets for every template

Example Usage:
  contractgen templates                                   # List the template menu
  contractgen example -t temporary-worker                 # Fetch the example spreadsheet
  contractgen generate -t temporary-worker -i rows.xlsx   # Generate the archive
  contractgen validate -t temporary-worker -i rows.xlsx   # Check the spreadsheet only`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}

		cfg, err := config.LoadMainConfig(cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		mainConfig = cfg

		logger, err = buildLogger(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// buildLogger creates the process logger.
//
// PARAMETERS:
//   - cfg:     Supplies log_level and log_file.
//   - verbose: Forces the debug level.
//
// RETURNS:
//   - A production zap logger writing JSON to stderr (and log_file).
func buildLogger(cfg *config.MainConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if cfg.LogFile != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.LogFile)
	}
	return zc.Build()
}

// resolveTemplate finds the template named by key, or asks for one when key
// is empty and stdin is a terminal.
func resolveTemplate(ctx context.Context, key string) (*config.TemplateConfig, error) {
	if key != "" {
		return mainConfig.FindTemplate(key)
	}
	if !interactive() {
		return nil, fmt.Errorf("%w: pass --template", prompt.ErrNotInteractive)
	}
	return prompt.ChooseTemplate(ctx, selector, mainConfig.Templates)
}

// userMessage turns known errors into a short explanation.
func userMessage(err error) string {
	switch {
	case errors.Is(err, prompt.ErrAborted):
		return "cancelled"
	case errors.Is(err, config.ErrUnknownTemplate):
		return fmt.Sprintf("%v (run 'contractgen templates' to list the menu)", err)
	default:
		return err.Error()
	}
}
