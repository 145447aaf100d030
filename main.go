// =============================================================================
// Contract Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   contractgen generate    - Fill a template once per spreadsheet row
//   contractgen validate    - Check a spreadsheet without generating
//   contractgen templates   - List the template menu
//   contractgen example     - Write a template's example spreadsheet
//   contractgen version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : Cobra command definitions
//   - internal/      : Core logic (config, keyword engine, docx, parsers,
//                      validation, archive, generator, prompt)
//   - pkg/utils      : File management helpers
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/contract-generator/cmd"
)

func main() {
	cmd.Execute()
}
