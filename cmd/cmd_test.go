package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/docx/docxtest"
	"github.com/ginjaninja78/contract-generator/internal/generator"
	"github.com/ginjaninja78/contract-generator/internal/prompt"
)

type env struct {
	cfgPath   string
	templates string
	data      string
	output    string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := t.TempDir()
	e := &env{
		cfgPath:   filepath.Join(dir, "config.yaml"),
		templates: filepath.Join(dir, "templates"),
		data:      filepath.Join(dir, "data"),
		output:    filepath.Join(dir, "output"),
	}
	require.NoError(t, os.MkdirAll(e.templates, 0755))
	require.NoError(t, os.MkdirAll(e.data, 0755))

	yaml := fmt.Sprintf("templates_dir: %q\ndata_dir: %q\noutput_dir: %q\nlog_level: error\n", e.templates, e.data, e.output)
	require.NoError(t, os.WriteFile(e.cfgPath, []byte(yaml), 0644))
	return e
}

func (e *env) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	templateKey, inputPath, outputDir, genDate, dryRun = "", "", "", "", false
	exampleOut, fromTemplate, validateLog, initDirs = "", false, "", false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--config", e.cfgPath))
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeRows(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "rows.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var workerRows = [][]interface{}{
	{"이름", "계약명", "계약시작일", "계약마감일"},
	{"홍길동", "촬영", "2024-01-01", "2024-01-10"},
}

func TestGenerateCommand(t *testing.T) {
	e := newEnv(t)
	docxtest.WriteFile(t, e.templates, "Temporary Worker.docx", docxtest.Para(docxtest.Run("{이름} {근무일}")))
	input := writeRows(t, workerRows)

	out, err := e.execute(t, "generate", "-t", "temporary-worker", "-i", input, "--date", "2024-03-15")
	require.NoError(t, err)

	assert.Contains(t, out, "Template: 일용직 근로자 계약서")
	assert.Contains(t, out, "✓ row 2 -> 20240315_홍길동_촬영.docx")
	assert.Contains(t, out, "Documents:       1")
	assert.Contains(t, out, " KB)")
	assert.FileExists(t, filepath.Join(e.output, "20240315_일용직 근로자 계약서_1.zip"))
}

func TestGenerateCommandDryRunAndOutputDir(t *testing.T) {
	e := newEnv(t)
	docxtest.WriteFile(t, e.templates, "Temporary Worker.docx", docxtest.Para(docxtest.Run("{이름}")))
	input := writeRows(t, workerRows)
	other := t.TempDir()

	out, err := e.execute(t, "generate", "-t", "temporary-worker", "-i", input, "-o", other, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Dry Run Complete ===")
	assert.Contains(t, out, "(not written)")

	entries, err := os.ReadDir(other)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateCommandErrors(t *testing.T) {
	e := newEnv(t)
	input := writeRows(t, workerRows)

	_, err := e.execute(t, "generate", "-t", "temporary-worker", "-i", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Temporary Worker.docx")
	assert.Contains(t, err.Error(), "is missing")

	_, err = e.execute(t, "generate", "-t", "nope", "-i", input)
	assert.ErrorIs(t, err, config.ErrUnknownTemplate)
	assert.Contains(t, userMessage(err), "contractgen templates")

	docxtest.WriteFile(t, e.templates, "Temporary Worker.docx", docxtest.Para(docxtest.Run("{이름}")))
	_, err = e.execute(t, "generate", "-t", "temporary-worker", "-i", input, "--date", "15/03/2024")
	assert.ErrorContains(t, err, "invalid --date")

	empty := writeRows(t, [][]interface{}{{"이름"}})
	_, err = e.execute(t, "generate", "-t", "temporary-worker", "-i", empty)
	assert.ErrorContains(t, err, "contains no data rows")
}

type stubSelector struct{ index int }

func (s stubSelector) Select(context.Context, prompt.SelectConfig) (int, error) {
	return s.index, nil
}

func TestGenerateCommandPrompt(t *testing.T) {
	e := newEnv(t)
	docxtest.WriteFile(t, e.templates, "Temporary Worker.docx", docxtest.Para(docxtest.Run("{이름}")))
	input := writeRows(t, workerRows)

	oldInteractive, oldSelector := interactive, selector
	t.Cleanup(func() { interactive, selector = oldInteractive, oldSelector })

	interactive = func() bool { return false }
	_, err := e.execute(t, "generate", "-i", input)
	assert.ErrorIs(t, err, prompt.ErrNotInteractive)

	interactive = func() bool { return true }
	selector = stubSelector{index: 1}
	out, err := e.execute(t, "generate", "-i", input, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Template: 일용직 근로자 계약서")
}

func TestValidateCommand(t *testing.T) {
	e := newEnv(t)
	docxtest.WriteFile(t, e.templates, "Temporary Worker.docx", docxtest.Para(docxtest.Run("{이름} {주소}")))
	input := writeRows(t, [][]interface{}{
		{"이름", "계약명", "계약시작일"},
		{"홍길동", "촬영", "언젠가"},
	})

	logPath := filepath.Join(t.TempDir(), "findings.txt")
	out, err := e.execute(t, "validate", "-t", "temporary-worker", "-i", input, "--log", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Field '{주소}'")
	assert.Contains(t, out, "(value: '언젠가')")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Contract Generator - Validation Log")
	assert.Contains(t, string(data), "{주소}")

	empty := writeRows(t, [][]interface{}{{"이름"}})
	_, err = e.execute(t, "validate", "-t", "temporary-worker", "-i", empty)
	assert.ErrorContains(t, err, "validation failed")
}

func TestTemplatesCommand(t *testing.T) {
	e := newEnv(t)
	docxtest.WriteFile(t, e.templates, "Bonus Payment.docx", docxtest.Para(docxtest.Run("{이름}")))
	docxtest.WriteFile(t, e.templates, "Lecture.docx", docxtest.Para(docxtest.Run("{이름}")))

	out, err := e.execute(t, "templates")
	require.NoError(t, err)

	assert.Contains(t, out, "general-service")
	assert.Contains(t, out, "상금지급 약정서")
	assert.Contains(t, out, "Not in the menu")
	assert.Contains(t, out, "  Lecture.docx")
	assert.NotContains(t, out, "  Bonus Payment.docx\n")
}

func TestTemplatesCommandInit(t *testing.T) {
	e := newEnv(t)

	_, err := e.execute(t, "templates", "--init")
	require.NoError(t, err)
	assert.DirExists(t, e.output)
}

func TestExampleCommandCopy(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.data, "Bonus Payment_Template.xlsx"), []byte("workbook"), 0644))
	dst := filepath.Join(t.TempDir(), "mine.xlsx")

	out, err := e.execute(t, "example", "-t", "bonus-payment", "-o", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 상금지급 약정서 -> "+dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(data))

	_, err = e.execute(t, "example", "-t", "general-service", "-o", dst)
	assert.ErrorIs(t, err, generator.ErrExampleNotFound)
}

func TestExampleCommandFromTemplate(t *testing.T) {
	e := newEnv(t)
	docxtest.WriteFile(t, e.templates, "Temporary Worker.docx",
		docxtest.Para(docxtest.Run("{이름} {주민등록번호} {생년월일} {계약시작일} {근무일} {오늘날짜}")))
	dst := filepath.Join(t.TempDir(), "example.xlsx")

	_, err := e.execute(t, "example", "-t", "temporary-worker", "-o", dst, "--from-template")
	require.NoError(t, err)

	f, err := excelize.OpenFile(dst)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"이름", "주민등록번호", "계약시작일"}, rows[0])
}

func TestVersionCommand(t *testing.T) {
	e := newEnv(t)
	out, err := e.execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Contract Generator (contractgen)")
	assert.Contains(t, out, "Version:    "+Version)
}

func TestBuildLogger(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "warn"

	l, err := buildLogger(cfg, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = buildLogger(cfg, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	cfg.LogLevel = "loud"
	_, err = buildLogger(cfg, false)
	assert.Error(t, err)
}

func TestExampleHeaders(t *testing.T) {
	computed := map[string]bool{"{생년월일}": true}
	assert.Equal(t, []string{"이름", "주민등록번호"},
		ExampleHeaders([]string{"{이름}", "{생년월일}", "{주민등록번호}"}, computed))
	assert.Empty(t, ExampleHeaders(nil, computed))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "cancelled", userMessage(fmt.Errorf("select: %w", prompt.ErrAborted)))
	assert.Equal(t, "boom", userMessage(fmt.Errorf("boom")))
}
