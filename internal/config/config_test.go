package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMainConfigMissingDefaultFile(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "config.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, "./templates", cfg.TemplatesDir)
	assert.Equal(t, 22, cfg.BirthYearPivot)
	assert.Len(t, cfg.Templates, 4)
	assert.True(t, *cfg.ContinueOnError)

	general, err := cfg.FindTemplate("general-service")
	require.NoError(t, err)
	assert.Equal(t, "{today}_{사업자명}_{프로젝트명}.docx", general.FilenamePattern)
	assert.Equal(t, "General Service_Template.xlsx", general.ExampleFile)
}

func TestLoadMainConfigMissingRequiredFile(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseMainConfigOverrides(t *testing.T) {
	data := []byte(`
templates_dir: ./tpl
log_level: debug
number_fields: ["{금액}"]
birth_year_pivot: 30
templates:
  - file: Service Order.docx
    date_fields: ["{착수일}"]
`)
	cfg, err := ParseMainConfig(data)
	require.NoError(t, err)

	assert.Equal(t, "./tpl", cfg.TemplatesDir)
	assert.Equal(t, []string{"{금액}"}, cfg.NumberFields)
	assert.Equal(t, 30, cfg.BirthYearPivot)
	require.Len(t, cfg.Templates, 1)

	tmpl := &cfg.Templates[0]
	assert.Equal(t, "service-order", tmpl.Key)
	assert.Equal(t, "Service Order", tmpl.Name)
	assert.Equal(t, "{today}_{template}_{count}", tmpl.FolderPattern)
	assert.Contains(t, cfg.DateFieldsFor(tmpl), "{착수일}")
	assert.Contains(t, cfg.DateFieldsFor(tmpl), "{계약시작일}")
}

func TestParseMainConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"log level", "log_level: loud"},
		{"encoding", "csv: {encoding: latin1}"},
		{"delimiter", "csv: {delimiter: ';;'}"},
		{"template ext", "templates: [{file: a.doc}]"},
		{"duplicate key", "templates: [{key: a, file: a.docx}, {key: a, file: b.docx}]"},
		{"derived kind", "derived: [{key: '{x}', kind: magic}]"},
		{"derived sources", "derived: [{key: '{x}', kind: work_period, sources: ['{a}']}]"},
		{"derived key", "derived: [{key: x, kind: today}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMainConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestTemplatesConfigDirMergesByKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bonus.yaml"), []byte(`
key: bonus-payment
name: 상금지급 약정서 (개정)
file: Bonus Payment v2.docx
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yml"), []byte(`
file: Lecture.docx
`), 0644))

	cfg, err := ParseMainConfig([]byte("templates_config_dir: " + dir))
	require.NoError(t, err)
	require.Len(t, cfg.Templates, 5)

	bonus, err := cfg.FindTemplate("bonus-payment")
	require.NoError(t, err)
	assert.Equal(t, "Bonus Payment v2.docx", bonus.File)

	lecture, err := cfg.FindTemplate("Lecture")
	require.NoError(t, err)
	assert.Equal(t, "lecture", lecture.Key)
}

func TestFindTemplate(t *testing.T) {
	cfg := Default()

	byName, err := cfg.FindTemplate("일용직 근로자 계약서")
	require.NoError(t, err)
	assert.Equal(t, "temporary-worker", byName.Key)

	byKey, err := cfg.FindTemplate("TEMPORARY-WORKER")
	require.NoError(t, err)
	assert.Same(t, byName, byKey)

	_, err = cfg.FindTemplate("missing")
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	assert.Equal(t, filepath.Join("./templates", "Temporary Worker.docx"), cfg.TemplatePath(byKey))
	assert.Equal(t, filepath.Join("./data", "Temporary Worker_Template.xlsx"), cfg.ExamplePath(byKey))
}

func TestComputedKeys(t *testing.T) {
	keys := Default().ComputedKeys()

	assert.True(t, keys["{생년월일}"])
	assert.True(t, keys["{오늘날짜}"])
	assert.True(t, keys["{근무일}"])
	assert.False(t, keys["{계약시작일}"], "date reformat still needs its column")
	assert.False(t, keys["{이름}"])
}
