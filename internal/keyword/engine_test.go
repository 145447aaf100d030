package keyword

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/contract-generator/internal/config"
	"github.com/ginjaninja78/contract-generator/internal/types"
)

func newTestEngine() *Engine {
	e := NewEngine(config.Default(), nil)
	e.Now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local) }
	return e
}

func row(pairs ...string) types.Row {
	r := types.Row{Number: 2}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Keywords = append(r.Keywords, types.Keyword{Key: pairs[i], Value: pairs[i+1]})
	}
	return r
}

func TestEnginePlanOrder(t *testing.T) {
	e := newTestEngine()
	r := row(
		"{이름}", "홍길동",
		"{계약시작일}", "2024/01/01",
		"{납품금액}", "1500000",
		"{메모}", "비고",
	)

	plan := e.Plan(r)
	require.GreaterOrEqual(t, len(plan), 4)

	want := []Substitution{
		{Key: "{이름}", Value: "홍길동"},
		{Key: "{계약시작일}", Value: "2024-01-01"},
		{Key: "{납품금액}", Value: "1,500,000"},
		{Key: "{메모}", Value: "비고"},
	}
	if diff := cmp.Diff(want, plan[:4]); diff != "" {
		t.Errorf("row pass mismatch (-want +got):\n%s", diff)
	}

	for _, sub := range plan[4:] {
		assert.True(t, sub.Derived, sub.Key)
	}
}

func TestEngineFallbacks(t *testing.T) {
	e := newTestEngine()

	value, ok := e.FormatValue("{계약마감일}", "미정")
	assert.False(t, ok)
	assert.Equal(t, "미정", value)

	value, ok = e.FormatValue("{상금}", "협의")
	assert.False(t, ok)
	assert.Equal(t, "협의", value)

	value, ok = e.FormatValue("{상금}", "")
	assert.True(t, ok)
	assert.Equal(t, "", value)

	value, ok = e.FormatValue("{이름}", "2024-01-01")
	assert.True(t, ok)
	assert.Equal(t, "2024-01-01", value)
}

func TestEngineApply(t *testing.T) {
	e := newTestEngine()
	doc := NewText("계약자 {이름} ({생년월일}) / 기간 {근무일} / 금액 {납품금액}원 (금 {납품금액한글}원) / 작성일 {오늘날짜} / {없는키}")

	r := row(
		"{이름}", "홍길동",
		"{주민등록번호}", "990101-1234567",
		"{계약시작일}", "2024-01-01",
		"{계약마감일}", "2024-01-10",
		"{납품금액}", "1,500,000",
	)

	report := e.Apply(doc, r)

	assert.Equal(t,
		"계약자 홍길동 (1999.01.01) / 기간 2024-01-01 ~ 2024-01-10 (10일간) / 금액 1,500,000원 (금 일백오십만원) / 작성일 2024-03-15 / {없는키}",
		doc.String(),
	)
	assert.Equal(t, 1, report.Replaced["{이름}"])
	assert.Equal(t, 1, report.Replaced["{근무일}"])
	assert.Equal(t, 6, report.Total())
	assert.Empty(t, report.Fallbacks)
}

func TestEngineRowPassWinsOverDerived(t *testing.T) {
	e := newTestEngine()
	doc := NewText("{일시} / {계약시작일}")

	report := e.Apply(doc, row("{일시}", "2024-05-01 14:00:00", "{계약시작일}", "다음주"))

	assert.Equal(t, "2024-05-01 / 다음주", doc.String())
	assert.Equal(t, []string{"{계약시작일}"}, report.Fallbacks)
}

func TestEngineDerivedDefaults(t *testing.T) {
	e := newTestEngine()
	doc := NewText("[{상금한글}] [{근무일}] [{생년월일}] [{과업일자}]")

	e.Apply(doc, row("{이름}", "김철수"))

	assert.Equal(t, "[] [날짜 형식 오류] [] []", doc.String())
}

func TestEngineTemplateFields(t *testing.T) {
	cfg := config.Default()
	tmpl := &config.TemplateConfig{Key: "x", File: "x.docx", DateFields: []string{"{착수일}"}, NumberFields: []string{"{보증금}"}}

	e := NewEngine(cfg, tmpl)
	assert.True(t, e.IsDateField("{착수일}"))
	assert.True(t, e.IsDateField("{계약시작일}"))
	assert.True(t, e.IsNumberField("{보증금}"))
	assert.False(t, e.IsNumberField("{이름}"))
	assert.Contains(t, e.DerivedKeys(), "{근무일}")
}

func TestTextReplace(t *testing.T) {
	txt := NewText("{a}-{a}-{b}")
	assert.Equal(t, 2, txt.Replace("{a}", "x"))
	assert.Equal(t, 0, txt.Replace("{c}", "y"))
	assert.Equal(t, 0, txt.Replace("", "y"))
	assert.Equal(t, "x-x-{b}", txt.String())
}
