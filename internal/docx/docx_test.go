package docx_test

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/contract-generator/internal/docx"
	"github.com/ginjaninja78/contract-generator/internal/docx/docxtest"
)

func readEntry(t *testing.T, data []byte, name string) string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func roundTrip(t *testing.T, doc *docx.Document) ([]byte, *docx.Document) {
	t.Helper()

	data, err := doc.Bytes()
	require.NoError(t, err)
	reopened, err := docx.OpenBytes(data)
	require.NoError(t, err)
	return data, reopened
}

func TestReplaceAcrossRuns(t *testing.T) {
	body := docxtest.Para(
		docxtest.Run("계약자: {이"),
		docxtest.BoldRun("름"),
		docxtest.Run("} 님"),
		docxtest.BoldRun(" (서명)"),
	)
	doc, err := docx.OpenBytes(docxtest.Build(t, body))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Replace("{이름}", "홍길동"))

	data, reopened := roundTrip(t, doc)
	paragraphs := reopened.Paragraphs()
	require.Len(t, paragraphs, 1)
	assert.Equal(t, "계약자: 홍길동 님 (서명)", paragraphs[0].Text())

	xml := readEntry(t, data, "word/document.xml")
	assert.Contains(t, xml, `<w:t xml:space="preserve">계약자: 홍길동</w:t>`)
	assert.Contains(t, xml, `<w:rPr><w:b/></w:rPr><w:t xml:space="preserve"> (서명)</w:t>`)
	assert.Contains(t, xml, `<w:t xml:space="preserve"> 님</w:t>`)
}

func TestReplaceMultipleOccurrences(t *testing.T) {
	body := docxtest.Para(docxtest.Run("{a}와 {a}"), docxtest.Run(" 그리고 {"), docxtest.Run("a}"))
	doc, err := docx.OpenBytes(docxtest.Build(t, body))
	require.NoError(t, err)

	assert.Equal(t, 3, doc.Replace("{a}", "[{a}]"))
	assert.Equal(t, "[{a}]와 [{a}] 그리고 [{a}]", doc.Paragraphs()[0].Text())

	assert.Equal(t, 0, doc.Replace("{없음}", "x"))
	assert.Equal(t, 0, doc.Replace("", "x"))
}

func TestReplaceControlCharacters(t *testing.T) {
	doc, err := docx.OpenBytes(docxtest.Build(t, docxtest.Para(docxtest.Run("주소: {주소}"))))
	require.NoError(t, err)

	require.Equal(t, 1, doc.Replace("{주소}", "서울\n강남구\t1층"))

	data, reopened := roundTrip(t, doc)
	assert.Equal(t, "주소: 서울강남구1층", reopened.Paragraphs()[0].Text())

	xml := readEntry(t, data, "word/document.xml")
	assert.Contains(t, xml,
		`<w:r><w:t xml:space="preserve">주소: 서울</w:t><w:br/><w:t xml:space="preserve">강남구</w:t><w:tab/><w:t xml:space="preserve">1층</w:t></w:r>`)
}

func TestReplaceEscapesMarkup(t *testing.T) {
	doc, err := docx.OpenBytes(docxtest.Build(t, docxtest.Para(docxtest.Run("{회사}"))))
	require.NoError(t, err)

	doc.Replace("{회사}", `A & B <"C">`)

	_, reopened := roundTrip(t, doc)
	assert.Equal(t, `A & B <"C">`, reopened.Paragraphs()[0].Text())
}

func TestTablesAndNestedRuns(t *testing.T) {
	body := docxtest.Para(docxtest.Run("본문 {이름}")) +
		docxtest.Table([]string{"성명", "{이름}"}, []string{"금액", "{금액}"}) +
		`<w:p><w:hyperlink r:id="rId9"><w:r><w:t>{링크}</w:t></w:r></w:hyperlink></w:p>` +
		`<w:sdt><w:sdtContent><w:p><w:ins w:id="1" w:author="x"><w:r><w:t>{수정}</w:t></w:r></w:ins></w:p></w:sdtContent></w:sdt>`

	doc, err := docx.OpenBytes(docxtest.Build(t, body))
	require.NoError(t, err)

	paragraphs := doc.Paragraphs()
	require.Len(t, paragraphs, 3)
	assert.Equal(t, "{링크}", paragraphs[1].Text())
	assert.Equal(t, "{수정}", paragraphs[2].Text())

	tables := doc.Tables()
	require.Len(t, tables, 1)
	rows := tables[0].Rows()
	require.Len(t, rows, 2)
	cells := rows[1].Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, "{금액}", cells[1].Text())
	assert.Empty(t, cells[1].Tables())

	assert.Equal(t, 2, doc.Replace("{이름}", "홍길동"))
	assert.Equal(t, 1, doc.Replace("{링크}", "https://example.com"))
	assert.Equal(t, "홍길동", rows[0].Cells()[1].Text())
	assert.Equal(t, "https://example.com", paragraphs[1].Text())
}

func TestNestedTables(t *testing.T) {
	inner := docxtest.Table([]string{"{내부}"})
	body := `<w:tbl><w:tr><w:tc>` + docxtest.Para(docxtest.Run("바깥")) + inner + `</w:tc></w:tr></w:tbl>`

	doc, err := docx.OpenBytes(docxtest.Build(t, body))
	require.NoError(t, err)

	cell := doc.Tables()[0].Rows()[0].Cells()[0]
	require.Len(t, cell.Tables(), 1)
	assert.Equal(t, "{내부}", cell.Tables()[0].Rows()[0].Cells()[0].Text())
	assert.Equal(t, 1, doc.Replace("{내부}", "값"))
}

func TestHeadersAndPlaceholders(t *testing.T) {
	body := docxtest.Para(docxtest.Run("{이름} / {계약명}")) +
		docxtest.Para(docxtest.Run("{이"), docxtest.Run("름} {금액}"))
	data := docxtest.BuildWith(t, body, docxtest.Options{
		Header: docxtest.Para(docxtest.Run("{회사명} 계약서")),
	})

	doc, err := docx.OpenBytes(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"word/document.xml", "word/header1.xml"}, doc.Parts())

	want := []string{"{이름}", "{계약명}", "{금액}", "{회사명}"}
	if diff := cmp.Diff(want, doc.Placeholders()); diff != "" {
		t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1, doc.Replace("{회사명}", "(주)한빛"))
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, readEntry(t, out, "word/header1.xml"), "(주)한빛 계약서")
}

func TestWriteCopiesUntouchedEntries(t *testing.T) {
	src := docxtest.Build(t, docxtest.Para(docxtest.Run("{이름}")))
	doc, err := docx.OpenBytes(src)
	require.NoError(t, err)

	unchanged, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, readEntry(t, src, "word/document.xml"), readEntry(t, unchanged, "word/document.xml"))

	doc.Replace("{이름}", "홍길동")
	out, err := doc.Bytes()
	require.NoError(t, err)

	assert.Equal(t, readEntry(t, src, "[Content_Types].xml"), readEntry(t, out, "[Content_Types].xml"))
	assert.Equal(t, readEntry(t, src, "_rels/.rels"), readEntry(t, out, "_rels/.rels"))

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"}, names)

	xml := readEntry(t, out, "word/document.xml")
	assert.Contains(t, xml, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	assert.Contains(t, xml, `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`)
	assert.Contains(t, xml, `<w:pgSz w:w="11906" w:h="16838"/>`)
}

func TestOpenInvalid(t *testing.T) {
	_, err := docx.OpenBytes([]byte("not a zip"))
	assert.ErrorIs(t, err, docx.ErrInvalidDocument)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<w:styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = docx.OpenBytes(buf.Bytes())
	assert.ErrorIs(t, err, docx.ErrInvalidDocument)

	_, err = docx.OpenBytes(docxtest.Build(t, "<w:p><w:r>"))
	assert.ErrorIs(t, err, docx.ErrInvalidDocument)
}

func TestOpenFromDisk(t *testing.T) {
	p := docxtest.WriteFile(t, t.TempDir(), "계약서.docx", docxtest.Para(docxtest.Run("{이름}")))

	doc, err := docx.Open(p)
	require.NoError(t, err)
	assert.Equal(t, "{이름}", doc.Text())

	_, err = docx.Open(p + ".missing")
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	p := docxtest.WriteFile(t, t.TempDir(), "계약서.docx", docxtest.Para(docxtest.Run("{이름} 님")))

	doc, err := docx.Open(p)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Replace("{이름}", "홍길동"))

	out := filepath.Join(t.TempDir(), "홍길동.docx")
	require.NoError(t, doc.Save(out))

	saved, err := docx.Open(out)
	require.NoError(t, err)
	assert.Equal(t, "홍길동 님", saved.Text())

	err = doc.Save(filepath.Join(t.TempDir(), "missing", "x.docx"))
	assert.ErrorContains(t, err, "failed to save x.docx")
}
