// Package docxtest builds minimal Word packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/></Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const docRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/></Relationships>`

const (
	docOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>`
	docClose = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`

	headerOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`
	headerClose = `</w:hdr>`
)

// Options tunes the generated package.
type Options struct {
	// Header is the inner XML of word/header1.xml. No header part is
	// written when empty.
	Header string
}

// Build returns a .docx package whose body holds bodyXML.
func Build(t testing.TB, bodyXML string) []byte {
	t.Helper()
	return BuildWith(t, bodyXML, Options{})
}

// BuildWith is Build with options.
func BuildWith(t testing.TB, bodyXML string, opts Options) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{"word/document.xml", docOpen + bodyXML + docClose},
	}
	if opts.Header != "" {
		entries = append(entries,
			struct {
				name string
				data string
			}{"word/_rels/document.xml.rels", docRels},
			struct {
				name string
				data string
			}{"word/header1.xml", headerOpen + opts.Header + headerClose},
		)
	}

	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("docxtest: create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.data)); err != nil {
			t.Fatalf("docxtest: write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("docxtest: close: %v", err)
	}
	return buf.Bytes()
}

// WriteFile builds a package and stores it at dir/name.
func WriteFile(t testing.TB, dir, name, bodyXML string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, Build(t, bodyXML), 0644); err != nil {
		t.Fatalf("docxtest: write file: %v", err)
	}
	return p
}

// Para wraps runs in a paragraph.
func Para(runs ...string) string {
	var b bytes.Buffer
	b.WriteString("<w:p>")
	for _, r := range runs {
		b.WriteString(r)
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Run returns a plain run holding text.
func Run(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// BoldRun returns a bold run holding text.
func BoldRun(text string) string {
	return `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// Table returns a table whose cells hold the given paragraph text.
func Table(rows ...[]string) string {
	var b bytes.Buffer
	b.WriteString("<w:tbl>")
	for _, row := range rows {
		b.WriteString("<w:tr>")
		for _, cell := range row {
			b.WriteString("<w:tc>")
			b.WriteString(Para(Run(cell)))
			b.WriteString("</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}
