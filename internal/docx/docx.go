// =============================================================================
// Contract Generator - Word Document Model
// =============================================================================
//
// This package opens .docx packages, exposes their paragraphs and tables, and
// substitutes placeholder text without disturbing formatting.
//
// PACKAGE LAYOUT:
//   A .docx file is a zip archive. Text lives in "story" parts:
//     - word/document.xml    the body
//     - word/header*.xml     page headers
//     - word/footer*.xml     page footers
//   Every other entry (styles, media, relationships ...) is carried through
//   unchanged.
//
// REPLACEMENT MODEL:
//   Word splits a paragraph into runs (w:r) whenever formatting, spell check
//   state or editing history changes, so "{이름}" may be stored as "{이" + "름}".
//   Replace works on the concatenated paragraph text, writes the new value into
//   the first run the match touches and trims the matched characters from the
//   following runs. Run properties are never modified.
//
// =============================================================================

package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
)

// ErrInvalidDocument is returned when the input is not a Word package.
var ErrInvalidDocument = errors.New("not a valid .docx document")

// mainPart is the zip entry holding the document body.
const mainPart = "word/document.xml"

var (
	storyPattern       = regexp.MustCompile(`^word/(header|footer)[0-9]*\.xml$`)
	placeholderPattern = regexp.MustCompile(`\{[^{}\r\n]+\}`)
)

// Document is an opened .docx package.
type Document struct {
	files []*zip.File
	parts map[string]*part

	// order lists story part names: body first, then headers and footers in
	// archive order.
	order []string
}

// part is a parsed story part.
type part struct {
	name  string
	root  *node
	dirty bool
}

// =============================================================================
// OPENING
// =============================================================================

// Open reads a .docx file from disk.
func Open(filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return OpenBytes(data)
}

// OpenBytes parses a .docx package held in memory. The slice must not be
// modified while the Document is in use.
func OpenBytes(data []byte) (*Document, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader parses a .docx package from r.
//
// PARAMETERS:
//   - r:    Random access reader over the package bytes.
//   - size: Total size of the package in bytes.
//
// RETURNS:
//   - The parsed document, or ErrInvalidDocument (wrapped) when r is not a
//     zip archive or has no word/document.xml.
func OpenReader(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc := &Document{
		files: zr.File,
		parts: make(map[string]*part),
	}

	var headers []string
	for _, f := range zr.File {
		switch {
		case f.Name == mainPart:
		case storyPattern.MatchString(f.Name):
			headers = append(headers, f.Name)
		default:
			continue
		}

		p, err := loadPart(f)
		if err != nil {
			return nil, err
		}
		doc.parts[f.Name] = p
	}

	if _, ok := doc.parts[mainPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidDocument, mainPart)
	}
	doc.order = append([]string{mainPart}, headers...)

	return doc, nil
}

func loadPart(f *zip.File) (*part, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}

	root, err := parseTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, f.Name, err)
	}
	return &part{name: f.Name, root: root}, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Parts returns the story part names in processing order.
func (d *Document) Parts() []string {
	return append([]string(nil), d.order...)
}

// Paragraphs returns the body paragraphs that are not inside a table.
// Paragraphs wrapped in content controls (w:sdt) are included.
func (d *Document) Paragraphs() []*Paragraph {
	body := d.body()
	if body == nil {
		return nil
	}

	var out []*Paragraph
	collectBlocks(body, func(n *node) {
		if n.is("w", "p") {
			out = append(out, &Paragraph{n: n, part: d.parts[mainPart]})
		}
	})
	return out
}

// Tables returns the top-level tables of the body.
func (d *Document) Tables() []*Table {
	body := d.body()
	if body == nil {
		return nil
	}

	var out []*Table
	collectBlocks(body, func(n *node) {
		if n.is("w", "tbl") {
			out = append(out, &Table{n: n, part: d.parts[mainPart]})
		}
	})
	return out
}

// AllParagraphs returns every paragraph of every story part: body text,
// table cells, text boxes, headers and footers.
func (d *Document) AllParagraphs() []*Paragraph {
	var out []*Paragraph
	for _, name := range d.order {
		p := d.parts[name]
		p.root.walk(func(n *node) bool {
			if n.is("w", "p") {
				out = append(out, &Paragraph{n: n, part: p})
			}
			return true
		})
	}
	return out
}

// Text returns the document text, one paragraph per line.
func (d *Document) Text() string {
	paragraphs := d.AllParagraphs()
	lines := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

// Placeholders lists the distinct "{...}" tokens in the document in order of
// first appearance.
func (d *Document) Placeholders() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range d.AllParagraphs() {
		for _, m := range placeholderPattern.FindAllString(p.Text(), -1) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func (d *Document) body() *node {
	var body *node
	d.parts[mainPart].root.walk(func(n *node) bool {
		if body != nil {
			return false
		}
		if n.is("w", "body") {
			body = n
			return false
		}
		return true
	})
	return body
}

// collectBlocks visits the block-level children of a container, descending
// into content controls.
func collectBlocks(container *node, fn func(*node)) {
	for _, c := range container.children {
		if c.is("w", "sdt") {
			for _, sc := range c.children {
				if sc.is("w", "sdtContent") {
					collectBlocks(sc, fn)
				}
			}
			continue
		}
		fn(c)
	}
}

// =============================================================================
// REPLACEMENT
// =============================================================================

// Replace substitutes every occurrence of old with new in all story parts and
// returns the number of occurrences replaced.
func (d *Document) Replace(old, new string) int {
	if old == "" {
		return 0
	}

	total := 0
	for _, p := range d.AllParagraphs() {
		total += p.Replace(old, new)
	}
	return total
}

// =============================================================================
// WRITING
// =============================================================================

// Write emits the package. Entries whose XML was not modified are copied
// without recompression.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, f := range d.files {
		p, ok := d.parts[f.Name]
		if !ok || !p.dirty {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("failed to copy %s: %w", f.Name, err)
			}
			continue
		}

		header := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.Name, err)
		}
		if _, err := fw.Write(p.root.render()); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize document: %w", err)
	}
	return nil
}

// Bytes returns the package as a byte slice.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the package to filePath.
func (d *Document) Save(filePath string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", path.Base(filePath), err)
	}
	return nil
}
