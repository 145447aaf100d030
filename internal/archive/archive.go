// =============================================================================
// Contract Generator - Output Archive
// =============================================================================
//
// All documents of one batch are delivered as a single zip archive:
//
//   <folder>.zip
//   └── <folder>/
//       ├── 20240315_홍길동_촬영 보조.docx
//       ├── 20240315_김철수_촬영 보조.docx
//       └── manifest.yaml          (optional)
//
// Entry names are sanitised and made unique, so two rows that render the same
// file name both survive as "name.docx" and "name (2).docx".
//
// =============================================================================

package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/contract-generator/internal/naming"
)

// ManifestName is the manifest entry inside the batch folder.
const ManifestName = "manifest.yaml"

// CommentPrefix starts the archive comment; the batch ID follows.
const CommentPrefix = "contractgen batch "

// Manifest describes the contents of an archive.
type Manifest struct {
	BatchID     string          `yaml:"batch_id"`
	Template    string          `yaml:"template"`
	Source      string          `yaml:"source"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	Documents   []ManifestEntry `yaml:"documents"`
}

// ManifestEntry maps a source row to the document produced from it.
type ManifestEntry struct {
	Row  int    `yaml:"row"`
	File string `yaml:"file"`
}

// Writer writes a batch archive.
type Writer struct {
	zw      *zip.Writer
	folder  string
	used    map[string]bool
	entries []ManifestEntry

	// Modified is stamped on every entry. Default: time of NewWriter.
	Modified time.Time

	// Unknown replaces names that sanitise to nothing.
	Unknown string
}

// NewWriter starts an archive whose entries live under folder.
func NewWriter(w io.Writer, folder string) *Writer {
	return &Writer{
		zw:       zip.NewWriter(w),
		folder:   naming.Sanitize(folder, "contracts"),
		used:     make(map[string]bool),
		Modified: time.Now(),
		Unknown:  "Unknown",
	}
}

// Folder returns the sanitised folder name.
func (a *Writer) Folder() string {
	return a.folder
}

// Entries returns the documents added so far.
func (a *Writer) Entries() []ManifestEntry {
	return append([]ManifestEntry(nil), a.entries...)
}

// Add writes one document.
//
// PARAMETERS:
//   - name:  The desired file name; it is sanitised and de-duplicated.
//   - row:   The source row number, recorded for the manifest.
//   - write: Streams the document body.
//
// RETURNS:
//   - The file name actually used (without the folder).
func (a *Writer) Add(name string, row int, write func(io.Writer) error) (string, error) {
	fileName := a.uniqueName(naming.Sanitize(name, a.Unknown))

	fw, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     a.folder + "/" + fileName,
		Method:   zip.Deflate,
		Modified: a.Modified,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create archive entry %s: %w", fileName, err)
	}
	if err := write(fw); err != nil {
		return "", fmt.Errorf("failed to write archive entry %s: %w", fileName, err)
	}

	a.entries = append(a.entries, ManifestEntry{Row: row, File: fileName})
	return fileName, nil
}

// uniqueName appends " (2)", " (3)" ... before the extension until the name
// is unused. Comparison is case-insensitive.
func (a *Writer) uniqueName(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 2; a.used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	a.used[strings.ToLower(candidate)] = true
	return candidate
}

// WriteManifest adds manifest.yaml listing the documents added so far.
func (a *Writer) WriteManifest(m Manifest) error {
	m.Documents = a.Entries()

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	fw, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     a.folder + "/" + ManifestName,
		Method:   zip.Deflate,
		Modified: a.Modified,
	})
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// SetBatchID records the batch ID in the archive comment.
func (a *Writer) SetBatchID(id string) error {
	if err := a.zw.SetComment(CommentPrefix + id); err != nil {
		return fmt.Errorf("failed to set archive comment: %w", err)
	}
	return nil
}

// Close finishes the archive.
func (a *Writer) Close() error {
	if err := a.zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// BatchID extracts the batch ID from an archive comment.
func BatchID(comment string) (string, bool) {
	if !strings.HasPrefix(comment, CommentPrefix) {
		return "", false
	}
	return strings.TrimPrefix(comment, CommentPrefix), true
}
