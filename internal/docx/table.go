package docx

import "strings"

// Table is a w:tbl element.
type Table struct {
	n    *node
	part *part
}

// TableRow is a w:tr element.
type TableRow struct {
	n    *node
	part *part
}

// Cell is a w:tc element.
type Cell struct {
	n    *node
	part *part
}

// Rows returns the table rows.
func (t *Table) Rows() []*TableRow {
	var out []*TableRow
	collectBlocks(t.n, func(n *node) {
		if n.is("w", "tr") {
			out = append(out, &TableRow{n: n, part: t.part})
		}
	})
	return out
}

// Cells returns the cells of the row.
func (r *TableRow) Cells() []*Cell {
	var out []*Cell
	collectBlocks(r.n, func(n *node) {
		if n.is("w", "tc") {
			out = append(out, &Cell{n: n, part: r.part})
		}
	})
	return out
}

// Paragraphs returns the paragraphs directly inside the cell.
func (c *Cell) Paragraphs() []*Paragraph {
	var out []*Paragraph
	collectBlocks(c.n, func(n *node) {
		if n.is("w", "p") {
			out = append(out, &Paragraph{n: n, part: c.part})
		}
	})
	return out
}

// Tables returns the tables nested in the cell.
func (c *Cell) Tables() []*Table {
	var out []*Table
	collectBlocks(c.n, func(n *node) {
		if n.is("w", "tbl") {
			out = append(out, &Table{n: n, part: c.part})
		}
	})
	return out
}

// Text returns the cell's paragraph text joined by newlines.
func (c *Cell) Text() string {
	paragraphs := c.Paragraphs()
	lines := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}
