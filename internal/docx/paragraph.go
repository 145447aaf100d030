package docx

import (
	"strings"
)

// Paragraph is a w:p element.
type Paragraph struct {
	n    *node
	part *part
}

// Text returns the paragraph text: the w:t content of all runs, including
// runs nested in hyperlinks, insertions, smart tags and simple fields.
// Nested paragraphs (text boxes) are not included.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, t := range p.segments() {
		b.WriteString(t.text())
	}
	return b.String()
}

// Replace substitutes every occurrence of old in the paragraph text and
// returns the number of occurrences.
//
// A match spanning several runs is written into the first run it touches and
// the matched characters are removed from the others, so the runs around the
// placeholder keep their properties. Newlines in new become w:br and tabs
// become w:tab.
func (p *Paragraph) Replace(old, new string) int {
	if old == "" {
		return 0
	}

	segs := p.segments()
	if len(segs) == 0 {
		return 0
	}

	texts := make([]string, len(segs))
	for i, t := range segs {
		texts[i] = t.text()
	}
	if !strings.Contains(strings.Join(texts, ""), old) {
		return 0
	}

	touched := make([]bool, len(segs))
	count := 0
	from := 0

	for {
		full := strings.Join(texts, "")
		idx := strings.Index(full[from:], old)
		if idx < 0 {
			break
		}
		start := from + idx
		end := start + len(old)

		pos := 0
		for i := range texts {
			segStart := pos
			segEnd := pos + len(texts[i])
			pos = segEnd

			if segEnd <= start {
				continue
			}
			if segStart >= end {
				break
			}

			if segStart <= start {
				head := texts[i][:start-segStart]
				if end <= segEnd {
					texts[i] = head + new + texts[i][end-segStart:]
				} else {
					texts[i] = head + new
				}
			} else if end >= segEnd {
				texts[i] = ""
			} else {
				texts[i] = texts[i][end-segStart:]
			}
			touched[i] = true
		}

		count++
		from = start + len(new)
	}

	for i, t := range segs {
		if !touched[i] {
			continue
		}
		t.setText(texts[i])
		t.setAttr("xml", "space", "preserve")
		expandControls(t)
	}

	p.part.dirty = true
	return count
}

// segments returns the w:t elements of the paragraph in document order.
func (p *Paragraph) segments() []*node {
	var out []*node
	p.n.walk(func(n *node) bool {
		if n != p.n && n.is("w", "p") {
			return false
		}
		if n.is("w", "t") {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// expandControls splits a w:t holding newlines or tabs into w:t, w:br and
// w:tab siblings inside the same run.
func expandControls(t *node) {
	text := strings.ReplaceAll(t.text(), "\r\n", "\n")
	if !strings.ContainsAny(text, "\n\t") {
		return
	}
	run := t.parent
	if run == nil || !run.is("w", "r") {
		return
	}

	var nodes []*node
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		seg := element("w", "t")
		seg.setAttr("xml", "space", "preserve")
		seg.setText(b.String())
		nodes = append(nodes, seg)
		b.Reset()
	}

	for _, r := range text {
		switch r {
		case '\n':
			flush()
			nodes = append(nodes, element("w", "br"))
		case '\t':
			flush()
			nodes = append(nodes, element("w", "tab"))
		default:
			b.WriteRune(r)
		}
	}
	flush()

	run.replaceChild(t, nodes...)
}
