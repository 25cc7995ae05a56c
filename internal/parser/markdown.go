package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. A level-1 heading
// becomes the title, level-2 headings open sections and deeper headings
// become block headings.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*plan.Plan, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	a := newAssembler(filename)
	m := &mdWalker{src: src, a: a}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		m.block(n)
	}
	return a.finish(), nil
}

type mdWalker struct {
	src []byte
	a   *assembler
}

func (m *mdWalker) block(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		title := plainText(m.inline(node))
		switch node.Level {
		case 1:
			m.a.title(title)
		case 2:
			m.a.section(title)
		default:
			m.a.add(plan.Heading(clampHeading(node.Level), title))
		}

	case *ast.Paragraph, *ast.TextBlock:
		m.paragraph(node)

	case *ast.List:
		m.list(node, 0)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		m.a.add(plan.Code(m.lines(node)))

	case *ast.ThematicBreak:
		m.a.add(plan.PageBreak())

	case *ast.Blockquote:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			m.block(c)
		}
	}
}

// paragraph emits runs, splitting out images into their own blocks.
func (m *mdWalker) paragraph(n ast.Node) {
	var runs []plan.Run
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if img, ok := c.(*ast.Image); ok {
			m.a.paragraph(runs)
			runs = nil
			m.a.add(plan.Image(string(img.Destination), 0))
			continue
		}
		runs = append(runs, m.runs(c, false, false)...)
	}
	m.a.paragraph(runs)
}

func (m *mdWalker) list(l *ast.List, level int) {
	kind := plan.ListBullet
	if l.IsOrdered() {
		kind = plan.ListNumber
	}
	level = min(level, plan.MaxListLevel)
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var runs []plan.Run
		var nested []*ast.List
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.List:
				nested = append(nested, c)
			default:
				runs = append(runs, m.inline(c)...)
			}
		}
		runs = trimRuns(mergeRuns(runs))
		b := plan.Item(kind, level, "")
		if len(runs) == 1 && sameFormat(runs[0], plan.Run{}) {
			b.Text = runs[0].Text
		} else {
			b.Runs = runs
		}
		m.a.add(b)
		for _, sub := range nested {
			m.list(sub, level+1)
		}
	}
}

func (m *mdWalker) inline(n ast.Node) []plan.Run {
	var runs []plan.Run
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		runs = append(runs, m.runs(c, false, false)...)
	}
	return runs
}

func (m *mdWalker) runs(n ast.Node, bold, italic bool) []plan.Run {
	switch node := n.(type) {
	case *ast.Text:
		s := string(node.Value(m.src))
		if node.SoftLineBreak() {
			s += " "
		}
		if node.HardLineBreak() {
			s += "\n"
		}
		return []plan.Run{{Text: s, Bold: bold, Italic: italic}}
	case *ast.String:
		return []plan.Run{{Text: string(node.Value), Bold: bold, Italic: italic}}
	case *ast.AutoLink:
		return []plan.Run{{Text: string(node.Label(m.src)), Bold: bold, Italic: italic}}
	case *ast.Emphasis:
		if node.Level >= 2 {
			bold = true
		} else {
			italic = true
		}
	case *ast.Image:
		// Inline images inside headings or list items keep their alt text.
	case *ast.RawHTML:
		return nil
	}
	var out []plan.Run
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, m.runs(c, bold, italic)...)
	}
	return out
}

func (m *mdWalker) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(m.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func plainText(runs []plan.Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return strings.TrimSpace(sb.String())
}
