package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/dgallion1/manualgen/internal/style"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraph styles decide the block kind:
// Title and Subtitle fill the cover, Heading1 opens a section, deeper
// headings become block headings, numbered paragraphs become list items and
// the Code style becomes code blocks. Drawings are not imported.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*plan.Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	return FromDocument(doc, filename), nil
}

// FromDocument maps an already parsed document onto a plan.
func FromDocument(doc *docx.Docx, filename string) *plan.Plan {
	a := newAssembler(filename)
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if isPageBreak(para) {
			// The break closing the cover belongs to no section.
			if len(a.p.Sections) > 0 {
				a.add(plan.PageBreak())
			}
			continue
		}

		key := style.Key(paragraphStyle(para))
		switch {
		case key == style.Key(style.Code):
			a.add(plan.Code(codeText(para)))
			continue
		case para.Properties != nil && para.Properties.NumProperties != nil:
			a.add(listItem(para, key))
			continue
		}

		runs := docxRuns(para)
		text := plainText(runs)
		cover := len(a.p.Sections) == 0

		// Headings are kept even when empty.
		switch level := docxHeadingLevel(key); {
		case key == style.Key(style.Title) && cover && a.p.Title == "" && text != "":
			a.p.Title = text
			continue
		case key == style.Key(style.Title):
			a.add(plan.Heading(0, text))
			continue
		case level == 1:
			a.section(text)
			continue
		case level > 1:
			a.add(plan.Heading(min(level, plan.MaxHeadingLevel), text))
			continue
		}

		switch {
		case text == "":
		case key == style.Key(style.Subtitle) && cover:
			a.p.Subtitles = append(a.p.Subtitles, text)
		case a.p.Title != "" && cover:
			// Loose paragraphs between the title and the first section
			// are cover details.
			a.p.Details = append(a.p.Details, text)
		default:
			a.paragraph(runs)
		}
	}
	return a.finish()
}

func paragraphStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel reads N from a HeadingN style key, 0 otherwise.
func docxHeadingLevel(key string) int {
	rest, ok := strings.CutPrefix(key, "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func listItem(para *docx.Paragraph, key string) plan.Block {
	level := 0
	if num := para.Properties.NumProperties; num.Ilvl != nil {
		if n, err := strconv.Atoi(num.Ilvl.Val); err == nil {
			level = min(max(n, 0), plan.MaxListLevel)
		}
	}
	kind := plan.ListBullet
	if strings.HasPrefix(key, "listnumber") {
		kind = plan.ListNumber
	}
	b := plan.Item(kind, level, "")
	runs := trimRuns(mergeRuns(docxRuns(para)))
	if len(runs) == 1 && sameFormat(runs[0], plan.Run{}) {
		b.Text = runs[0].Text
	} else {
		b.Runs = runs
	}
	return b
}

func docxRuns(para *docx.Paragraph) []plan.Run {
	var runs []plan.Run
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var format plan.Run
		if rp := run.RunProperties; rp != nil {
			format.Bold = rp.Bold != nil
			format.Italic = rp.Italic != nil
			if rp.Color != nil && !strings.EqualFold(rp.Color.Val, "auto") {
				format.Color = strings.ToUpper(rp.Color.Val)
			}
		}
		for _, rc := range run.Children {
			r := format
			switch t := rc.(type) {
			case *docx.Text:
				r.Text = t.Text
			case *docx.Tab:
				r.Text = "\t"
			case *docx.BarterRabbet:
				if t.Type != "" {
					continue
				}
				r.Text = "\n"
			default:
				continue
			}
			runs = append(runs, r)
		}
	}
	return runs
}

// codeText keeps the paragraph's text byte-for-byte.
func codeText(para *docx.Paragraph) string {
	var sb strings.Builder
	for _, r := range docxRuns(para) {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// isPageBreak reports a paragraph holding nothing but a page break.
func isPageBreak(para *docx.Paragraph) bool {
	found := false
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			return false
		}
		for _, rc := range run.Children {
			switch t := rc.(type) {
			case *docx.BarterRabbet:
				if t.Type != "page" {
					return false
				}
				found = true
			case *docx.Text:
				if t.Text != "" {
					return false
				}
			default:
				return false
			}
		}
	}
	return found
}
