package builder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/dgallion1/manualgen/internal/style"
)

// ErrMissingAsset is returned when an image refers to an asset that was
// not staged.
var ErrMissingAsset = errors.New("asset not staged")

// subtitleSize is the run size of cover subtitles after the first, in
// half-points.
const subtitleSize = "28"

// emitter owns the document for the duration of one Build.
type emitter struct {
	doc      *docx.Docx
	sheet    *style.Sheet
	assets   map[string]string
	maxWidth int64
}

func (e *emitter) paragraph(styleName string) *docx.Paragraph {
	p := e.doc.AddParagraph()
	if h := e.sheet.Resolve(styleName); h.ID != style.NormalName {
		p.Style(h.ID)
	}
	return p
}

// cover writes the title page. A page break closes it when more content
// follows.
func (e *emitter) cover(p *plan.Plan, more bool) {
	if p.Title == "" && len(p.Subtitles) == 0 && len(p.Details) == 0 {
		return
	}
	if p.Title != "" {
		addText(e.paragraph(style.HeadingName(0)).Justification("center"), p.Title)
	}
	for i, sub := range p.Subtitles {
		if i == 0 {
			addText(e.paragraph(style.Subtitle).Justification("center"), sub)
			continue
		}
		addText(e.paragraph(style.NormalName).Justification("center"), sub).Size(subtitleSize)
	}
	if len(p.Details) > 0 {
		e.doc.AddParagraph()
		for _, d := range p.Details {
			addText(e.paragraph(style.NormalName).Justification("center"), d)
		}
	}
	if more {
		e.doc.AddParagraph().AddPageBreaks()
	}
}

func (e *emitter) emit(st step) error {
	b := st.block
	switch b.Kind {
	case plan.KindHeading:
		if b.Level < 0 || b.Level > plan.MaxHeadingLevel {
			return fmt.Errorf("heading level %d outside 0..%d", b.Level, plan.MaxHeadingLevel)
		}
		p := e.paragraph(style.HeadingName(b.Level))
		if b.Level == 0 {
			p.Justification("center")
		}
		e.runs(p, b.TextRuns())
	case plan.KindParagraph:
		e.runs(e.paragraph(style.NormalName), b.TextRuns())
	case plan.KindListItem:
		if b.Level < 0 || b.Level > plan.MaxListLevel {
			return fmt.Errorf("list level %d outside 0..%d", b.Level, plan.MaxListLevel)
		}
		p := e.paragraph(style.ListName(b.List == plan.ListNumber, b.Level))
		p.NumPr(strconv.Itoa(st.numID), strconv.Itoa(b.Level))
		e.runs(p, b.TextRuns())
	case plan.KindCode:
		r := e.paragraph(style.Code).AddText(b.Text)
		for _, c := range r.Children {
			if t, ok := c.(*docx.Text); ok {
				t.XMLSpace = "preserve"
			}
		}
	case plan.KindImage:
		return e.image(b)
	case plan.KindPageBreak:
		e.doc.AddParagraph().AddPageBreaks()
	default:
		return fmt.Errorf("unknown block kind %q", b.Kind)
	}
	return nil
}

// runs appends one run per input run, each with its own formatting.
func (e *emitter) runs(p *docx.Paragraph, runs []plan.Run) {
	for _, r := range runs {
		run := addText(p, r.Text)
		if r.Bold {
			run.Bold()
		}
		if r.Italic {
			run.Italic()
		}
		if r.Color != "" {
			run.Color(strings.ToUpper(r.Color))
		}
	}
}

// addText appends text, keeping leading and trailing spaces.
func addText(p *docx.Paragraph, text string) *docx.Run {
	r := p.AddText(text)
	for _, c := range r.Children {
		if t, ok := c.(*docx.Text); ok && strings.TrimSpace(t.Text) != t.Text {
			t.XMLSpace = "preserve"
		}
	}
	return r
}

func (e *emitter) image(b plan.Block) error {
	path := b.Source
	if name, ok := b.AssetName(); ok {
		staged, found := e.assets[name]
		if !found {
			return fmt.Errorf("%w: %s", ErrMissingAsset, name)
		}
		path = staged
	}
	data, sz, err := loadImage(path)
	if err != nil {
		return err
	}
	p := e.doc.AddParagraph().Justification("center")
	run, err := p.AddInlineDrawing(data)
	if err != nil {
		return fmt.Errorf("embed image: %w", err)
	}
	w, h := extent(sz, b.Width, e.maxWidth)
	for _, c := range run.Children {
		if d, ok := c.(*docx.Drawing); ok && d.Inline != nil {
			d.Inline.Size(w, h)
		}
	}
	return nil
}
