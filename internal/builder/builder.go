// Package builder assembles a DOCX manual from a content plan.
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/manualgen/internal/outline"
	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/dgallion1/manualgen/internal/style"
)

// PageSize selects the section page dimensions.
type PageSize string

const (
	PageA4     PageSize = "a4"
	PageLetter PageSize = "letter"
)

// ErrUnknownPageSize is returned by ParsePageSize.
var ErrUnknownPageSize = errors.New("unknown page size")

// ParsePageSize maps a configuration value to a PageSize.
func ParsePageSize(s string) (PageSize, error) {
	switch PageSize(s) {
	case PageA4, "A4", "":
		return PageA4, nil
	case PageLetter, "Letter", "LETTER":
		return PageLetter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPageSize, s)
}

// Generated marks steps that do not come from a plan section.
const Generated = -1

// BlockError reports the block that aborted emission.
type BlockError struct {
	Section int // section index, or Generated for cover and contents
	Index   int // block index within the section
	Kind    plan.Kind
	Err     error
}

func (e *BlockError) Error() string {
	if e.Section == Generated {
		return fmt.Sprintf("generated %s block: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("section %d block %d (%s): %v", e.Section, e.Index, e.Kind, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// Builder emits plans against one immutable style sheet.
type Builder struct {
	sheet *style.Sheet
	log   *slog.Logger

	// Page is the page size written to the section properties.
	Page PageSize
}

// New returns a Builder using sheet for every style lookup.
func New(sheet *style.Sheet, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{sheet: sheet, log: log, Page: PageA4}
}

// step is one block in emission order with its origin.
type step struct {
	block   plan.Block
	section int
	index   int
	numID   int
}

// Build emits the plan into a new document. assets maps asset names to
// staged local paths. Any block failure discards the document.
func (b *Builder) Build(ctx context.Context, p *plan.Plan, assets map[string]string) (*docx.Docx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	steps := b.contents(p)
	for si, s := range p.Sections {
		steps = append(steps, step{block: s.SectionHeading(), section: si, index: -1})
		for bi, blk := range s.Blocks {
			steps = append(steps, step{block: blk, section: si, index: bi})
		}
	}
	numbered := assignLists(steps)

	doc, err := newDocument(b.sheet, numbered, p.Title)
	if err != nil {
		return nil, err
	}
	e := &emitter{doc: doc, sheet: b.sheet, assets: assets, maxWidth: b.textWidth()}

	e.cover(p, len(steps) > 0)

	current := Generated
	for _, st := range steps {
		if st.section != current {
			current = st.section
			s := p.Sections[current]
			b.log.Info("emitting section", "section", current+1, "title", s.Title, "blocks", len(s.Blocks))
		}
		if err := e.emit(st); err != nil {
			return nil, &BlockError{Section: st.section, Index: st.index, Kind: st.block.Kind, Err: err}
		}
	}

	doc.Document.Body.Items = append(doc.Document.Body.Items, b.sectionProperties())
	return doc, nil
}

// contents returns the generated table of contents steps, if requested.
func (b *Builder) contents(p *plan.Plan) []step {
	if p.TOC == nil {
		return nil
	}
	var blocks []plan.Block
	if p.TOC.Title != "" {
		blocks = append(blocks, plan.Heading(1, p.TOC.Title))
	}
	if p.TOC.Intro != "" {
		blocks = append(blocks, plan.Text(p.TOC.Intro))
	}
	blocks = append(blocks, plan.Text(""))
	for _, entry := range outline.Build(p, p.TOC.Depth) {
		blocks = append(blocks, plan.Item(plan.ListNumber, entry.Level-1, entry.Title))
	}
	blocks = append(blocks, plan.PageBreak())

	steps := make([]step, len(blocks))
	for i, blk := range blocks {
		steps[i] = step{block: blk, section: Generated, index: i}
	}
	return steps
}

const (
	twipsPerInch = 1440
	emuPerTwip   = EMUPerInch / twipsPerInch
)

func (b *Builder) pageTwips() (int, int) {
	if b.Page == PageLetter {
		return 12240, 15840
	}
	return 11906, 16838
}

// textWidth is the printable width in EMU between the side margins.
func (b *Builder) textWidth() int64 {
	w, _ := b.pageTwips()
	return int64(w-2*twipsPerInch) * emuPerTwip
}

func (b *Builder) sectionProperties() *docx.SectPr {
	w, h := b.pageTwips()
	return &docx.SectPr{
		PgSz: &docx.PgSz{W: w, H: h},
		PgMar: &docx.PgMar{
			Top: twipsPerInch, Bottom: twipsPerInch,
			Left: twipsPerInch, Right: twipsPerInch,
			Header: 708, Footer: 708,
		},
	}
}

// Serialize writes the document package to memory.
func Serialize(doc *docx.Docx) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write package: %w", err)
	}
	return buf.Bytes(), nil
}
