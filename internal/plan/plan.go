package plan

import "strings"

// Plan is the ordered description of one manual.
type Plan struct {
	Title     string    `yaml:"title" json:"title"`         // Cover title (level-0 heading)
	Subtitles []string  `yaml:"subtitles" json:"subtitles"` // Cover subtitles, first one emphasized
	Details   []string  `yaml:"details" json:"details"`     // Cover detail lines (version, date)
	TOC       *TOC      `yaml:"toc" json:"toc,omitempty"`   // Generated contents section, nil to skip
	Assets    []Asset   `yaml:"assets" json:"assets"`       // Remote binaries staged before emission
	Sections  []Section `yaml:"sections" json:"sections"`   // Top-level sections in reading order
}

// TOC configures the generated table of contents.
type TOC struct {
	Title string `yaml:"title" json:"title"`
	Intro string `yaml:"intro" json:"intro"`
	Depth int    `yaml:"depth" json:"depth"` // 1 = section titles only, 2 = plus subsections
}

// Asset is a remote resource that image blocks reference as "asset:<name>".
type Asset struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Section is a group of blocks under one level-1 heading.
type Section struct {
	Title  string  `yaml:"title" json:"title"`
	Blocks []Block `yaml:"blocks" json:"blocks"`
}

// Kind tags the variant a Block holds.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindListItem  Kind = "list_item"
	KindCode      Kind = "code"
	KindImage     Kind = "image"
	KindPageBreak Kind = "page_break"
)

// ListKind selects bullet or numbered lists.
type ListKind string

const (
	ListBullet ListKind = "bullet"
	ListNumber ListKind = "number"
)

const (
	MaxHeadingLevel = 3
	MaxListLevel    = 2

	// AssetScheme prefixes image sources that refer to a staged asset.
	AssetScheme = "asset:"
)

// Block is one unit of content. Which fields are meaningful depends on Kind.
type Block struct {
	Kind   Kind     `yaml:"kind" json:"kind"`
	Level  int      `yaml:"level,omitempty" json:"level,omitempty"`   // heading level or list indent
	Text   string   `yaml:"text,omitempty" json:"text,omitempty"`     // plain text shorthand
	Runs   []Run    `yaml:"runs,omitempty" json:"runs,omitempty"`     // formatted text, wins over Text
	List   ListKind `yaml:"list,omitempty" json:"list,omitempty"`     // list_item only
	Source string   `yaml:"source,omitempty" json:"source,omitempty"` // image path or asset reference
	Width  float64  `yaml:"width,omitempty" json:"width,omitempty"`   // image width in inches
}

// Run is a span of text sharing one formatting.
type Run struct {
	Text   string `yaml:"text" json:"text"`
	Bold   bool   `yaml:"bold,omitempty" json:"bold,omitempty"`
	Italic bool   `yaml:"italic,omitempty" json:"italic,omitempty"`
	Color  string `yaml:"color,omitempty" json:"color,omitempty"` // RRGGBB
}

// Heading returns a heading block.
func Heading(level int, text string) Block {
	return Block{Kind: KindHeading, Level: level, Text: text}
}

// Paragraph returns a paragraph block made of runs.
func Paragraph(runs ...Run) Block {
	return Block{Kind: KindParagraph, Runs: runs}
}

// Text returns a paragraph block holding one plain run.
func Text(text string) Block {
	return Block{Kind: KindParagraph, Text: text}
}

// Item returns a list item block.
func Item(kind ListKind, level int, text string) Block {
	return Block{Kind: KindListItem, List: kind, Level: level, Text: text}
}

// Code returns a preformatted block.
func Code(text string) Block {
	return Block{Kind: KindCode, Text: text}
}

// Image returns an image block.
func Image(source string, width float64) Block {
	return Block{Kind: KindImage, Source: source, Width: width}
}

// PageBreak returns a hard page break.
func PageBreak() Block {
	return Block{Kind: KindPageBreak}
}

// TextRuns returns the runs to emit: Runs when present, otherwise Text as a
// single plain run. An empty paragraph yields no runs.
func (b Block) TextRuns() []Run {
	if len(b.Runs) > 0 {
		return b.Runs
	}
	if b.Text == "" {
		return nil
	}
	return []Run{{Text: b.Text}}
}

// PlainText concatenates the block's run text.
func (b Block) PlainText() string {
	runs := b.TextRuns()
	if len(runs) == 1 {
		return runs[0].Text
	}
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// AssetName returns the referenced asset name for asset-backed images.
func (b Block) AssetName() (string, bool) {
	if !strings.HasPrefix(b.Source, AssetScheme) {
		return "", false
	}
	return strings.TrimPrefix(b.Source, AssetScheme), true
}

// SectionHeading is the level-1 heading block a section opens with.
func (s Section) SectionHeading() Block {
	return Heading(1, s.Title)
}

// Flatten returns the section-ordered emission sequence: each section's
// heading followed by its blocks.
func Flatten(p *Plan) []Block {
	n := 0
	for _, s := range p.Sections {
		n += 1 + len(s.Blocks)
	}
	out := make([]Block, 0, n)
	for _, s := range p.Sections {
		out = append(out, s.SectionHeading())
		out = append(out, s.Blocks...)
	}
	return out
}
