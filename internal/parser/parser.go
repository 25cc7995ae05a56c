package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/manualgen/internal/plan"
)

// Parser converts a source document into a plan.
type Parser interface {
	Parse(r io.Reader, filename string) (*plan.Plan, error)
}

// SupportedExtensions lists file extensions this service can import.
var SupportedExtensions = map[string]bool{
	".yaml":     true,
	".yml":      true,
	".json":     true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".yaml", ".yml", ".json":
		return &PlanParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// docName strips directory and extension from filename.
func docName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// assembler accumulates blocks into sections. Blocks that arrive before the
// first section open one named after the document.
type assembler struct {
	p    *plan.Plan
	name string
}

func newAssembler(filename string) *assembler {
	return &assembler{p: &plan.Plan{}, name: docName(filename)}
}

// title sets the plan title, or opens a section when one is already set.
func (a *assembler) title(text string) {
	if text == "" {
		return
	}
	if a.p.Title == "" && len(a.p.Sections) == 0 {
		a.p.Title = text
		return
	}
	a.section(text)
}

func (a *assembler) section(title string) {
	a.p.Sections = append(a.p.Sections, plan.Section{Title: title})
}

func (a *assembler) add(b plan.Block) {
	if len(a.p.Sections) == 0 {
		a.section(a.name)
	}
	s := &a.p.Sections[len(a.p.Sections)-1]
	s.Blocks = append(s.Blocks, b)
}

// paragraph adds runs as a paragraph, dropping it when it holds no text.
func (a *assembler) paragraph(runs []plan.Run) {
	runs = trimRuns(mergeRuns(runs))
	if len(runs) == 0 {
		return
	}
	if len(runs) == 1 && runs[0] == (plan.Run{Text: runs[0].Text}) {
		a.add(plan.Text(runs[0].Text))
		return
	}
	a.add(plan.Paragraph(runs...))
}

func (a *assembler) finish() *plan.Plan {
	if a.p.Title == "" {
		a.p.Title = a.name
	}
	plan.Normalize(a.p)
	return a.p
}

// mergeRuns joins neighbouring runs that share formatting and drops empty ones.
func mergeRuns(runs []plan.Run) []plan.Run {
	var out []plan.Run
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && sameFormat(out[n-1], r) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}

func sameFormat(a, b plan.Run) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Color == b.Color
}

// trimRuns strips leading space from the first run and trailing space from
// the last.
func trimRuns(runs []plan.Run) []plan.Run {
	for len(runs) > 0 {
		runs[0].Text = strings.TrimLeft(runs[0].Text, " \t\r\n")
		if runs[0].Text != "" {
			break
		}
		runs = runs[1:]
	}
	for len(runs) > 0 {
		last := len(runs) - 1
		runs[last].Text = strings.TrimRight(runs[last].Text, " \t\r\n")
		if runs[last].Text != "" {
			break
		}
		runs = runs[:last]
	}
	return runs
}

// clampHeading maps a source heading depth onto block heading levels, where
// depth 1 and 2 are taken by the title and sections.
func clampHeading(depth int) int {
	return min(max(depth-1, 2), plan.MaxHeadingLevel)
}
