// Package outline derives the heading structure and size of a plan.
package outline

import (
	"github.com/dgallion1/manualgen/internal/plan"
)

// Entry is one line of the table of contents.
type Entry struct {
	Level      int      // 1 for sections, 2.. for headings inside them
	Title      string
	Breadcrumb []string // enclosing titles, outermost first, ending with Title
}

// Build walks the sections and their headings in order and returns the
// entries down to depth. Depth 0 means section titles only.
func Build(p *plan.Plan, depth int) []Entry {
	if depth <= 0 {
		depth = 1
	}
	var entries []Entry
	for _, s := range p.Sections {
		bc := []string{s.Title}
		entries = append(entries, Entry{Level: 1, Title: s.Title, Breadcrumb: copyBreadcrumb(bc)})
		for _, b := range s.Blocks {
			if b.Kind != plan.KindHeading || b.Level < 2 {
				continue
			}
			bc = trail(bc, b.Level, b.PlainText())
			if b.Level > depth {
				continue
			}
			entries = append(entries, Entry{Level: b.Level, Title: b.PlainText(), Breadcrumb: copyBreadcrumb(bc)})
		}
	}
	return entries
}

// trail replaces the breadcrumb below level with title.
func trail(bc []string, level int, title string) []string {
	if level-1 < len(bc) {
		bc = bc[:level-1]
	}
	for len(bc) < level-1 {
		bc = append(bc, "")
	}
	return append(bc, title)
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
