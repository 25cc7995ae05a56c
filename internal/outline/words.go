package outline

import (
	"strings"

	"github.com/dgallion1/manualgen/internal/plan"
)

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// SectionStats summarizes one section for progress logging.
type SectionStats struct {
	Title    string
	Blocks   int
	Words    int
	Headings int
	Lists    int // list items
	Images   int
}

// Stats returns per-section block and word counts in plan order.
func Stats(p *plan.Plan) []SectionStats {
	out := make([]SectionStats, 0, len(p.Sections))
	for _, s := range p.Sections {
		st := SectionStats{Title: s.Title, Blocks: len(s.Blocks), Words: CountWords(s.Title)}
		for _, b := range s.Blocks {
			st.Words += CountWords(b.PlainText())
			switch b.Kind {
			case plan.KindHeading:
				st.Headings++
			case plan.KindListItem:
				st.Lists++
			case plan.KindImage:
				st.Images++
			}
		}
		out = append(out, st)
	}
	return out
}

// Totals sums the section stats.
func Totals(stats []SectionStats) SectionStats {
	var t SectionStats
	for _, s := range stats {
		t.Blocks += s.Blocks
		t.Words += s.Words
		t.Headings += s.Headings
		t.Lists += s.Lists
		t.Images += s.Images
	}
	return t
}
