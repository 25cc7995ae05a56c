package parser

import (
	"testing"

	"github.com/dgallion1/manualgen/internal/plan"
)

func TestForFile(t *testing.T) {
	tests := map[string]any{
		"a.yaml":     &PlanParser{},
		"a.JSON":     &PlanParser{},
		"a.md":       &MarkdownParser{},
		"a.markdown": &MarkdownParser{},
		"a.htm":      &HTMLParser{},
		"a.txt":      &TextParser{},
		"a.csv":      &CSVParser{},
		"a.pdf":      &PDFParser{},
		"a.docx":     &DOCXParser{},
	}
	for name, want := range tests {
		got, err := ForFile(name)
		if err != nil {
			t.Errorf("ForFile(%q): unexpected error: %v", name, err)
			continue
		}
		if gotT, wantT := typeName(got), typeName(want); gotT != wantT {
			t.Errorf("ForFile(%q): expected %s, got %s", name, wantT, gotT)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("expected %q to be supported", name)
		}
	}
	if _, err := ForFile("a.exe"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("a.exe") {
		t.Error("expected .exe to be unsupported")
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *PlanParser:
		return "plan"
	case *MarkdownParser:
		return "markdown"
	case *HTMLParser:
		return "html"
	case *TextParser:
		return "text"
	case *CSVParser:
		return "csv"
	case *PDFParser:
		return "pdf"
	case *DOCXParser:
		return "docx"
	}
	return "unknown"
}

func TestAssembler_TitleThenSections(t *testing.T) {
	a := newAssembler("x/notes.md")
	a.title("Manual")
	a.title("Second Title")
	a.add(plan.Text("body"))
	got := a.finish()
	if got.Title != "Manual" {
		t.Errorf("expected %q, got %q", "Manual", got.Title)
	}
	if len(got.Sections) != 1 || got.Sections[0].Title != "Second Title" {
		t.Fatalf("expected repeated title to open a section, got %+v", got.Sections)
	}
}

func TestAssembler_ParagraphDropsBlankRuns(t *testing.T) {
	a := newAssembler("n.txt")
	a.paragraph([]plan.Run{{Text: "  "}, {Text: "\n"}})
	a.paragraph([]plan.Run{{Text: " a"}, {Text: "b "}})
	got := a.finish()
	if len(got.Sections) != 1 || len(got.Sections[0].Blocks) != 1 {
		t.Fatalf("expected one block, got %+v", got.Sections)
	}
	if text := got.Sections[0].Blocks[0].Text; text != "ab" {
		t.Errorf("expected merged %q, got %q", "ab", text)
	}
}

func TestClampHeading(t *testing.T) {
	for depth, want := range map[int]int{3: 2, 4: 3, 5: 3, 6: 3} {
		if got := clampHeading(depth); got != want {
			t.Errorf("clampHeading(%d): expected %d, got %d", depth, want, got)
		}
	}
}
