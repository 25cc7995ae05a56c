package plan

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validPlan() *Plan {
	return &Plan{
		Title:  "Manual",
		Assets: []Asset{{Name: "architecture", URL: "https://example.com/a.png"}},
		Sections: []Section{
			{Title: "One", Blocks: []Block{
				Heading(2, "Sub"),
				Paragraph(Run{Text: "Bold ", Bold: true}, Run{Text: "plain", Color: "003399"}),
				Item(ListBullet, 0, "a"),
				Item(ListNumber, 2, "b"),
				Code("x := 1\n\ty := 2"),
				Image("asset:architecture", 6),
				PageBreak(),
			}},
			{Title: "Two"},
		},
	}
}

func TestValidate_ValidPlan(t *testing.T) {
	if err := Validate(validPlan()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NilPlan(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	p := validPlan()
	p.Sections[0].Blocks = append(p.Sections[0].Blocks,
		Block{Kind: "table"},
		Heading(4, "too deep"),
		Item("dash", 3, "x"),
		Image("", 1),
		Image("asset:missing", 1),
		Paragraph(Run{Text: "x", Color: "blue"}),
	)
	err := Validate(p)
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{
		`section 0 block 7: unknown kind "table"`,
		"section 0 block 8: heading level 4",
		`section 0 block 9: unknown list kind "dash"`,
		"section 0 block 9: list level 3",
		"section 0 block 10: image without source",
		`section 0 block 11: undeclared asset "missing"`,
		`section 0 block 12: run color "blue"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to contain %q, got:\n%s", want, msg)
		}
	}

	var bp *BlockProblem
	if !errors.As(err, &bp) {
		t.Fatal("expected a BlockProblem in the chain")
	}
}

func TestValidate_DuplicateAsset(t *testing.T) {
	p := validPlan()
	p.Assets = append(p.Assets, Asset{Name: "architecture", URL: "https://example.com/b.png"})
	err := Validate(p)
	if err == nil || !strings.Contains(err.Error(), "duplicate name") {
		t.Errorf("expected duplicate asset error, got %v", err)
	}
}

func TestValidate_AssetURLScheme(t *testing.T) {
	p := validPlan()
	p.Assets[0].URL = "file:///etc/passwd"
	if err := Validate(p); err == nil {
		t.Error("expected non-http asset url to fail")
	}
}

func TestFlatten_Order(t *testing.T) {
	p := &Plan{Sections: []Section{
		{Title: "A", Blocks: []Block{Text("a1"), Text("a2")}},
		{Title: "B"},
		{Title: "C", Blocks: []Block{Code("c1")}},
	}}
	want := []Block{
		Heading(1, "A"), Text("a1"), Text("a2"),
		Heading(1, "B"),
		Heading(1, "C"), Code("c1"),
	}
	if diff := cmp.Diff(want, Flatten(p)); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatten_Empty(t *testing.T) {
	if got := Flatten(&Plan{}); len(got) != 0 {
		t.Errorf("expected no blocks, got %d", len(got))
	}
}

func TestBlock_TextRuns(t *testing.T) {
	if runs := Text("").TextRuns(); runs != nil {
		t.Errorf("expected nil runs for empty paragraph, got %v", runs)
	}
	b := Block{Kind: KindParagraph, Text: "ignored", Runs: []Run{{Text: "a"}, {Text: "b", Bold: true}}}
	if got := b.PlainText(); got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
}

func TestBlock_AssetName(t *testing.T) {
	name, ok := Image("asset:logo", 1).AssetName()
	if !ok || name != "logo" {
		t.Errorf("expected asset logo, got %q (%v)", name, ok)
	}
	if _, ok := Image("/tmp/x.png", 1).AssetName(); ok {
		t.Error("expected plain path not to be an asset reference")
	}
}

func TestNormalize_NFC(t *testing.T) {
	decomposed := "Versa\u0303o"
	p := &Plan{
		Title:    decomposed,
		Sections: []Section{{Title: decomposed, Blocks: []Block{Text(decomposed), Code(decomposed)}}},
	}
	Normalize(p)
	if p.Title != "Versão" {
		t.Errorf("expected composed title, got %q", p.Title)
	}
	if p.Sections[0].Blocks[0].Text != "Versão" {
		t.Errorf("expected composed paragraph, got %q", p.Sections[0].Blocks[0].Text)
	}
	if p.Sections[0].Blocks[1].Text != decomposed {
		t.Error("expected code block to be left untouched")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"THE FLOW English Trainer", "the-flow-english-trainer"},
		{"  --a__b--  ", "a-b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
