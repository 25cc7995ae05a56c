package plan

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidPlan wraps every problem Validate reports.
var ErrInvalidPlan = errors.New("invalid plan")

var validKinds = map[Kind]bool{
	KindHeading:   true,
	KindParagraph: true,
	KindListItem:  true,
	KindCode:      true,
	KindImage:     true,
	KindPageBreak: true,
}

var (
	colorPattern     = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)
	assetNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	slugStrip        = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes       = regexp.MustCompile(`-+`)
)

// BlockProblem locates one malformed block.
type BlockProblem struct {
	Section int // index into Plan.Sections
	Index   int // index into Section.Blocks
	Reason  string
}

func (p *BlockProblem) Error() string {
	return fmt.Sprintf("section %d block %d: %s", p.Section, p.Index, p.Reason)
}

// Validate checks the plan's blocks and assets. It reports every problem
// found, joined into one error that matches ErrInvalidPlan.
func Validate(p *Plan) error {
	if p == nil {
		return fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	var errs []error

	assets := make(map[string]bool, len(p.Assets))
	for i, a := range p.Assets {
		switch {
		case !assetNamePattern.MatchString(a.Name):
			errs = append(errs, fmt.Errorf("asset %d: invalid name %q", i, a.Name))
		case assets[a.Name]:
			errs = append(errs, fmt.Errorf("asset %d: duplicate name %q", i, a.Name))
		}
		if !strings.HasPrefix(a.URL, "http://") && !strings.HasPrefix(a.URL, "https://") {
			errs = append(errs, fmt.Errorf("asset %d: url %q is not http(s)", i, a.URL))
		}
		assets[a.Name] = true
	}

	if p.TOC != nil && (p.TOC.Depth < 0 || p.TOC.Depth > 2) {
		errs = append(errs, fmt.Errorf("toc: depth %d outside 0..2", p.TOC.Depth))
	}

	for si, s := range p.Sections {
		for bi, b := range s.Blocks {
			for _, reason := range blockProblems(b, assets) {
				errs = append(errs, &BlockProblem{Section: si, Index: bi, Reason: reason})
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(errs...))
}

func blockProblems(b Block, assets map[string]bool) []string {
	if !validKinds[b.Kind] {
		return []string{fmt.Sprintf("unknown kind %q", b.Kind)}
	}
	var out []string
	switch b.Kind {
	case KindHeading:
		if b.Level < 0 || b.Level > MaxHeadingLevel {
			out = append(out, fmt.Sprintf("heading level %d outside 0..%d", b.Level, MaxHeadingLevel))
		}
	case KindListItem:
		if b.List != ListBullet && b.List != ListNumber {
			out = append(out, fmt.Sprintf("unknown list kind %q", b.List))
		}
		if b.Level < 0 || b.Level > MaxListLevel {
			out = append(out, fmt.Sprintf("list level %d outside 0..%d", b.Level, MaxListLevel))
		}
	case KindImage:
		if b.Source == "" {
			out = append(out, "image without source")
		} else if name, ok := b.AssetName(); ok && !assets[name] {
			out = append(out, fmt.Sprintf("undeclared asset %q", name))
		}
		if b.Width < 0 {
			out = append(out, fmt.Sprintf("negative image width %g", b.Width))
		}
	}
	for _, r := range b.Runs {
		if r.Color != "" && !colorPattern.MatchString(r.Color) {
			out = append(out, fmt.Sprintf("run color %q is not RRGGBB", r.Color))
		}
	}
	return out
}

// Normalize rewrites every text field of the plan to Unicode NFC in place.
func Normalize(p *Plan) {
	p.Title = norm.NFC.String(p.Title)
	normalizeAll(p.Subtitles)
	normalizeAll(p.Details)
	if p.TOC != nil {
		p.TOC.Title = norm.NFC.String(p.TOC.Title)
		p.TOC.Intro = norm.NFC.String(p.TOC.Intro)
	}
	for si := range p.Sections {
		s := &p.Sections[si]
		s.Title = norm.NFC.String(s.Title)
		for bi := range s.Blocks {
			b := &s.Blocks[bi]
			if b.Kind == KindCode {
				continue // kept byte-for-byte
			}
			b.Text = norm.NFC.String(b.Text)
			for ri := range b.Runs {
				b.Runs[ri].Text = norm.NFC.String(b.Runs[ri].Text)
			}
		}
	}
}

func normalizeAll(ss []string) {
	for i := range ss {
		ss[i] = norm.NFC.String(ss[i])
	}
}

// Slugify converts a string to a path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
