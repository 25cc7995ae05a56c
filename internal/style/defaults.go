package style

import "fmt"

// Named styles the builder references.
const (
	Title    = "Title"
	Subtitle = "Subtitle"
	Code     = "Code"
)

// Corporate colors of the default manual.
const (
	BluePrimary = "003399"
	RedAccent   = "B22234"
)

// HeadingName returns the style name for a heading level: Title for 0,
// HeadingN otherwise.
func HeadingName(level int) string {
	if level <= 0 {
		return Title
	}
	return fmt.Sprintf("Heading%d", level)
}

// ListName returns the style keyed by list kind and indent level:
// ListBullet, ListBullet2, ListNumber3 and so on.
func ListName(numbered bool, level int) string {
	base := "ListBullet"
	if numbered {
		base = "ListNumber"
	}
	if level <= 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, level+1)
}

// Default returns the style definitions of the technical manual.
func Default() []Def {
	heading := func(level int, size float64, before int) Def {
		return Def{
			Name:        HeadingName(level),
			Font:        Font{Family: "Calibri", Size: size, Bold: true, Color: BluePrimary},
			Outline:     level,
			SpaceBefore: before,
			SpaceAfter:  6,
		}
	}
	defs := []Def{
		{Name: NormalName, Font: Font{Family: "Calibri", Size: 11}, SpaceAfter: 8},
		{Name: Title, Font: Font{Family: "Calibri", Size: 28, Bold: true, Color: BluePrimary}, Align: "center", SpaceAfter: 12},
		{Name: Subtitle, Font: Font{Family: "Calibri", Size: 18, Bold: true}, Align: "center", SpaceAfter: 6},
		heading(1, 20, 24),
		heading(2, 16, 18),
		heading(3, 13, 12),
		{Name: Code, Font: Font{Family: "Courier New", Size: 9}, SpaceBefore: 4, SpaceAfter: 4},
	}
	for _, numbered := range []bool{false, true} {
		for level := 0; level <= 2; level++ {
			defs = append(defs, Def{
				Name:       ListName(numbered, level),
				Indent:     720 * (level + 1),
				Hanging:    360,
				SpaceAfter: 2,
			})
		}
	}
	return defs
}
