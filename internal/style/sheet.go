// Package style builds the immutable style sheet a manual is rendered with.
package style

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Kind is the style type as stored in the package's style part.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindCharacter Kind = "character"
)

// NormalName is the default style every fallback resolves to.
const NormalName = "Normal"

var (
	ErrStyleExists       = errors.New("style already exists")
	ErrStyleKindConflict = errors.New("style kind conflict")
	ErrInvalidFont       = errors.New("invalid font")
	ErrEmptyName         = errors.New("empty style name")
)

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Font describes the run formatting of a style.
type Font struct {
	Family string  // empty inherits from the base style
	Size   float64 // points, 0 inherits
	Bold   bool
	Italic bool
	Color  string // RRGGBB, empty inherits
}

// Def is one named style definition.
type Def struct {
	Name        string
	Kind        Kind   // defaults to paragraph
	BasedOn     string // defaults to Normal for paragraph styles
	Font        Font
	Outline     int    // heading outline level 1..9, 0 for body text
	Align       string // w:jc value, e.g. "center"
	SpaceBefore int    // points
	SpaceAfter  int    // points
	Indent      int    // left indent in twips
	Hanging     int    // hanging indent in twips
}

// Handle is the registered identity of a style.
type Handle struct {
	ID       string // w:styleId referenced from paragraphs
	Name     string // name as requested
	Fallback bool   // true when Name was aliased to Normal
}

// StyleError reports why a definition could not be registered.
type StyleError struct {
	Name   string
	Reason error
}

func (e *StyleError) Error() string {
	return fmt.Sprintf("style %q: %v", e.Name, e.Reason)
}

func (e *StyleError) Unwrap() error { return e.Reason }

// Sheet maps style names to definitions. It is read-only once Build returns.
type Sheet struct {
	defs    map[string]Def    // keyed by normalized name
	handles map[string]Handle // keyed by normalized name, includes aliases
	order   []string          // registration order of defs
	log     *slog.Logger
}

// Key normalizes a style name for lookup: "Heading 1" and "heading1" match.
func Key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// ID derives the w:styleId for a style name.
func ID(name string) string {
	return strings.Join(strings.Fields(name), "")
}

// Build registers defs in order. Normal is always present. Registration
// failures never escape: the first definition wins for duplicates and any
// other rejected name is aliased to Normal.
func Build(defs []Def, log *slog.Logger) *Sheet {
	if log == nil {
		log = slog.Default()
	}
	s := &Sheet{
		defs:    make(map[string]Def, len(defs)+1),
		handles: make(map[string]Handle, len(defs)+1),
		log:     log,
	}

	normal := Def{Name: NormalName, Font: Font{Family: "Calibri", Size: 11}}
	for _, d := range defs {
		if Key(d.Name) == Key(NormalName) {
			normal = d
			normal.Name = NormalName
			break
		}
	}
	if _, err := s.register(normal); err != nil {
		log.Warn("normal style rejected, using built-in default", "reason", err)
		s.put(Def{Name: NormalName, Kind: KindParagraph, Font: Font{Family: "Calibri", Size: 11}})
	}

	for _, d := range defs {
		if Key(d.Name) == Key(NormalName) {
			continue
		}
		h, err := s.register(d)
		if err == nil {
			continue
		}
		var se *StyleError
		if !errors.As(err, &se) {
			se = &StyleError{Name: d.Name, Reason: err}
		}
		switch {
		case errors.Is(err, ErrStyleExists):
			log.Warn("duplicate style definition ignored", "style", d.Name, "reason", se.Reason)
		case errors.Is(err, ErrEmptyName):
			log.Warn("unnamed style definition ignored", "reason", se.Reason)
		case s.Has(d.Name):
			// Name already registered under another kind: first one wins.
			log.Warn("conflicting style definition ignored", "style", d.Name, "reason", se.Reason)
		default:
			h = s.alias(d.Name)
			log.Warn("style registration failed, falling back to normal",
				"style", d.Name, "reason", se.Reason, "id", h.ID)
		}
	}
	return s
}

// register validates def and adds it to the sheet.
func (s *Sheet) register(def Def) (Handle, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return Handle{}, &StyleError{Name: def.Name, Reason: ErrEmptyName}
	}
	if def.Kind == "" {
		def.Kind = KindParagraph
	}
	if def.Kind != KindParagraph && def.Kind != KindCharacter {
		return Handle{}, &StyleError{Name: name, Reason: fmt.Errorf("%w: unknown kind %q", ErrStyleKindConflict, def.Kind)}
	}
	key := Key(name)
	if existing, ok := s.defs[key]; ok {
		if existing.Kind != def.Kind {
			return Handle{}, &StyleError{Name: name, Reason: fmt.Errorf("%w: registered as %s", ErrStyleKindConflict, existing.Kind)}
		}
		return s.handles[key], &StyleError{Name: name, Reason: ErrStyleExists}
	}
	if err := checkFont(def.Font); err != nil {
		return Handle{}, &StyleError{Name: name, Reason: err}
	}
	if def.Outline < 0 || def.Outline > 9 {
		return Handle{}, &StyleError{Name: name, Reason: fmt.Errorf("%w: outline level %d", ErrInvalidFont, def.Outline)}
	}
	if def.BasedOn != "" {
		base, ok := s.defs[Key(def.BasedOn)]
		if !ok || base.Kind != def.Kind {
			s.log.Debug("unknown base style, using default", "style", name, "based_on", def.BasedOn)
			def.BasedOn = ""
		}
	}
	def.Name = name
	return s.put(def), nil
}

func checkFont(f Font) error {
	if f.Size < 0 || f.Size > 1638 {
		return fmt.Errorf("%w: size %gpt", ErrInvalidFont, f.Size)
	}
	if f.Color != "" && !hexColor.MatchString(f.Color) {
		return fmt.Errorf("%w: color %q", ErrInvalidFont, f.Color)
	}
	if strings.ContainsAny(f.Family, "<>&\"") {
		return fmt.Errorf("%w: family %q", ErrInvalidFont, f.Family)
	}
	return nil
}

func (s *Sheet) put(def Def) Handle {
	key := Key(def.Name)
	h := Handle{ID: styleID(def.Name), Name: def.Name}
	s.defs[key] = def
	s.handles[key] = h
	s.order = append(s.order, key)
	return h
}

// styleID is the w:styleId a registered definition is written under.
func styleID(name string) string {
	if Key(name) == Key(NormalName) {
		return NormalName
	}
	return ID(name)
}

func (s *Sheet) alias(name string) Handle {
	n := s.handles[Key(NormalName)]
	h := Handle{ID: n.ID, Name: name, Fallback: true}
	s.handles[Key(name)] = h
	return h
}

// Resolve returns the handle for name. Unknown names resolve to Normal.
func (s *Sheet) Resolve(name string) Handle {
	if h, ok := s.handles[Key(name)]; ok {
		return h
	}
	s.log.Debug("unknown style, using normal", "style", name)
	n := s.handles[Key(NormalName)]
	return Handle{ID: n.ID, Name: name, Fallback: true}
}

// Has reports whether name was registered with its own definition.
func (s *Sheet) Has(name string) bool {
	_, ok := s.defs[Key(name)]
	return ok
}

// Def returns the definition registered under name.
func (s *Sheet) Def(name string) (Def, bool) {
	d, ok := s.defs[Key(name)]
	return d, ok
}

// Defs returns the registered definitions in registration order.
func (s *Sheet) Defs() []Def {
	out := make([]Def, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.defs[k])
	}
	return out
}
