package style

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	wordNS    = `http://schemas.openxmlformats.org/wordprocessingml/2006/main`
)

// BulletNumID is the w:numId every bulleted list shares.
const BulletNumID = 1

// FirstNumberedID is the w:numId of the first numbered list instance;
// instance i uses FirstNumberedID+i.
const FirstNumberedID = 2

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// halfPoints converts a point size to the w:sz unit.
func halfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// StylesXML renders the word/styles.xml part for the sheet.
func (s *Sheet) StylesXML() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<w:styles xmlns:w="%s">`, wordNS)

	normal, _ := s.Def(NormalName)
	b.WriteString(`<w:docDefaults><w:rPrDefault>`)
	writeRunProps(&b, normal.Font)
	b.WriteString(`</w:rPrDefault><w:pPrDefault><w:pPr><w:spacing w:after="0" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)

	for _, d := range s.Defs() {
		id := styleID(d.Name)
		fmt.Fprintf(&b, `<w:style w:type="%s" w:styleId="%s"`, d.Kind, esc(id))
		if id == NormalName {
			b.WriteString(` w:default="1"`)
		}
		b.WriteString(`>`)
		fmt.Fprintf(&b, `<w:name w:val="%s"/>`, esc(d.Name))
		if id != NormalName && d.Kind == KindParagraph {
			base := NormalName
			if d.BasedOn != "" {
				base = styleID(d.BasedOn)
			}
			fmt.Fprintf(&b, `<w:basedOn w:val="%s"/><w:next w:val="%s"/>`, esc(base), NormalName)
		}
		b.WriteString(`<w:qFormat/>`)
		if d.Kind == KindParagraph {
			writeParaProps(&b, d)
		}
		writeRunProps(&b, d.Font)
		b.WriteString(`</w:style>`)
	}
	b.WriteString(`</w:styles>`)
	return []byte(b.String())
}

func writeParaProps(b *strings.Builder, d Def) {
	var p strings.Builder
	if d.Outline > 0 {
		p.WriteString(`<w:keepNext/>`)
	}
	if d.SpaceBefore > 0 || d.SpaceAfter > 0 {
		fmt.Fprintf(&p, `<w:spacing w:before="%d" w:after="%d"/>`, d.SpaceBefore*20, d.SpaceAfter*20)
	}
	if d.Indent > 0 || d.Hanging > 0 {
		fmt.Fprintf(&p, `<w:ind w:left="%d" w:hanging="%d"/>`, d.Indent, d.Hanging)
	}
	if d.Align != "" {
		fmt.Fprintf(&p, `<w:jc w:val="%s"/>`, esc(d.Align))
	}
	if d.Outline > 0 {
		fmt.Fprintf(&p, `<w:outlineLvl w:val="%d"/>`, d.Outline-1)
	}
	if p.Len() == 0 {
		return
	}
	b.WriteString(`<w:pPr>`)
	b.WriteString(p.String())
	b.WriteString(`</w:pPr>`)
}

func writeRunProps(b *strings.Builder, f Font) {
	b.WriteString(`<w:rPr>`)
	if f.Family != "" {
		fam := esc(f.Family)
		fmt.Fprintf(b, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:eastAsia="%s" w:cs="%s"/>`, fam, fam, fam, fam)
	}
	if f.Bold {
		b.WriteString(`<w:b/><w:bCs/>`)
	}
	if f.Italic {
		b.WriteString(`<w:i/><w:iCs/>`)
	}
	if f.Color != "" {
		fmt.Fprintf(b, `<w:color w:val="%s"/>`, strings.ToUpper(f.Color))
	}
	if f.Size > 0 {
		hp := halfPoints(f.Size)
		fmt.Fprintf(b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, hp, hp)
	}
	b.WriteString(`</w:rPr>`)
}

var bulletGlyphs = [...]string{"•", "o", "▪"}

// NumberingXML renders word/numbering.xml with one bullet definition shared
// by all bulleted lists and one w:num per numbered list instance, each
// restarting at 1.
func NumberingXML(numberedInstances int) []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<w:numbering xmlns:w="%s">`, wordNS)

	b.WriteString(`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="hybridMultilevel"/>`)
	for lvl := 0; lvl < 9; lvl++ {
		glyph := bulletGlyphs[lvl%len(bulletGlyphs)]
		font := "Calibri"
		if glyph == "o" {
			font = "Courier New"
		}
		fmt.Fprintf(&b, `<w:lvl w:ilvl="%d"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="%s"/><w:lvlJc w:val="left"/>`+
			`<w:pPr><w:ind w:left="%d" w:hanging="360"/></w:pPr><w:rPr><w:rFonts w:ascii="%s" w:hAnsi="%s" w:hint="default"/></w:rPr></w:lvl>`,
			lvl, glyph, 720*(lvl+1), font, font)
	}
	b.WriteString(`</w:abstractNum>`)

	formats := [...]string{"decimal", "lowerLetter", "lowerRoman"}
	b.WriteString(`<w:abstractNum w:abstractNumId="1"><w:multiLevelType w:val="hybridMultilevel"/>`)
	for lvl := 0; lvl < 9; lvl++ {
		fmt.Fprintf(&b, `<w:lvl w:ilvl="%d"><w:start w:val="1"/><w:numFmt w:val="%s"/><w:lvlText w:val="%%%d."/><w:lvlJc w:val="left"/>`+
			`<w:pPr><w:ind w:left="%d" w:hanging="360"/></w:pPr></w:lvl>`,
			lvl, formats[lvl%len(formats)], lvl+1, 720*(lvl+1))
	}
	b.WriteString(`</w:abstractNum>`)

	fmt.Fprintf(&b, `<w:num w:numId="%d"><w:abstractNumId w:val="0"/></w:num>`, BulletNumID)
	for i := 0; i < numberedInstances; i++ {
		fmt.Fprintf(&b, `<w:num w:numId="%d"><w:abstractNumId w:val="1"/>`, FirstNumberedID+i)
		for lvl := 0; lvl < 3; lvl++ {
			fmt.Fprintf(&b, `<w:lvlOverride w:ilvl="%d"><w:startOverride w:val="1"/></w:lvlOverride>`, lvl)
		}
		b.WriteString(`</w:num>`)
	}
	b.WriteString(`</w:numbering>`)
	return []byte(b.String())
}
