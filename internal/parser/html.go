package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/manualgen/internal/plan"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Markup is sanitized before it is walked so
// scripts, styles and event handlers never reach the plan.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*plan.Plan, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	full, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	clean := bluemonday.UGCPolicy().SanitizeBytes(raw)
	doc, err := html.Parse(bytes.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("parse sanitized html: %w", err)
	}

	a := newAssembler(filename)
	if title := findTitle(full); title != "" {
		a.title(title)
	}
	h := &htmlWalker{a: a}
	if body := findBody(doc); body != nil {
		h.walk(body)
	} else {
		h.walk(doc)
	}
	return a.finish(), nil
}

type htmlWalker struct {
	a *assembler
}

func (h *htmlWalker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if level := headingLevel(n.Data); level > 0 {
			title := textContent(n)
			switch level {
			case 1:
				h.a.title(title)
			case 2:
				h.a.section(title)
			default:
				h.a.add(plan.Heading(clampHeading(level), title))
			}
			return
		}

		switch n.Data {
		case "p":
			h.paragraph(n)
			return
		case "ul", "ol":
			h.list(n, 0)
			return
		case "pre":
			h.a.add(plan.Code(strings.TrimRight(rawText(n), "\n")))
			return
		case "img":
			if src := attr(n, "src"); src != "" {
				h.a.add(plan.Image(src, 0))
			}
			return
		case "hr":
			h.a.add(plan.PageBreak())
			return
		case "tr":
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, textContent(c))
				}
			}
			if len(cells) > 0 {
				h.a.add(plan.Text(strings.Join(cells, " | ")))
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		h.walk(c)
	}
}

// paragraph emits the runs of n, splitting images into their own blocks.
func (h *htmlWalker) paragraph(n *html.Node) {
	var runs []plan.Run
	var collect func(*html.Node, bool, bool)
	collect = func(n *html.Node, bold, italic bool) {
		switch n.Type {
		case html.TextNode:
			runs = append(runs, plan.Run{Text: collapseSpace(n.Data), Bold: bold, Italic: italic})
			return
		case html.ElementNode:
			switch n.Data {
			case "strong", "b":
				bold = true
			case "em", "i":
				italic = true
			case "br":
				runs = append(runs, plan.Run{Text: "\n", Bold: bold, Italic: italic})
				return
			case "img":
				h.a.paragraph(runs)
				runs = nil
				if src := attr(n, "src"); src != "" {
					h.a.add(plan.Image(src, 0))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c, bold, italic)
		}
	}
	collect(n, false, false)
	h.a.paragraph(runs)
}

func (h *htmlWalker) list(n *html.Node, level int) {
	kind := plan.ListBullet
	if n.Data == "ol" {
		kind = plan.ListNumber
	}
	level = min(level, plan.MaxListLevel)
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		var text strings.Builder
		var nested []*html.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				nested = append(nested, c)
				continue
			}
			text.WriteString(collapseSpace(rawText(c)))
		}
		h.a.add(plan.Item(kind, level, strings.TrimSpace(text.String())))
		for _, sub := range nested {
			h.list(sub, level+1)
		}
	}
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// rawText concatenates the text below n without touching whitespace.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func textContent(n *html.Node) string {
	return strings.TrimSpace(collapseSpace(rawText(n)))
}

// collapseSpace folds every whitespace sequence to one space.
func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	fields := strings.Fields(s)
	out := strings.Join(fields, " ")
	if isSpace(s[0]) && out != "" {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
