// Package markup turns the rich-text letter body into paragraphs of styled
// spans ready for line layout.
//
// Supported tags: p, div, h1-h3, br, b/strong, i/em, u. A text-align style
// or an align attribute on a block sets the paragraph alignment. Anything
// else contributes its text only.
package markup

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Style is the inline formatting of a span.
type Style struct {
	Bold      bool
	Italic    bool
	Underline bool
}

// Span is a run of text with a single style.
type Span struct {
	Text string
	Style
}

// Paragraph is one block of the body.
type Paragraph struct {
	Spans []Span
	// Align is empty when the block does not specify one.
	Align layout.Alignment
	// Scale multiplies the body font size (headings).
	Scale float64
}

// Text concatenates the text of all spans.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, s := range p.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

var headingScale = map[atom.Atom]float64{
	atom.H1: 1.6,
	atom.H2: 1.35,
	atom.H3: 1.15,
}

type parser struct {
	out []Paragraph
	cur *Paragraph
}

// Parse reads body markup. Plain text without tags is accepted; blank
// lines in it separate paragraphs.
func Parse(src string) ([]Paragraph, error) {
	if !strings.Contains(src, "<") {
		return plain(src), nil
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse body markup: %w", err)
	}
	p := &parser{}
	for _, n := range nodes {
		p.walk(n, Style{}, "", 1)
	}
	p.flush()
	return p.out, nil
}

func plain(src string) []Paragraph {
	var out []Paragraph
	for _, block := range strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n\n") {
		t := collapse(block)
		if t == "" {
			continue
		}
		out = append(out, Paragraph{Spans: []Span{{Text: t}}, Scale: 1})
	}
	return out
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.Li, atom.Blockquote:
		return true
	}
	return false
}

func (p *parser) flush() {
	if p.cur == nil {
		return
	}
	spans := trimSpans(p.cur.Spans)
	if len(spans) > 0 {
		p.cur.Spans = spans
		p.out = append(p.out, *p.cur)
	}
	p.cur = nil
}

func (p *parser) open(align layout.Alignment, scale float64) {
	if p.cur == nil {
		p.cur = &Paragraph{Align: align, Scale: scale}
	}
}

func (p *parser) walk(n *html.Node, st Style, align layout.Alignment, scale float64) {
	switch n.Type {
	case html.TextNode:
		t := collapse(n.Data)
		if t == "" && !strings.ContainsAny(n.Data, " \t\n") {
			return
		}
		if t == "" {
			t = " "
		} else {
			if startsWithSpace(n.Data) {
				t = " " + t
			}
			if endsWithSpace(n.Data) {
				t += " "
			}
		}
		p.open(align, scale)
		p.cur.Spans = append(p.cur.Spans, Span{Text: t, Style: st})
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.walk(c, st, align, scale)
		}
		return
	}

	switch n.DataAtom {
	case atom.Br:
		p.flush()
		return
	case atom.B, atom.Strong:
		st.Bold = true
	case atom.I, atom.Em:
		st.Italic = true
	case atom.U:
		st.Underline = true
	case atom.Script, atom.Style:
		return
	}

	block := isBlock(n.DataAtom)
	if block {
		p.flush()
		if a := blockAlign(n); a != "" {
			align = a
		}
		if s, ok := headingScale[n.DataAtom]; ok {
			scale = s
			st.Bold = true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, st, align, scale)
	}
	if block {
		p.flush()
	}
}

func blockAlign(n *html.Node) layout.Alignment {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "align":
			if al, err := layout.ParseAlignment(a.Val); err == nil {
				return al
			}
		case "style":
			for _, decl := range strings.Split(a.Val, ";") {
				k, v, ok := strings.Cut(decl, ":")
				if !ok || strings.TrimSpace(strings.ToLower(k)) != "text-align" {
					continue
				}
				if al, err := layout.ParseAlignment(v); err == nil {
					return al
				}
			}
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func startsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r", rune(s[0]))
}

func endsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r", rune(s[len(s)-1]))
}

// trimSpans drops leading/trailing blanks and merges doubled spaces at
// span borders.
func trimSpans(in []Span) []Span {
	out := make([]Span, 0, len(in))
	for _, s := range in {
		if len(out) > 0 && strings.HasSuffix(out[len(out)-1].Text, " ") {
			s.Text = strings.TrimLeft(s.Text, " ")
		}
		if s.Text == "" {
			continue
		}
		out = append(out, s)
	}
	for len(out) > 0 {
		out[0].Text = strings.TrimLeft(out[0].Text, " ")
		if out[0].Text != "" {
			break
		}
		out = out[1:]
	}
	for len(out) > 0 {
		last := &out[len(out)-1]
		last.Text = strings.TrimRight(last.Text, " ")
		if last.Text != "" {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}
