package webcmp

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"regexp"

	"github.com/a-h/templ"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type styleKind int

const (
	styleNone styleKind = iota
	styleCSS
	styleSheet
	styleMany
)

// Style describes the stylesheets injected into each instance's shadow root.
// The zero Style injects nothing.
type Style struct {
	kind  styleKind
	text  string
	parts []Style
}

// NoStyle injects nothing.
func NoStyle() Style {
	return Style{}
}

// styleEnd matches the sequences that would close a <style> element early.
var styleEnd = regexp.MustCompile(`(?i)</(style)`)

// CSS injects raw CSS in a <style> element. A "</style" inside the text is
// written as "<\/style", which CSS reads the same way.
func CSS(css string) Style {
	return Style{kind: styleCSS, text: css}
}

// Stylesheet injects a <link rel="stylesheet"> pointing at url.
func Stylesheet(url string) Style {
	return Style{kind: styleSheet, text: url}
}

// Styles combines several styles, injected in order.
func Styles(styles ...Style) Style {
	return Style{kind: styleMany, parts: styles}
}

// IsZero reports whether the style injects nothing.
func (s Style) IsZero() bool {
	switch s.kind {
	case styleNone:
		return true
	case styleMany:
		for _, p := range s.parts {
			if !p.IsZero() {
				return false
			}
		}
		return true
	}
	return false
}

// Component renders the style's markup.
func (s Style) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return s.write(w)
	})
}

func (s Style) write(w io.Writer) error {
	var err error
	switch s.kind {
	case styleCSS:
		_, err = fmt.Fprintf(w, "<style>%s</style>", styleEnd.ReplaceAllString(s.text, `<\/$1`))
	case styleSheet:
		_, err = fmt.Fprintf(w, `<link rel="stylesheet" href="%s">`, html.EscapeString(s.text))
	case styleMany:
		for _, p := range s.parts {
			if err = p.write(w); err != nil {
				return err
			}
		}
	}
	return err
}

// Inject appends the style's elements to root.
func (s Style) Inject(ctx context.Context, root ShadowRoot) error {
	if s.IsZero() {
		return nil
	}
	var buf bytes.Buffer
	if err := s.Component().Render(ctx, &buf); err != nil {
		return err
	}
	nodes, err := parseFragment(&buf)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return nil
}

// parseFragment parses markup as the content of a <div>, which is how
// component output is placed in the render container.
func parseFragment(r io.Reader) ([]*nethtml.Node, error) {
	return nethtml.ParseFragment(r, &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
}
