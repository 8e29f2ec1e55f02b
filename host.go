package webcmp

import (
	"github.com/pthm/webcmp/lib/dom"
	"golang.org/x/net/html"
)

// Element is the host element a component instance is connected to.
// *dom.Element implements it.
type Element interface {
	GetAttribute(name string) (string, bool)
	DispatchEvent(ev *dom.Event) bool
}

// ShadowRoot is the root an instance renders into. Implementations must
// serialise mutations; *dom.ShadowRoot does.
type ShadowRoot interface {
	AppendChild(n *html.Node)
	ReplaceChildren(parent *html.Node, children ...*html.Node)
}

var (
	_ Element    = (*dom.Element)(nil)
	_ ShadowRoot = (*dom.ShadowRoot)(nil)
)
