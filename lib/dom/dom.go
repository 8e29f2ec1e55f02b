// Package dom is a small, goroutine-safe model of the pieces of the browser
// DOM a custom element touches: the host element's attributes and event
// listeners, and its shadow root.
//
// Nodes are golang.org/x/net/html nodes so rendered markup can be parsed
// and inspected with the standard HTML tooling.
package dom

import (
	"bytes"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Event is a dispatched custom event.
type Event struct {
	Type       string
	Detail     any
	Bubbles    bool
	Cancelable bool

	defaultPrevented bool
}

// PreventDefault marks a cancelable event as cancelled.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether a listener cancelled the event.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Listener handles a dispatched event.
type Listener func(*Event)

// AttributeObserver is notified when an attribute value changes. A nil value
// means the attribute is absent.
type AttributeObserver func(name string, oldValue, newValue *string)

// Element is a host element: a tag with attributes, event listeners and an
// optional shadow root.
type Element struct {
	mu        sync.RWMutex
	tag       string
	attrs     map[string]string
	listeners map[string][]Listener
	observer  AttributeObserver
	shadow    *ShadowRoot
}

// NewElement creates an element with the given tag name.
func NewElement(tag string) *Element {
	return &Element{
		tag:       strings.ToLower(tag),
		attrs:     make(map[string]string),
		listeners: make(map[string][]Listener),
	}
}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.tag
}

// GetAttribute returns an attribute value. Attribute names are
// case-insensitive.
func (e *Element) GetAttribute(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.attrs[strings.ToLower(name)]
	return v, ok
}

// Attributes returns a copy of the element's attributes.
func (e *Element) Attributes() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}

// SetAttribute sets an attribute and notifies the observer. The observer
// runs outside the element lock.
func (e *Element) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	e.mu.Lock()
	old, had := e.attrs[name]
	e.attrs[name] = value
	obs := e.observer
	e.mu.Unlock()

	if obs != nil {
		var oldPtr *string
		if had {
			oldPtr = &old
		}
		obs(name, oldPtr, &value)
	}
}

// RemoveAttribute removes an attribute and notifies the observer when it was
// present.
func (e *Element) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	e.mu.Lock()
	old, had := e.attrs[name]
	delete(e.attrs, name)
	obs := e.observer
	e.mu.Unlock()

	if obs != nil && had {
		obs(name, &old, nil)
	}
}

// ObserveAttributes installs the attribute-change callback. Only names in
// the list are reported, matching the custom element observedAttributes
// contract.
func (e *Element) ObserveAttributes(names []string, fn AttributeObserver) {
	observed := make(map[string]struct{}, len(names))
	for _, n := range names {
		observed[strings.ToLower(n)] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if fn == nil {
		e.observer = nil
		return
	}
	e.observer = func(name string, oldValue, newValue *string) {
		if _, ok := observed[name]; ok {
			fn(name, oldValue, newValue)
		}
	}
}

// AddEventListener registers a listener for an event type.
func (e *Element) AddEventListener(eventType string, l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[eventType] = append(e.listeners[eventType], l)
}

// DispatchEvent delivers the event to the listeners registered for its type
// and reports whether the default action is still allowed.
func (e *Element) DispatchEvent(ev *Event) bool {
	e.mu.RLock()
	ls := append([]Listener(nil), e.listeners[ev.Type]...)
	e.mu.RUnlock()

	for _, l := range ls {
		l(ev)
	}
	return !ev.DefaultPrevented()
}

// AttachShadow creates the element's shadow root, or returns the existing
// one.
func (e *Element) AttachShadow() *ShadowRoot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shadow == nil {
		e.shadow = NewShadowRoot()
	}
	return e.shadow
}

// ShadowRoot returns the attached shadow root, or nil.
func (e *Element) ShadowRoot() *ShadowRoot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.shadow
}

// OuterHTML renders the element with its attributes and shadow content.
func (e *Element) OuterHTML() string {
	e.mu.RLock()
	names := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	n := &html.Node{Type: html.ElementNode, Data: e.tag}
	for _, k := range names {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: e.attrs[k]})
	}
	shadow := e.shadow
	e.mu.RUnlock()

	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	out := buf.String()
	if shadow == nil {
		return out
	}
	closing := "</" + e.tag + ">"
	return strings.TrimSuffix(out, closing) + shadow.HTML() + closing
}

// ShadowRoot is a document fragment attached to a host element. All
// mutation goes through its lock so renders from a component goroutine and
// reads from the host never interleave.
type ShadowRoot struct {
	mu   sync.RWMutex
	root *html.Node
}

// NewShadowRoot creates a detached, empty shadow root.
func NewShadowRoot() *ShadowRoot {
	return &ShadowRoot{root: &html.Node{Type: html.DocumentNode}}
}

// AppendChild appends a node at the top level of the shadow root.
func (s *ShadowRoot) AppendChild(n *html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	s.root.AppendChild(n)
}

// ReplaceChildren replaces every child of parent, which must belong to this
// shadow root, with children.
func (s *ShadowRoot) ReplaceChildren(parent *html.Node, children ...*html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := parent.FirstChild; c != nil; c = parent.FirstChild {
		parent.RemoveChild(c)
	}
	for _, c := range children {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		parent.AppendChild(c)
	}
}

// HTML renders the shadow root's content.
func (s *ShadowRoot) HTML() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var buf bytes.Buffer
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// InnerHTML renders the children of n, which must belong to this shadow
// root.
func (s *ShadowRoot) InnerHTML(n *html.Node) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Text returns the concatenated text content of the shadow root, skipping
// <style> elements.
func (s *ShadowRoot) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(s.root)
	return b.String()
}

// Query returns the first element with the given tag name, in document
// order. The returned node must only be read while no render is running.
func (s *ShadowRoot) Query(tag string) *html.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.root, strings.ToLower(tag))
}

func find(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if m := find(c, tag); m != nil {
			return m
		}
	}
	return nil
}
