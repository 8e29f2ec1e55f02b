// Package webcmpecho serves a webcmp registry from an Echo instance.
//
// The routes give a browser page what it needs to define the registered
// elements and let it fetch server-rendered previews:
//
//	e := echo.New()
//	webcmpecho.Mount(e, reg)
//
//	GET /_wc/elements           element manifest (JSON)
//	GET /_wc/components.d.ts    TypeScript declarations
//	GET /_wc/render/:tag?a=b    element markup with a declarative shadow root
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	webcmpecho.MountGroup(g, reg)
package webcmpecho

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm/webcmp"
	"github.com/pthm/webcmp/lib/dom"
)

// ErrInvalidAttribute is returned by Prerender for an attribute name that
// cannot appear in a start tag.
var ErrInvalidAttribute = errors.New("webcmpecho: invalid attribute name")

// Option configures Mount and MountGroup.
type Option func(*options)

type options struct {
	path          string
	renderTimeout time.Duration
	gatherer      prometheus.Gatherer
}

// WithPath sets the URL path prefix for the routes. Defaults to "/_wc/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithRenderTimeout bounds how long a preview waits for the component to
// settle. Defaults to 2s.
func WithRenderTimeout(d time.Duration) Option {
	return func(o *options) {
		o.renderTimeout = d
	}
}

// WithMetrics also serves g at <path>metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

// Element is one entry of the element manifest.
type Element struct {
	Tag        string     `json:"tag"`
	Attributes []string   `json:"attributes"`
	Properties []Property `json:"properties"`
	Events     []string   `json:"events"`
}

// Property is a property accessor in the element manifest.
type Property struct {
	Name     string `json:"name"`
	Readonly bool   `json:"readonly,omitempty"`
}

// Mount adds the registry routes to e.
func Mount(e *echo.Echo, reg *webcmp.Registry, opts ...Option) {
	h := newHandlers(reg, opts)
	e.GET(h.path+"elements", h.elements)
	e.GET(h.path+"components.d.ts", h.declarations)
	e.GET(h.path+"render/:tag", h.render)
	if h.gatherer != nil {
		e.GET(h.path+"metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

// MountGroup adds the registry routes to g, so they share the group's
// middleware.
func MountGroup(g *echo.Group, reg *webcmp.Registry, opts ...Option) {
	h := newHandlers(reg, opts)
	g.GET(h.path+"elements", h.elements)
	g.GET(h.path+"components.d.ts", h.declarations)
	g.GET(h.path+"render/:tag", h.render)
	if h.gatherer != nil {
		g.GET(h.path+"metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

type handlers struct {
	reg *webcmp.Registry
	options
}

func newHandlers(reg *webcmp.Registry, opts []Option) *handlers {
	o := options{path: "/_wc/", renderTimeout: 2 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if !strings.HasSuffix(o.path, "/") {
		o.path += "/"
	}
	return &handlers{reg: reg, options: o}
}

func (h *handlers) elements(c echo.Context) error {
	return c.JSON(http.StatusOK, Manifest(h.reg))
}

func (h *handlers) declarations(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.reg.Declarations(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/typescript; charset=utf-8", buf.Bytes())
}

func (h *handlers) render(c echo.Context) error {
	tag := c.Param("tag")
	entry, ok := h.reg.Lookup(tag)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("<%s> is not registered", tag))
	}

	attrs := make(map[string]string)
	for name, values := range c.QueryParams() {
		if !validAttributeName(name) {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid attribute name %q", name))
		}
		if len(values) > 0 {
			attrs[name] = values[len(values)-1]
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.renderTimeout)
	defer cancel()

	markup, err := Prerender(ctx, entry, attrs)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return Render(c, markup)
}

// Manifest lists every registered element, sorted by tag.
func Manifest(reg *webcmp.Registry) []Element {
	tags := reg.Tags()
	out := make([]Element, 0, len(tags))
	for _, tag := range tags {
		entry, ok := reg.Lookup(tag)
		if !ok {
			continue
		}
		el := Element{
			Tag:        tag,
			Attributes: entry.Attributes(),
			Events:     entry.Events(),
			Properties: []Property{},
		}
		for _, p := range entry.Properties() {
			el.Properties = append(el.Properties, Property{Name: p.Name, Readonly: p.Readonly})
		}
		out = append(out, el)
	}
	return out
}

// Prerender mounts a throwaway instance of entry with attrs, waits for its
// first settled render and returns the element's markup with the shadow
// root inlined as a declarative <template shadowrootmode="open">.
func Prerender(ctx context.Context, entry *webcmp.Entry, attrs map[string]string) (templ.Component, error) {
	el := dom.NewElement(entry.Tag())
	for name, value := range attrs {
		if !validAttributeName(name) {
			return nil, fmt.Errorf("webcmpecho: attribute %q: %w", name, ErrInvalidAttribute)
		}
		el.SetAttribute(name, value)
	}
	root := el.AttachShadow()
	inst, err := entry.NewInstance(ctx, root)
	if err != nil {
		return nil, err
	}
	inst.Connect(el)
	defer inst.Disconnect()
	if err := inst.Sync(ctx); err != nil {
		return nil, fmt.Errorf("webcmpecho: render <%s>: %w", entry.Tag(), err)
	}

	shadow := root.HTML()
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<" + entry.Tag())
		for _, name := range names {
			fmt.Fprintf(&b, ` %s="%s"`, html.EscapeString(name), html.EscapeString(attrs[name]))
		}
		b.WriteString(`><template shadowrootmode="open">`)
		b.WriteString(shadow)
		b.WriteString("</template></" + entry.Tag() + ">")
		_, err := io.WriteString(w, b.String())
		return err
	}), nil
}

// validAttributeName reports whether name can be written into a start tag
// as a single attribute name.
func validAttributeName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r <= 0x20, r >= 0x7f && r <= 0x9f:
			return false
		case r == '"', r == '\'', r == '>', r == '<', r == '/', r == '=', r == '&', r == '`':
			return false
		case r == utf8.RuneError, r >= 0xfdd0 && r <= 0xfdef, r&0xfffe == 0xfffe:
			return false
		}
	}
	return true
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return webcmpecho.Render(c, myTemplate())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
