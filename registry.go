package webcmp

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pthm/webcmp/lib/dts"
)

// ContainerClass is the class of the div each instance renders into.
const ContainerClass = "webcmp"

// Entry is a registered custom element: its tag, binding descriptor, style
// and component builder.
type Entry struct {
	tag        string
	desc       *Descriptor
	style      Style
	build      Builder
	log        logr.Logger
	obs        observers
	getTimeout time.Duration
}

// PropertyInfo describes a property accessor the host must define.
type PropertyInfo struct {
	Name     string
	Readonly bool
}

// Tag returns the element's tag name.
func (e *Entry) Tag() string { return e.tag }

// Descriptor returns the binding descriptor.
func (e *Entry) Descriptor() *Descriptor { return e.desc }

// Style returns the injected style.
func (e *Entry) Style() Style { return e.style }

// Attributes returns the observed attribute names in declaration order.
func (e *Entry) Attributes() []string { return e.desc.ObservedAttributes() }

// Properties returns the property accessors in declaration order.
func (e *Entry) Properties() []PropertyInfo {
	props := e.desc.Properties()
	out := make([]PropertyInfo, len(props))
	for i, p := range props {
		out[i] = PropertyInfo{Name: p.Name, Readonly: p.Readonly}
	}
	return out
}

// Events returns the DOM event names the component can dispatch.
func (e *Entry) Events() []string {
	events := e.desc.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Name
	}
	return out
}

// Declaration returns the TypeScript declaration for the element.
func (e *Entry) Declaration() string {
	return dts.String(e.desc.declaration(e.tag))
}

// NewInstance prepares a new element's shadow root: it injects the entry's
// style and appends the render container. The component is not built until
// the instance connects.
func (e *Entry) NewInstance(ctx context.Context, root ShadowRoot) (*Instance, error) {
	if err := e.style.Inject(ctx, root); err != nil {
		return nil, fmt.Errorf("webcmp: inject style for <%s>: %w", e.tag, err)
	}
	container := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "class", Val: ContainerClass}},
	}
	root.AppendChild(container)
	return &Instance{entry: e, root: root, target: &renderTarget{node: container}}, nil
}

// Registry maps tag names to entries. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	opts    Options
}

// NewRegistry creates an empty registry. opts apply to every entry
// registered afterwards.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		opts:    opts.withDefaults(),
	}
}

// Options returns the registry's effective options.
func (reg *Registry) Options() Options {
	return reg.opts
}

// Register adds a custom element. Registering a tag again replaces the
// previous entry; instances already created keep the old one.
func (reg *Registry) Register(tag string, desc *Descriptor, style Style, build Builder) (*Entry, error) {
	switch {
	case tag == "":
		return nil, fmt.Errorf("%w: empty tag", ErrInvalidEntry)
	case desc == nil:
		return nil, fmt.Errorf("%w: <%s> has no descriptor", ErrInvalidEntry, tag)
	case build == nil:
		return nil, fmt.Errorf("%w: <%s> has no builder", ErrInvalidEntry, tag)
	}

	entry := &Entry{
		tag:        tag,
		desc:       desc,
		style:      style,
		build:      build,
		log:        reg.opts.Logger.WithValues("tag", tag),
		obs:        observers(reg.opts.Observers),
		getTimeout: reg.opts.GetTimeout,
	}

	reg.mu.Lock()
	_, exists := reg.entries[tag]
	reg.entries[tag] = entry
	reg.mu.Unlock()

	if exists {
		reg.opts.Logger.Info("replacing registered element", "tag", tag)
	} else {
		reg.opts.Logger.V(1).Info("registered element", "tag", tag,
			"attributes", len(desc.Attributes()),
			"properties", len(desc.Properties()),
			"events", len(desc.Events()))
	}
	return entry, nil
}

// MustRegister is like Register but panics on error.
func (reg *Registry) MustRegister(tag string, desc *Descriptor, style Style, build Builder) *Entry {
	entry, err := reg.Register(tag, desc, style, build)
	if err != nil {
		panic(err)
	}
	return entry
}

// Lookup returns the entry for tag.
func (reg *Registry) Lookup(tag string) (*Entry, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	e, ok := reg.entries[tag]
	return e, ok
}

// Tags returns the registered tags in sorted order.
func (reg *Registry) Tags() []string {
	reg.mu.RLock()
	tags := make([]string, 0, len(reg.entries))
	for tag := range reg.entries {
		tags = append(tags, tag)
	}
	reg.mu.RUnlock()
	sort.Strings(tags)
	return tags
}

// Declarations writes a TypeScript declaration file covering every
// registered element.
func (reg *Registry) Declarations(w io.Writer) error {
	tags := reg.Tags()
	elements := make([]dts.Element, 0, len(tags))
	for _, tag := range tags {
		if e, ok := reg.Lookup(tag); ok {
			elements = append(elements, e.desc.declaration(tag))
		}
	}
	return dts.Render(w, "", elements...)
}

// Default is the registry used by the package-level Register and Lookup.
var Default = NewRegistry(Options{})

// Register adds a custom element to the Default registry.
func Register(tag string, desc *Descriptor, style Style, build Builder) (*Entry, error) {
	return Default.Register(tag, desc, style, build)
}

// Lookup returns the entry for tag in the Default registry.
func Lookup(tag string) (*Entry, bool) {
	return Default.Lookup(tag)
}
