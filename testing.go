package webcmp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pthm/webcmp/lib/dom"
)

// Probe is an Observer that records message traffic and renders. TestHost
// installs one; it can also be passed in Options.Observers directly.
type Probe struct {
	mu           sync.Mutex
	connects     int
	disconnects  int
	sent         []Message
	dropped      []Dropped
	applied      []Message
	states       []map[string]any
	renders      int
	renderErrors []error
}

// Dropped is a message the probe saw being discarded.
type Dropped struct {
	Message Message
	Reason  error
}

var _ Observer = (*Probe)(nil)

// NewProbe creates an empty probe.
func NewProbe() *Probe {
	return &Probe{}
}

func (p *Probe) Connected(string) {
	p.mu.Lock()
	p.connects++
	p.mu.Unlock()
}

func (p *Probe) Disconnected(string) {
	p.mu.Lock()
	p.disconnects++
	p.mu.Unlock()
}

func (p *Probe) MessageSent(_ string, m Message) {
	p.mu.Lock()
	p.sent = append(p.sent, m)
	p.mu.Unlock()
}

func (p *Probe) MessageDropped(_ string, m Message, reason error) {
	p.mu.Lock()
	p.dropped = append(p.dropped, Dropped{Message: m, Reason: reason})
	p.mu.Unlock()
}

func (p *Probe) MessageApplied(_ string, m Message, state map[string]any) {
	p.mu.Lock()
	p.applied = append(p.applied, m)
	p.states = append(p.states, state)
	p.mu.Unlock()
}

func (p *Probe) Rendered(_ string, err error) {
	p.mu.Lock()
	p.renders++
	if err != nil {
		p.renderErrors = append(p.renderErrors, err)
	}
	p.mu.Unlock()
}

// Sent returns the messages enqueued so far, in order.
func (p *Probe) Sent() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.sent...)
}

// Dropped returns the messages discarded so far.
func (p *Probe) Dropped() []Dropped {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Dropped(nil), p.dropped...)
}

// Applied returns the messages the consumer handled, in order.
func (p *Probe) Applied() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.applied...)
}

// State returns the slot snapshot taken after the last applied message, or
// nil when nothing was applied yet.
func (p *Probe) State() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) == 0 {
		return nil
	}
	return p.states[len(p.states)-1]
}

// Renders returns the number of render attempts.
func (p *Probe) Renders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renders
}

// RenderErrors returns the failed render attempts.
func (p *Probe) RenderErrors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.renderErrors...)
}

// Connects returns the number of connects and disconnects seen.
func (p *Probe) Connects() (connects, disconnects int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects, p.disconnects
}

// WaitFor polls cond until it reports true or ctx ends.
//
//	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
//	defer cancel()
//	err := webcmp.WaitFor(ctx, func() bool { return el.Text() == "3" })
func WaitFor(ctx context.Context, cond func() bool) error {
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		if cond() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// TestHost runs a registered element against the in-memory DOM, without a
// browser or JavaScript runtime.
//
//	host := webcmp.NewTestHost(webcmp.Options{})
//	host.Registry.MustRegister("plop-counter", desc, webcmp.NoStyle(), build)
//	el, err := host.Mount(ctx, "plop-counter", map[string]string{"count": "2"})
//	el.Settle(ctx)
//	el.Text() // "2"
//
// The probe aggregates traffic across everything mounted from the host, so
// tests that count messages should mount one element per host.
type TestHost struct {
	Registry *Registry
	Probe    *Probe
}

// NewTestHost creates a host with its own registry. The probe is added to
// opts.Observers.
func NewTestHost(opts Options) *TestHost {
	probe := NewProbe()
	opts.Observers = append(append([]Observer(nil), opts.Observers...), probe)
	return &TestHost{
		Registry: NewRegistry(opts),
		Probe:    probe,
	}
}

// Mounted is an element created by TestHost.Mount.
type Mounted struct {
	Element  *dom.Element
	Root     *dom.ShadowRoot
	Instance *Instance

	mu     sync.Mutex
	events []*dom.Event
}

// Mount creates an element of tag with the given initial attributes,
// attaches its shadow root and connects it, as a browser does when the
// element is inserted into the document.
func (h *TestHost) Mount(ctx context.Context, tag string, attrs map[string]string) (*Mounted, error) {
	entry, ok := h.Registry.Lookup(tag)
	if !ok {
		return nil, fmt.Errorf("%w: <%s> is not registered", ErrInvalidEntry, tag)
	}

	el := dom.NewElement(tag)
	for k, v := range attrs {
		el.SetAttribute(k, v)
	}
	root := el.AttachShadow()
	inst, err := entry.NewInstance(ctx, root)
	if err != nil {
		return nil, err
	}

	m := &Mounted{Element: el, Root: root, Instance: inst}
	for _, name := range entry.Events() {
		el.AddEventListener(name, m.record)
	}
	el.ObserveAttributes(entry.Attributes(), inst.AttributeChanged)
	inst.Connect(el)
	return m, nil
}

func (m *Mounted) record(ev *dom.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
}

// Events returns the events the component dispatched, in order.
func (m *Mounted) Events() []*dom.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*dom.Event(nil), m.events...)
}

// SetAttribute sets an attribute on the host element.
func (m *Mounted) SetAttribute(name, value string) {
	m.Element.SetAttribute(name, value)
}

// RemoveAttribute removes an attribute from the host element.
func (m *Mounted) RemoveAttribute(name string) {
	m.Element.RemoveAttribute(name)
}

// Get reads a property through the instance.
func (m *Mounted) Get(ctx context.Context, name string) Value {
	return m.Instance.GetProperty(ctx, name)
}

// Set writes a property through the instance.
func (m *Mounted) Set(name string, v any) {
	m.Instance.SetProperty(name, ValueOf(v))
}

// Disconnect removes the element from the document.
func (m *Mounted) Disconnect() {
	m.Instance.Disconnect()
}

// Connect re-inserts a disconnected element.
func (m *Mounted) Connect() {
	m.Instance.Connect(m.Element)
}

// Settle waits until the component has mounted, rendered, and handled
// every message sent to it so far. For a disconnected element it waits for
// the component goroutine to exit.
func (m *Mounted) Settle(ctx context.Context) error {
	b := m.Instance.Bridge()
	if b == nil {
		return nil
	}
	if b.State() == Disconnected {
		return b.Wait(ctx)
	}
	return b.Sync(ctx)
}

// HTML returns the markup inside the render container.
func (m *Mounted) HTML() string {
	return m.Root.InnerHTML(m.Instance.Container())
}

// Text returns the text content of the shadow root.
func (m *Mounted) Text() string {
	return m.Root.Text()
}
