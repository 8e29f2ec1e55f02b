package webcmp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/net/html"
)

// mount is the consumer side of one connect cycle. It owns the component
// and its State; nothing else touches them.
type mount struct {
	entry  *Entry
	handle *Handle
	root   ShadowRoot
	target *renderTarget
	cycle  uint64
	log    logr.Logger
	done   chan struct{}
}

// renderTarget is the container node shared by the connect cycles of one
// instance. At most one cycle owns it, and only the owner may replace its
// children.
type renderTarget struct {
	node *html.Node

	mu    sync.Mutex
	owner uint64
	last  uint64
}

// acquire hands the target to a new cycle and returns the cycle's id.
func (t *renderTarget) acquire() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last++
	t.owner = t.last
	return t.owner
}

// release gives up ownership if cycle still holds it.
func (t *renderTarget) release(cycle uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner == cycle {
		t.owner = 0
	}
}

func (t *renderTarget) owned(cycle uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner == cycle
}

// replace swaps the target's children for nodes if cycle owns it.
func (t *renderTarget) replace(root ShadowRoot, cycle uint64, nodes []*html.Node) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner != cycle {
		return false
	}
	root.ReplaceChildren(t.node, nodes...)
	return true
}

var errNotOwner = errors.New("render target released")

// run mounts the component and drains the instance channel until it is
// closed. It returns without rendering if the bridge disconnected before the
// sender could be installed.
func (m *mount) run(ctx context.Context) {
	defer close(m.done)

	comp := m.entry.build()
	state := newState(m.entry.desc, m.handle.Host(), m.log)

	tx, rx := newChannel()
	if !m.handle.install(tx) {
		m.log.V(1).Info("disconnected before mount completed")
		return
	}

	m.render(ctx, comp, state)

	for {
		msg, ok := rx.Recv(ctx)
		if !ok {
			return
		}
		bound, changed := m.apply(state, msg)
		if changed {
			m.update(ctx, comp, state, bound)
			m.render(ctx, comp, state)
		}
		m.entry.obs.applied(m.entry.tag, msg, state.Snapshot)
	}
}

// apply handles one message and reports the slot it changed.
func (m *mount) apply(state *State, msg Message) (string, bool) {
	desc := m.entry.desc

	switch msg := msg.(type) {
	case SetAttribute:
		spec, ok := desc.Attribute(msg.Name)
		if !ok {
			m.log.V(1).Info("ignoring unobserved attribute", "attribute", msg.Name)
			return "", false
		}
		state.Set(spec.Bound, parseAttribute(spec, msg.Value))
		return spec.Bound, true

	case Set:
		spec, ok := desc.Property(msg.Name)
		if !ok || spec.Readonly {
			m.log.V(1).Info("ignoring property write", "property", msg.Name)
			return "", false
		}
		v, err := spec.FromExternal(msg.Value)
		if err != nil {
			m.log.V(1).Info("property conversion failed, keeping previous value", "property", msg.Name, "error", err.Error())
			return "", false
		}
		state.Set(spec.Bound, v)
		return spec.Bound, true

	case Get:
		reply(msg.Reply, m.read(state, msg.Name))
		return "", false

	case barrier:
		close(msg.ack)
		return "", false
	}

	m.log.V(1).Info("unknown message", "kind", fmt.Sprintf("%T", msg))
	return "", false
}

// read converts a property's current value for the host.
func (m *mount) read(state *State, name string) Value {
	spec, ok := m.entry.desc.Property(name)
	if !ok {
		return Undefined()
	}
	v, err := spec.ToExternal(state.Get(spec.Bound))
	if err != nil {
		m.log.V(1).Info("property read conversion failed", "property", name, "error", err.Error())
		return Undefined()
	}
	return v
}

func reply(ch chan<- Value, v Value) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}

// parseAttribute resolves an attribute's slot value. Absent or unparsable
// values become nil for optional attributes and the default otherwise.
func parseAttribute(spec AttributeSpec, raw *string) any {
	if raw != nil {
		if v, ok := spec.Parse(*raw); ok {
			return v
		}
	}
	if spec.Optional {
		return nil
	}
	return spec.Default()
}

func (m *mount) update(ctx context.Context, comp Component, state *State, bound string) {
	u, ok := comp.(Updater)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Error(fmt.Errorf("panic: %v", r), "component update panicked", "bound", bound)
		}
	}()
	u.Update(ctx, state, bound)
}

// render renders the component into the instance container. Failures leave
// the previous content in place. Once the cycle has lost the container the
// component is no longer rendered.
func (m *mount) render(ctx context.Context, comp Component, state *State) {
	if !m.target.owned(m.cycle) {
		m.log.V(1).Info("skipping render after disconnect")
		return
	}
	err := m.renderInto(ctx, comp, state)
	if errors.Is(err, errNotOwner) {
		m.log.V(1).Info("discarding render after disconnect")
		return
	}
	if err != nil {
		m.log.Error(err, "component render failed")
	}
	m.entry.obs.rendered(m.entry.tag, err)
}

func (m *mount) renderInto(ctx context.Context, comp Component, state *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panicked: %v", r)
		}
	}()

	var buf bytes.Buffer
	if err := comp.Render(ctx, state).Render(ctx, &buf); err != nil {
		return err
	}
	nodes, err := parseFragment(&buf)
	if err != nil {
		return fmt.Errorf("parse component markup: %w", err)
	}
	if !m.target.replace(m.root, m.cycle, nodes) {
		return errNotOwner
	}
	return nil
}
