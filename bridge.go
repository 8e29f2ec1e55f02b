package webcmp

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// BridgeState is the lifecycle state of a Bridge.
type BridgeState int

const (
	Unconnected BridgeState = iota
	Connected
	Disconnected
)

func (s BridgeState) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// Bridge connects the host's lifecycle callbacks to one mounted component
// for a single connect cycle. Disconnected is terminal; a reconnect needs a
// new Bridge (Instance creates them).
//
// All methods are safe to call from any goroutine and never fail: messages
// that cannot be delivered are dropped and property reads that cannot be
// served resolve to Undefined.
type Bridge struct {
	entry  *Entry
	root   ShadowRoot
	target *renderTarget
	log    logr.Logger

	mu     sync.Mutex
	state  BridgeState
	cycle  uint64
	handle *Handle
	done   chan struct{}
}

func newBridge(entry *Entry, root ShadowRoot, target *renderTarget) *Bridge {
	return &Bridge{
		entry:  entry,
		root:   root,
		target: target,
		log:    entry.log,
	}
}

// State returns the bridge's lifecycle state.
func (b *Bridge) State() BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Connect mounts the component against host. The mount completes
// asynchronously: host callbacks made before the component installs its
// sender are dropped, and the component instead sees the host's attribute
// values as they are at install time. Connecting a connected or
// disconnected bridge does nothing.
func (b *Bridge) Connect(host Element) {
	b.mu.Lock()
	if b.state != Unconnected {
		state := b.state
		b.mu.Unlock()
		b.log.V(1).Info("ignoring connect", "state", state.String())
		return
	}
	b.state = Connected
	b.cycle = b.target.acquire()
	b.handle = newHandle(b.entry.tag, host, b.entry.desc.ObservedAttributes(), b.entry.obs)
	b.done = make(chan struct{})
	m := &mount{
		entry:  b.entry,
		handle: b.handle,
		root:   b.root,
		target: b.target,
		cycle:  b.cycle,
		log:    b.log,
		done:   b.done,
	}
	b.mu.Unlock()

	b.entry.obs.connected(b.entry.tag)
	go m.run(context.Background())
}

// Disconnect clears the sender so later callbacks are dropped, and closes
// the channel. Messages already queued, including pending property reads,
// are still handled before the component's goroutine exits, but the
// component no longer renders.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	if b.state != Connected {
		b.mu.Unlock()
		return
	}
	b.state = Disconnected
	h := b.handle
	b.mu.Unlock()

	b.target.release(b.cycle)
	if s := h.clear(); s != nil {
		s.Close()
	}
	b.entry.obs.disconnected(b.entry.tag)
}

// AttributeChanged forwards an observed attribute change. Changes where the
// old and new values are equal, and names that are not observed, produce no
// message.
func (b *Bridge) AttributeChanged(name string, oldValue, newValue *string) {
	if sameValue(oldValue, newValue) {
		return
	}
	msg := SetAttribute{Name: name, Value: copyString(newValue)}
	if _, ok := b.entry.desc.Attribute(name); !ok {
		b.drop(msg, ErrUnknownName)
		return
	}
	b.send(msg)
}

// SetProperty forwards a property write. Unknown and read-only properties
// are dropped.
func (b *Bridge) SetProperty(name string, v Value) {
	msg := Set{Name: name, Value: v}
	spec, ok := b.entry.desc.Property(name)
	if !ok {
		b.drop(msg, ErrUnknownName)
		return
	}
	if spec.Readonly {
		b.drop(msg, ErrReadonly)
		return
	}
	b.send(msg)
}

// GetProperty reads a property's current value from the component. It waits
// for the reply until ctx ends, the get timeout elapses or the component
// goroutine exits, and resolves to Undefined in each of those cases.
func (b *Bridge) GetProperty(ctx context.Context, name string) Value {
	replies := make(chan Value, 1)
	msg := Get{Name: name, Reply: replies}
	if _, ok := b.entry.desc.Property(name); !ok {
		b.drop(msg, ErrUnknownName)
		return Undefined()
	}

	b.mu.Lock()
	h, done := b.handle, b.done
	b.mu.Unlock()

	if h == nil {
		b.drop(msg, ErrChannelClosed)
		return Undefined()
	}
	if !h.send(msg) {
		b.log.V(1).Info("property read without a mounted component", "property", name)
		return Undefined()
	}

	timer := time.NewTimer(b.entry.getTimeout)
	defer timer.Stop()

	select {
	case v := <-replies:
		return v
	case <-done:
		select {
		case v := <-replies:
			return v
		default:
		}
		b.log.V(1).Info("component exited before replying", "property", name)
	case <-ctx.Done():
		b.log.V(1).Info("property read cancelled", "property", name, "error", ctx.Err().Error())
	case <-timer.C:
		b.log.V(1).Info("property read timed out", "property", name, "timeout", b.entry.getTimeout.String())
	}
	return Undefined()
}

// Sync blocks until the component has mounted and handled, and rendered
// for, every message sent before the call. It returns nil without waiting
// when the bridge never connected or its component has already exited, and
// ErrChannelClosed when the bridge disconnected before the barrier could be
// queued.
func (b *Bridge) Sync(ctx context.Context) error {
	b.mu.Lock()
	h, done := b.handle, b.done
	b.mu.Unlock()
	if h == nil {
		return nil
	}

	select {
	case <-h.Ready():
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	ack := make(chan struct{})
	if !h.send(barrier{ack: ack}) {
		return ErrChannelClosed
	}
	select {
	case <-ack:
		return nil
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the component goroutine of this bridge has exited or
// ctx ends. It returns immediately for a bridge that never connected.
func (b *Bridge) Wait(ctx context.Context) error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle returns the shared handle of the current cycle, or nil before
// Connect.
func (b *Bridge) Handle() *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

func (b *Bridge) send(msg Message) {
	b.mu.Lock()
	h := b.handle
	b.mu.Unlock()
	if h == nil {
		b.drop(msg, ErrChannelClosed)
		return
	}
	if !h.send(msg) {
		b.log.V(1).Info("dropped message without a mounted component", "kind", msg.Kind())
	}
}

func (b *Bridge) drop(msg Message, reason error) {
	b.log.V(1).Info("dropped message", "kind", msg.Kind(), "reason", reason.Error())
	b.entry.obs.dropped(b.entry.tag, msg, reason)
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
