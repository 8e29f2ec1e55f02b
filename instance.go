package webcmp

import (
	"context"
	"sync"

	"golang.org/x/net/html"
)

// Instance is one element of a registered tag. It owns the render container
// inside the element's shadow root and hands each connect cycle to a fresh
// Bridge, so an element that is removed and re-inserted mounts again. Only
// the connected cycle renders into the container; a previous cycle that is
// still draining its queue no longer touches it.
type Instance struct {
	entry  *Entry
	root   ShadowRoot
	target *renderTarget

	mu     sync.Mutex
	bridge *Bridge
}

// Connect starts a connect cycle against host. It does nothing while the
// current cycle is still connected.
func (i *Instance) Connect(host Element) {
	i.mu.Lock()
	if i.bridge == nil || i.bridge.State() == Disconnected {
		i.bridge = newBridge(i.entry, i.root, i.target)
	}
	b := i.bridge
	i.mu.Unlock()
	b.Connect(host)
}

// Disconnect ends the current connect cycle.
func (i *Instance) Disconnect() {
	if b := i.Bridge(); b != nil {
		b.Disconnect()
	}
}

// AttributeChanged forwards an attribute change to the current cycle.
// Changes made while the instance has never connected are dropped.
func (i *Instance) AttributeChanged(name string, oldValue, newValue *string) {
	b := i.Bridge()
	if b == nil {
		i.entry.obs.dropped(i.entry.tag, SetAttribute{Name: name, Value: copyString(newValue)}, ErrChannelClosed)
		return
	}
	b.AttributeChanged(name, oldValue, newValue)
}

// GetProperty reads a property from the current cycle's component. It
// resolves to Undefined when no component is mounted.
func (i *Instance) GetProperty(ctx context.Context, name string) Value {
	b := i.Bridge()
	if b == nil {
		return Undefined()
	}
	return b.GetProperty(ctx, name)
}

// SetProperty writes a property to the current cycle's component.
func (i *Instance) SetProperty(name string, v Value) {
	b := i.Bridge()
	if b == nil {
		i.entry.obs.dropped(i.entry.tag, Set{Name: name, Value: v}, ErrChannelClosed)
		return
	}
	b.SetProperty(name, v)
}

// Sync waits until the current cycle's component has handled every message
// sent before the call. See Bridge.Sync.
func (i *Instance) Sync(ctx context.Context) error {
	b := i.Bridge()
	if b == nil {
		return nil
	}
	return b.Sync(ctx)
}

// Wait blocks until the current cycle's component goroutine has exited.
func (i *Instance) Wait(ctx context.Context) error {
	b := i.Bridge()
	if b == nil {
		return nil
	}
	return b.Wait(ctx)
}

// Bridge returns the current cycle's bridge, or nil before the first
// Connect.
func (i *Instance) Bridge() *Bridge {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bridge
}

// Entry returns the registry entry the instance was created from.
func (i *Instance) Entry() *Entry {
	return i.entry
}

// Container returns the node the component renders into.
func (i *Instance) Container() *html.Node {
	return i.target.node
}
