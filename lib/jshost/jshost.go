// Package jshost exposes registered custom elements to a goja JavaScript
// runtime, playing the part of the browser's custom element shim.
//
// Scripts get a global "webcmp" object:
//
//	const el = webcmp.create("plop-counter");
//	el.setAttribute("count", "2");
//	el.connect();
//	el.settle();
//	el.count;          // 2, read through the component
//	el.count = 5;      // written through the component
//	el.addEventListener("changed", (ev) => console.log(ev.detail));
//
// Property accessors are defined per registered property; read-only
// properties get a getter and no setter.
//
// A goja.Runtime is not safe for concurrent use, while components dispatch
// events from their own goroutines. Events bound for JavaScript listeners
// are therefore queued and delivered by Flush on the runtime's goroutine.
// settle(), property reads and webcmp.flush() flush implicitly, and keep
// flushing while they wait on a component.
//
// A component dispatching a cancelable event waits until the listeners have
// run, so ev.preventDefault() is seen by the component. The wait is bounded
// by Options.ListenerTimeout; an event that is not delivered in time is
// treated as not cancelled.
package jshost

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/pthm/webcmp"
	"github.com/pthm/webcmp/lib/dom"
)

const (
	// DefaultSettleTimeout bounds settle() when Options.SettleTimeout is unset.
	DefaultSettleTimeout = 5 * time.Second
	// DefaultListenerTimeout is used when Options.ListenerTimeout is unset.
	DefaultListenerTimeout = time.Second
)

// Options configures a Host.
type Options struct {
	// SettleTimeout bounds how long settle() waits for a component.
	SettleTimeout time.Duration
	// ListenerTimeout bounds how long a component dispatching a cancelable
	// event waits for the runtime to run its listeners.
	ListenerTimeout time.Duration
}

// Host binds a registry to a JavaScript runtime.
type Host struct {
	vm     *goja.Runtime
	reg    *webcmp.Registry
	logger *zap.Logger
	opts   Options

	wake      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	pending  []*pendingEvent
	elements []*element
}

// pendingEvent is an event waiting for the runtime goroutine. handled is
// nil for events the dispatching component does not wait on.
type pendingEvent struct {
	el        *element
	ev        *dom.Event
	handled   chan struct{}
	prevented atomic.Bool
}

// New creates a host for vm and reg. Call Bind to install the global.
func New(vm *goja.Runtime, reg *webcmp.Registry, logger *zap.Logger, opts Options) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = DefaultSettleTimeout
	}
	if opts.ListenerTimeout <= 0 {
		opts.ListenerTimeout = DefaultListenerTimeout
	}
	return &Host{
		vm:     vm,
		reg:    reg,
		logger: logger.Named("jshost"),
		opts:   opts,
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// Bind installs the "webcmp" global object.
func (h *Host) Bind() error {
	obj := h.vm.NewObject()
	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"tags":         h.jsTags,
		"create":       h.jsCreate,
		"flush":        h.jsFlush,
		"declarations": h.jsDeclarations,
	} {
		if err := obj.Set(name, fn); err != nil {
			return fmt.Errorf("jshost: bind %s: %w", name, err)
		}
	}
	if err := h.vm.GlobalObject().Set("webcmp", obj); err != nil {
		return fmt.Errorf("jshost: bind global: %w", err)
	}
	return nil
}

// Flush delivers queued events to JavaScript listeners and returns how many
// were delivered. It must be called on the runtime's goroutine.
func (h *Host) Flush() int {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, p := range pending {
		p.el.deliver(p)
		if p.handled != nil {
			close(p.handled)
		}
	}
	return len(pending)
}

// await runs fn off the runtime goroutine and flushes events until it
// returns, so a component waiting on its listeners can make progress.
func (h *Host) await(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	for {
		select {
		case <-done:
			h.Flush()
			return
		case <-h.wake:
			h.Flush()
		}
	}
}

// Close disconnects every element created by the host and waits for their
// components to exit.
func (h *Host) Close(ctx context.Context) error {
	h.closeOnce.Do(func() { close(h.closed) })

	h.mu.Lock()
	elements := h.elements
	h.elements = nil
	h.mu.Unlock()

	var errs []error
	for _, el := range elements {
		el.inst.Disconnect()
		if err := el.inst.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("<%s>: %w", el.entry.Tag(), err))
		}
	}
	return errors.Join(errs...)
}

// dispatch hands ev to the runtime goroutine. It runs on the component's
// goroutine and, for cancelable events, waits for the listeners.
func (h *Host) dispatch(el *element, ev *dom.Event) {
	p := &pendingEvent{el: el, ev: ev}
	if ev.Cancelable {
		p.handled = make(chan struct{})
	}

	h.mu.Lock()
	h.pending = append(h.pending, p)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}

	if p.handled == nil {
		return
	}
	timer := time.NewTimer(h.opts.ListenerTimeout)
	defer timer.Stop()
	select {
	case <-p.handled:
		if p.prevented.Load() {
			ev.PreventDefault()
		}
	case <-h.closed:
	case <-timer.C:
		h.logger.Debug("event listeners did not run in time",
			zap.String("event", ev.Type), zap.Duration("timeout", h.opts.ListenerTimeout))
	}
}

func (h *Host) jsTags(goja.FunctionCall) goja.Value {
	return h.vm.ToValue(h.reg.Tags())
}

func (h *Host) jsFlush(goja.FunctionCall) goja.Value {
	return h.vm.ToValue(h.Flush())
}

func (h *Host) jsDeclarations(goja.FunctionCall) goja.Value {
	var b strings.Builder
	if err := h.reg.Declarations(&b); err != nil {
		panic(h.vm.NewGoError(err))
	}
	return h.vm.ToValue(b.String())
}

func (h *Host) jsCreate(call goja.FunctionCall) goja.Value {
	tag := call.Argument(0).String()
	entry, ok := h.reg.Lookup(tag)
	if !ok {
		panic(h.vm.NewTypeError("webcmp.create: <%s> is not registered", tag))
	}

	el, err := h.newElement(entry)
	if err != nil {
		panic(h.vm.NewGoError(err))
	}
	h.mu.Lock()
	h.elements = append(h.elements, el)
	h.mu.Unlock()

	h.logger.Debug("created element", zap.String("tag", tag))
	return el.obj
}
