package jshost

import (
	"context"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/pthm/webcmp"
	"github.com/pthm/webcmp/lib/dom"
)

// element is the JavaScript wrapper around one custom element instance.
type element struct {
	host  *Host
	entry *webcmp.Entry
	dom   *dom.Element
	inst  *webcmp.Instance
	obj   *goja.Object

	// listeners is only touched on the runtime goroutine.
	listeners map[string][]goja.Callable
}

func (h *Host) newElement(entry *webcmp.Entry) (*element, error) {
	d := dom.NewElement(entry.Tag())
	inst, err := entry.NewInstance(context.Background(), d.AttachShadow())
	if err != nil {
		return nil, err
	}

	el := &element{
		host:      h,
		entry:     entry,
		dom:       d,
		inst:      inst,
		obj:       h.vm.NewObject(),
		listeners: make(map[string][]goja.Callable),
	}

	d.ObserveAttributes(entry.Attributes(), inst.AttributeChanged)
	for _, name := range entry.Events() {
		d.AddEventListener(name, func(ev *dom.Event) {
			h.dispatch(el, ev)
		})
	}

	el.set("tagName", entry.Tag())
	el.set("setAttribute", el.setAttribute)
	el.set("getAttribute", el.getAttribute)
	el.set("removeAttribute", el.removeAttribute)
	el.set("hasAttribute", el.hasAttribute)
	el.set("connect", el.connect)
	el.set("disconnect", el.disconnect)
	el.set("settle", el.settle)
	el.set("addEventListener", el.addEventListener)
	el.set("shadowHTML", el.shadowHTML)
	el.set("textContent", el.textContent)

	for _, p := range entry.Properties() {
		el.defineProperty(p)
	}
	return el, nil
}

func (el *element) set(name string, v any) {
	if err := el.obj.Set(name, v); err != nil {
		el.host.logger.Error("Failed to set element member", zap.String("name", name), zap.Error(err))
	}
}

// defineProperty installs the accessor for a component property. Read-only
// properties have no setter, so assignments are ignored in sloppy mode and
// throw in strict mode.
func (el *element) defineProperty(p webcmp.PropertyInfo) {
	vm := el.host.vm
	name := p.Name

	getter := vm.ToValue(func(goja.FunctionCall) goja.Value {
		var v webcmp.Value
		el.host.await(func() { v = el.inst.GetProperty(context.Background(), name) })
		return el.host.toJS(v)
	})
	setter := goja.Undefined()
	if !p.Readonly {
		setter = vm.ToValue(func(call goja.FunctionCall) goja.Value {
			el.inst.SetProperty(name, fromJS(call.Argument(0)))
			return goja.Undefined()
		})
	}

	if err := el.obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		el.host.logger.Error("Failed to define property", zap.String("property", name), zap.Error(err))
	}
}

func (el *element) setAttribute(call goja.FunctionCall) goja.Value {
	el.dom.SetAttribute(call.Argument(0).String(), call.Argument(1).String())
	return goja.Undefined()
}

func (el *element) getAttribute(call goja.FunctionCall) goja.Value {
	v, ok := el.dom.GetAttribute(call.Argument(0).String())
	if !ok {
		return goja.Null()
	}
	return el.host.vm.ToValue(v)
}

func (el *element) removeAttribute(call goja.FunctionCall) goja.Value {
	el.dom.RemoveAttribute(call.Argument(0).String())
	return goja.Undefined()
}

func (el *element) hasAttribute(call goja.FunctionCall) goja.Value {
	_, ok := el.dom.GetAttribute(call.Argument(0).String())
	return el.host.vm.ToValue(ok)
}

func (el *element) connect(goja.FunctionCall) goja.Value {
	el.inst.Connect(el.dom)
	return goja.Undefined()
}

func (el *element) disconnect(goja.FunctionCall) goja.Value {
	el.inst.Disconnect()
	return goja.Undefined()
}

// settle waits for the component to catch up with every change made so far,
// delivering events as they arrive. It returns false on timeout.
func (el *element) settle(goja.FunctionCall) goja.Value {
	ctx, cancel := context.WithTimeout(context.Background(), el.host.opts.SettleTimeout)
	defer cancel()

	var err error
	el.host.await(func() { err = el.inst.Sync(ctx) })
	if err != nil {
		el.host.logger.Debug("settle did not complete", zap.String("tag", el.entry.Tag()), zap.Error(err))
		return el.host.vm.ToValue(false)
	}
	return el.host.vm.ToValue(true)
}

func (el *element) addEventListener(call goja.FunctionCall) goja.Value {
	typ := call.Argument(0).String()
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(el.host.vm.NewTypeError("addEventListener: listener is not a function"))
	}
	el.listeners[typ] = append(el.listeners[typ], fn)
	return goja.Undefined()
}

func (el *element) shadowHTML(goja.FunctionCall) goja.Value {
	return el.host.vm.ToValue(el.dom.ShadowRoot().HTML())
}

func (el *element) textContent(goja.FunctionCall) goja.Value {
	return el.host.vm.ToValue(el.dom.ShadowRoot().Text())
}

// deliver calls the JavaScript listeners for p. Listener exceptions are
// logged and do not stop later listeners.
func (el *element) deliver(p *pendingEvent) {
	ev := p.ev
	ls := el.listeners[ev.Type]
	if len(ls) == 0 {
		return
	}
	vm := el.host.vm

	jsEvent := vm.NewObject()
	_ = jsEvent.Set("type", ev.Type)
	_ = jsEvent.Set("detail", ev.Detail)
	_ = jsEvent.Set("bubbles", ev.Bubbles)
	_ = jsEvent.Set("cancelable", ev.Cancelable)
	_ = jsEvent.Set("defaultPrevented", false)
	_ = jsEvent.Set("target", el.obj)
	_ = jsEvent.Set("preventDefault", func(goja.FunctionCall) goja.Value {
		if ev.Cancelable {
			p.prevented.Store(true)
			_ = jsEvent.Set("defaultPrevented", true)
		}
		return goja.Undefined()
	})

	for _, fn := range ls {
		if _, err := fn(el.obj, jsEvent); err != nil {
			el.host.logger.Warn("event listener threw", zap.String("event", ev.Type), zap.Error(err))
		}
	}
}

// toJS converts a property read for the runtime.
func (h *Host) toJS(v webcmp.Value) goja.Value {
	if v.IsUndefined() {
		return goja.Undefined()
	}
	if v.Interface() == nil {
		return goja.Null()
	}
	return h.vm.ToValue(v.Interface())
}

// fromJS converts an assigned value for the component.
func fromJS(v goja.Value) webcmp.Value {
	if v == nil || goja.IsUndefined(v) {
		return webcmp.Undefined()
	}
	if goja.IsNull(v) {
		return webcmp.ValueOf(nil)
	}
	return webcmp.ValueOf(v.Export())
}
