package jshost

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pthm/webcmp"
)

type counter struct{}

func (counter) Render(_ context.Context, s *webcmp.State) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<span>%d</span>", webcmp.Field[int](s, "Count"))
		return err
	})
}

func (counter) Update(_ context.Context, s *webcmp.State, bound string) {
	if bound != "Count" {
		return
	}
	n := webcmp.Field[int](s, "Count")
	s.Set("Doubled", n*2)
	s.Emit("OnChanged", n)
}

var counterDesc = webcmp.MustDescriptor(
	webcmp.NewAttribute("Count", 0, webcmp.ParseInt),
	webcmp.NewProperty("Count", 0),
	webcmp.NewProperty("Doubled", 0).AsReadonly(),
	webcmp.NewEvent("OnChanged"),
)

func newHost(t *testing.T) (*goja.Runtime, *Host) {
	t.Helper()
	reg := webcmp.NewRegistry(webcmp.Options{GetTimeout: time.Second})
	reg.MustRegister("plop-counter", counterDesc, webcmp.CSS(":host{display:block}"), func() webcmp.Component { return counter{} })

	vm := goja.New()
	h := New(vm, reg, zaptest.NewLogger(t), Options{SettleTimeout: 2 * time.Second})
	require.NoError(t, h.Bind())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, h.Close(ctx))
	})
	return vm, h
}

func run(t *testing.T, vm *goja.Runtime, src string) goja.Value {
	t.Helper()
	v, err := vm.RunString(src)
	require.NoError(t, err)
	return v
}

func TestTags(t *testing.T) {
	vm, _ := newHost(t)

	v := run(t, vm, `webcmp.tags().join(",")`)
	assert.Equal(t, "plop-counter", v.String())
}

func TestCreateUnknownTagThrows(t *testing.T) {
	vm, _ := newHost(t)

	_, err := vm.RunString(`webcmp.create("no-such-element")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestAttributesReplayedOnConnect(t *testing.T) {
	vm, _ := newHost(t)

	v := run(t, vm, `
		const el = webcmp.create("plop-counter");
		el.setAttribute("count", "2");
		el.connect();
		el.settle();
		el.textContent();
	`)
	assert.Equal(t, "2", v.String())

	html := run(t, vm, `el.shadowHTML()`).String()
	assert.Contains(t, html, `<style>:host{display:block}</style>`)
	assert.Contains(t, html, `<div class="webcmp"><span>2</span></div>`)
}

func TestPropertyRoundTrip(t *testing.T) {
	vm, _ := newHost(t)

	run(t, vm, `
		const el = webcmp.create("plop-counter");
		el.connect();
		el.settle();
		el.count = 7;
	`)
	assert.Equal(t, int64(7), run(t, vm, `el.count`).ToInteger())
	assert.Equal(t, int64(14), run(t, vm, `el.doubled`).ToInteger())
	assert.Equal(t, "7", run(t, vm, `el.settle(); el.textContent()`).String())
}

func TestAttributeAndPropertyShareState(t *testing.T) {
	vm, _ := newHost(t)

	run(t, vm, `
		const el = webcmp.create("plop-counter");
		el.connect();
		el.settle();
		el.setAttribute("count", "3");
	`)
	assert.Equal(t, int64(3), run(t, vm, `el.count`).ToInteger())

	run(t, vm, `el.removeAttribute("count")`)
	assert.Equal(t, int64(0), run(t, vm, `el.count`).ToInteger(), "removed attribute falls back to the default")
}

func TestReadonlyPropertyHasNoSetter(t *testing.T) {
	vm, _ := newHost(t)

	run(t, vm, `
		const el = webcmp.create("plop-counter");
		el.connect();
		el.settle();
		el.doubled = 100;
	`)
	assert.Equal(t, int64(0), run(t, vm, `el.doubled`).ToInteger())

	_, err := vm.RunString(`(function() { "use strict"; el.doubled = 1; })()`)
	assert.Error(t, err, "strict mode assignment to a getter-only property throws")
}

func TestAttributeAndPropertyShareState_BeforeMount(t *testing.T) {
	vm, _ := newHost(t)

	// Changes made before the component mounts are picked up by the replay.
	v := run(t, vm, `
		const el = webcmp.create("plop-counter");
		el.connect();
		el.setAttribute("count", "9");
		el.settle();
		el.count;
	`)
	assert.Equal(t, int64(9), v.ToInteger())
}

func TestUnconnectedPropertyReadIsUndefined(t *testing.T) {
	vm, _ := newHost(t)

	v := run(t, vm, `
		const el = webcmp.create("plop-counter");
		el.count;
	`)
	assert.True(t, goja.IsUndefined(v))
}

func TestEventsDeliveredOnSettle(t *testing.T) {
	vm, _ := newHost(t)

	run(t, vm, `
		const el = webcmp.create("plop-counter");
		const seen = [];
		el.addEventListener("changed", (ev) => seen.push(ev.type + ":" + ev.detail + ":" + ev.bubbles));
		el.setAttribute("count", "1");
		el.connect();
		el.settle();
		el.setAttribute("count", "4");
		el.settle();
	`)
	assert.Equal(t, "changed:1:true,changed:4:true", run(t, vm, `seen.join(",")`).String())
}

// vetoCounter restores its previous count when OnChanged is cancelled.
type vetoCounter struct {
	counter
	last int
}

func (c *vetoCounter) Update(_ context.Context, s *webcmp.State, bound string) {
	if bound != "Count" {
		return
	}
	n := webcmp.Field[int](s, "Count")
	if !s.Emit("OnChanged", n) {
		s.Set("Count", c.last)
		return
	}
	c.last = n
}

func TestListenerCanCancelEvent(t *testing.T) {
	reg := webcmp.NewRegistry(webcmp.Options{GetTimeout: time.Second})
	reg.MustRegister("plop-veto", counterDesc, webcmp.NoStyle(), func() webcmp.Component { return &vetoCounter{} })
	vm := goja.New()
	h := New(vm, reg, zaptest.NewLogger(t), Options{SettleTimeout: 2 * time.Second})
	require.NoError(t, h.Bind())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, h.Close(ctx))
	})

	run(t, vm, `
		const el = webcmp.create("plop-veto");
		const seen = [];
		el.addEventListener("changed", (ev) => {
			if (ev.detail > 9) ev.preventDefault();
			seen.push(ev.detail + ":" + ev.defaultPrevented);
		});
		el.connect();
		el.settle();
		el.count = 5;
		el.settle();
		el.count = 12;
		el.settle();
	`)
	assert.Equal(t, int64(5), run(t, vm, `el.count`).ToInteger())
	assert.Equal(t, "5", run(t, vm, `el.textContent()`).String())
	assert.Equal(t, "5:false,12:true", run(t, vm, `seen.join(",")`).String())
}

func TestUnflushedCancelableEventTimesOut(t *testing.T) {
	observed := webcmp.NewProbe()
	reg := webcmp.NewRegistry(webcmp.Options{GetTimeout: time.Second, Observers: []webcmp.Observer{observed}})
	reg.MustRegister("plop-veto", counterDesc, webcmp.NoStyle(), func() webcmp.Component { return &vetoCounter{} })
	vm := goja.New()
	h := New(vm, reg, zaptest.NewLogger(t), Options{ListenerTimeout: 10 * time.Millisecond})
	require.NoError(t, h.Bind())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, h.Close(ctx))
	})

	run(t, vm, `
		const el = webcmp.create("plop-veto");
		el.addEventListener("changed", (ev) => ev.preventDefault());
		el.connect();
		el.settle();
		el.count = 12;
	`)
	// Nothing flushes while the component waits, so the change stands once
	// the wait times out.
	require.Eventually(t, func() bool {
		for _, m := range observed.Applied() {
			if _, ok := m.(webcmp.Set); ok {
				return true
			}
		}
		return false
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, int64(12), run(t, vm, `el.count`).ToInteger())
	assert.Equal(t, 0, h.Flush(), "the late event was delivered by the property read")
}

func TestDisconnectStopsUpdates(t *testing.T) {
	vm, _ := newHost(t)

	run(t, vm, `
		const el = webcmp.create("plop-counter");
		el.setAttribute("count", "5");
		el.connect();
		el.settle();
		el.disconnect();
		el.setAttribute("count", "6");
	`)
	assert.Equal(t, "5", run(t, vm, `el.textContent()`).String())
	assert.True(t, goja.IsUndefined(run(t, vm, `el.count`)))

	// Reconnecting mounts a fresh component seeded from the current attributes.
	assert.Equal(t, "6", run(t, vm, `el.connect(); el.settle(); el.textContent()`).String())
}

func TestDeclarations(t *testing.T) {
	vm, _ := newHost(t)

	v := run(t, vm, `webcmp.declarations()`).String()
	assert.Contains(t, v, "export interface PlopCounterElement extends HTMLElement {")
	assert.Contains(t, v, "readonly doubled: number;")
}
