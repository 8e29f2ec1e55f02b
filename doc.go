// Package webcmp exposes Go components as custom elements.
//
// Each registered tag pairs a Descriptor (the attributes, properties and
// events the element has) with a Builder for the component rendered inside
// the element's shadow root. The host drives an element through four
// callbacks on its Instance: Connect, Disconnect, AttributeChanged and the
// property accessors GetProperty / SetProperty. The component itself runs on
// its own goroutine and only ever sees messages.
//
// # Descriptors
//
// A descriptor binds named host-facing surfaces to state slots:
//
//	var counterDesc = webcmp.MustDescriptor(
//	    webcmp.NewAttribute("count", 0, webcmp.ParseInt),
//	    webcmp.NewProperty("count", 0),
//	    webcmp.NewEvent("onChanged").WithDetail("number"),
//	)
//
// Attribute names default to the kebab-case of the bound name and are
// matched case-insensitively. Property names default to lowerCamelCase.
// Event names drop a leading "on" and are kebab-cased, so "onChanged"
// dispatches "changed". An attribute and a property with the same bound name
// share one slot: writing either updates what the component sees.
//
// Attribute values that are absent or fail to parse fall back to the
// attribute's default (or nil for optional attributes). Property writes
// that fail to convert keep the previous value. Property reads that cannot
// be served resolve to Undefined. None of these are reported to the host as
// errors; they are logged at V(1) and reported to observers.
//
// # Lifecycle
//
// Connect starts the component goroutine. It builds the state from the slot
// defaults, creates the instance channel and installs the sending side in
// the instance's Handle, replaying the host's current observed attributes
// first. Callbacks made before the install are dropped; the replay covers
// them. Disconnect clears the sender for good and closes the channel, after
// which the goroutine drains what was queued and exits. Reconnecting an
// element starts a new cycle with fresh state.
//
// Messages from one instance are handled in the order they were sent.
// Messages to different instances are unordered.
//
// # Registration
//
//	reg := webcmp.NewRegistry(webcmp.Options{Logger: logger})
//	reg.MustRegister("plop-counter", counterDesc, webcmp.CSS(counterCSS), newCounter)
//
// Registering a tag twice replaces the first entry. The package-level
// Register and Lookup use Default.
//
// # Code Generation
//
// Run 'webcmp generate' to produce descriptors from tagged structs:
//
//	//webcmp:component plop-counter
//	type Counter struct {
//	    Count     int          `wc:"attr;prop"`
//	    OnChanged func(int) bool `wc:"event"`
//	}
//
// The generator writes a <file>_wc.go with the descriptor, WCTag and
// WCDescriptor methods, a LoadCounter helper that reads the State into the
// struct and a typed RegisterCounter, plus a TypeScript declaration file for
// the host page.
//
// # Serving
//
// adapters/echo mounts a registry on an Echo server: a JSON manifest, the
// declarations, server-rendered previews with declarative shadow roots and,
// optionally, the Prometheus metrics of the registry.
//
// # Testing
//
// TestHost mounts registered elements against the in-memory DOM in
// lib/dom, and its Probe records every message:
//
//	host := webcmp.NewTestHost(webcmp.Options{})
//	host.Registry.MustRegister("plop-counter", counterDesc, webcmp.NoStyle(), newCounter)
//	el, _ := host.Mount(ctx, "plop-counter", map[string]string{"count": "2"})
//	_ = el.Settle(ctx)
package webcmp
