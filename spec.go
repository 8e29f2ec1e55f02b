package webcmp

import (
	"fmt"
	"reflect"

	"github.com/pthm/webcmp/lib/dts"
	"github.com/pthm/webcmp/lib/naming"
)

// Spec is one entry of a descriptor: an AttributeSpec, PropertySpec or
// EventSpec.
type Spec interface {
	boundName() string
}

// AttributeSpec binds an observed HTML attribute to a state slot.
type AttributeSpec struct {
	// Bound is the state slot the attribute writes to.
	Bound string
	// Name is the HTML attribute name. Matched case-insensitively.
	Name string
	// Optional attributes hold nil when absent or unparsable; required ones
	// fall back to Default.
	Optional bool
	Default  func() any
	Parse    func(string) (any, bool)
}

func (a AttributeSpec) boundName() string { return a.Bound }

// NewAttribute declares a required attribute of type V. The HTML name is the
// kebab-case form of bound.
func NewAttribute[V any](bound string, initial V, parse func(string) (V, bool)) AttributeSpec {
	spec := AttributeSpec{
		Bound:   bound,
		Name:    naming.Kebab(bound),
		Default: func() any { return initial },
	}
	if parse != nil {
		spec.Parse = func(s string) (any, bool) {
			return parse(s)
		}
	}
	return spec
}

// NewOptionalAttribute declares an attribute whose slot holds nil when the
// attribute is absent or fails to parse, and a V otherwise.
func NewOptionalAttribute[V any](bound string, parse func(string) (V, bool)) AttributeSpec {
	spec := AttributeSpec{
		Bound:    bound,
		Name:     naming.Kebab(bound),
		Optional: true,
		Default:  func() any { return nil },
	}
	if parse != nil {
		spec.Parse = func(s string) (any, bool) {
			return parse(s)
		}
	}
	return spec
}

// Named overrides the HTML attribute name.
func (a AttributeSpec) Named(name string) AttributeSpec {
	a.Name = name
	return a
}

// WithDefault overrides the default value supplier.
func (a AttributeSpec) WithDefault(fn func() any) AttributeSpec {
	a.Default = fn
	return a
}

// PropertySpec binds a DOM property to a state slot.
type PropertySpec struct {
	Bound    string
	Name     string
	Readonly bool
	Default  func() any
	// FromExternal converts a host value for storage in the slot.
	FromExternal func(Value) (any, error)
	// ToExternal converts the slot value for a host read.
	ToExternal func(any) (Value, error)
	// Type is the TypeScript type used in generated declarations. It has no
	// runtime effect.
	Type string
}

func (p PropertySpec) boundName() string { return p.Bound }

// NewProperty declares a writable property of type V, converted with Decode
// and Encode. The DOM name is the lowerCamelCase form of bound.
func NewProperty[V any](bound string, initial V) PropertySpec {
	return PropertySpec{
		Bound:   bound,
		Name:    naming.Camel(bound),
		Default: func() any { return initial },
		FromExternal: func(v Value) (any, error) {
			return Decode[V](v)
		},
		ToExternal: func(x any) (Value, error) {
			typed, ok := x.(V)
			if !ok && x != nil {
				return Undefined(), fmt.Errorf("%w: slot holds %T", ErrConversion, x)
			}
			return Encode(typed)
		},
		Type: dts.TypeOf(reflect.TypeOf((*V)(nil)).Elem()),
	}
}

// NewOptionalProperty declares a writable property whose slot holds nil or a
// V, matching NewOptionalAttribute so the two can share a slot. A host null
// clears the slot.
func NewOptionalProperty[V any](bound string) PropertySpec {
	return PropertySpec{
		Bound:   bound,
		Name:    naming.Camel(bound),
		Default: func() any { return nil },
		FromExternal: func(v Value) (any, error) {
			if !v.IsUndefined() && v.Interface() == nil {
				return nil, nil
			}
			return Decode[V](v)
		},
		ToExternal: func(x any) (Value, error) {
			if x == nil {
				return ValueOf(nil), nil
			}
			typed, ok := x.(V)
			if !ok {
				return Undefined(), fmt.Errorf("%w: slot holds %T", ErrConversion, x)
			}
			return Encode(typed)
		},
		Type: dts.TypeOf(reflect.TypeOf((*V)(nil))),
	}
}

// Named overrides the DOM property name.
func (p PropertySpec) Named(name string) PropertySpec {
	p.Name = name
	return p
}

// AsReadonly marks the property read-only: host writes are dropped.
func (p PropertySpec) AsReadonly() PropertySpec {
	p.Readonly = true
	return p
}

// WithType overrides the declared TypeScript type.
func (p PropertySpec) WithType(t string) PropertySpec {
	p.Type = t
	return p
}

// WithConversion replaces the conversion hooks.
func (p PropertySpec) WithConversion(from func(Value) (any, error), to func(any) (Value, error)) PropertySpec {
	p.FromExternal = from
	p.ToExternal = to
	return p
}

// EventSpec declares a custom event the component dispatches on its host.
type EventSpec struct {
	Bound      string
	Name       string
	Bubbles    bool
	Cancelable bool
	// Detail is the TypeScript type of the event detail, for declarations.
	Detail string
}

func (e EventSpec) boundName() string { return e.Bound }

// NewEvent declares an event. The DOM name drops a leading "On" from bound
// and kebab-cases the rest. Events bubble and are cancelable by default.
func NewEvent(bound string) EventSpec {
	return EventSpec{
		Bound:      bound,
		Name:       naming.EventName(bound),
		Bubbles:    true,
		Cancelable: true,
		Detail:     "unknown",
	}
}

// Named overrides the DOM event name.
func (e EventSpec) Named(name string) EventSpec {
	e.Name = name
	return e
}

// NoBubble stops the event from bubbling.
func (e EventSpec) NoBubble() EventSpec {
	e.Bubbles = false
	return e
}

// NoCancel makes the event non-cancelable.
func (e EventSpec) NoCancel() EventSpec {
	e.Cancelable = false
	return e
}

// WithDetail sets the declared detail type.
func (e EventSpec) WithDetail(t string) EventSpec {
	e.Detail = t
	return e
}
