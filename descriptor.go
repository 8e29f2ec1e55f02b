package webcmp

import (
	"fmt"
	"strings"

	"github.com/pthm/webcmp/lib/dts"
)

// Descriptor is the compiled, immutable schema of a component type: its
// observed attributes, properties and events, and the state slots they bind
// to. One descriptor is shared by every instance of the type.
type Descriptor struct {
	attributes []AttributeSpec
	properties []PropertySpec
	events     []EventSpec

	observed []string
	slots    []slot

	attrIndex  map[string]int
	propIndex  map[string]int
	eventIndex map[string]int // by bound name
	slotIndex  map[string]int
}

// slot is a bound state cell. Attributes and properties sharing a bound name
// share a slot.
type slot struct {
	bound   string
	initial func() any
}

// NewDescriptor validates specs and builds the dispatch tables.
//
// Attribute names are unique among attributes, property names among
// properties, and event bound names among events; the three namespaces are
// independent. An attribute and a property may bind the same slot.
func NewDescriptor(specs ...Spec) (*Descriptor, error) {
	d := &Descriptor{
		attrIndex:  make(map[string]int),
		propIndex:  make(map[string]int),
		eventIndex: make(map[string]int),
		slotIndex:  make(map[string]int),
	}

	for _, s := range specs {
		if s.boundName() == "" {
			return nil, fmt.Errorf("%T with empty bound name: %w", s, ErrInvalidDescriptor)
		}

		switch spec := s.(type) {
		case AttributeSpec:
			if err := d.addAttribute(spec); err != nil {
				return nil, err
			}
		case PropertySpec:
			if err := d.addProperty(spec); err != nil {
				return nil, err
			}
		case EventSpec:
			if err := d.addEvent(spec); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported spec %T: %w", s, ErrInvalidDescriptor)
		}
	}

	return d, nil
}

// MustDescriptor is like NewDescriptor but panics on error. Use it for
// descriptors built at package initialisation.
func MustDescriptor(specs ...Spec) *Descriptor {
	d, err := NewDescriptor(specs...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Descriptor) addAttribute(a AttributeSpec) error {
	a.Name = strings.ToLower(a.Name)
	if a.Name == "" {
		return fmt.Errorf("attribute %q: empty name: %w", a.Bound, ErrInvalidDescriptor)
	}
	if _, dup := d.attrIndex[a.Name]; dup {
		return fmt.Errorf("attribute %q: %w", a.Name, ErrDuplicateName)
	}
	if a.Parse == nil {
		return fmt.Errorf("attribute %q: parse: %w", a.Name, ErrMissingHook)
	}
	if a.Default == nil {
		return fmt.Errorf("attribute %q: default: %w", a.Name, ErrMissingHook)
	}

	d.attrIndex[a.Name] = len(d.attributes)
	d.attributes = append(d.attributes, a)
	d.observed = append(d.observed, a.Name)
	d.bind(a.Bound, a.Default)
	return nil
}

func (d *Descriptor) addProperty(p PropertySpec) error {
	if p.Name == "" {
		return fmt.Errorf("property %q: empty name: %w", p.Bound, ErrInvalidDescriptor)
	}
	if _, dup := d.propIndex[p.Name]; dup {
		return fmt.Errorf("property %q: %w", p.Name, ErrDuplicateName)
	}
	if p.FromExternal == nil || p.ToExternal == nil {
		return fmt.Errorf("property %q: conversion: %w", p.Name, ErrMissingHook)
	}
	if p.Default == nil {
		return fmt.Errorf("property %q: default: %w", p.Name, ErrMissingHook)
	}
	if p.Type == "" {
		p.Type = "unknown"
	}

	d.propIndex[p.Name] = len(d.properties)
	d.properties = append(d.properties, p)
	d.bind(p.Bound, p.Default)
	return nil
}

func (d *Descriptor) addEvent(e EventSpec) error {
	if e.Name == "" {
		return fmt.Errorf("event %q: empty name: %w", e.Bound, ErrInvalidDescriptor)
	}
	if _, dup := d.eventIndex[e.Bound]; dup {
		return fmt.Errorf("event %q: %w", e.Bound, ErrDuplicateName)
	}
	d.eventIndex[e.Bound] = len(d.events)
	d.events = append(d.events, e)
	return nil
}

// bind allocates a slot for bound, keeping the first default declared.
func (d *Descriptor) bind(bound string, initial func() any) {
	if _, ok := d.slotIndex[bound]; ok {
		return
	}
	d.slotIndex[bound] = len(d.slots)
	d.slots = append(d.slots, slot{bound: bound, initial: initial})
}

// ObservedAttributes returns the attribute names the host must observe, in
// declaration order.
func (d *Descriptor) ObservedAttributes() []string {
	return append([]string(nil), d.observed...)
}

// Attributes returns the attribute specs in declaration order.
func (d *Descriptor) Attributes() []AttributeSpec {
	return append([]AttributeSpec(nil), d.attributes...)
}

// Properties returns the property specs in declaration order.
func (d *Descriptor) Properties() []PropertySpec {
	return append([]PropertySpec(nil), d.properties...)
}

// Events returns the event specs in declaration order.
func (d *Descriptor) Events() []EventSpec {
	return append([]EventSpec(nil), d.events...)
}

// Attribute looks up an attribute by HTML name, case-insensitively.
func (d *Descriptor) Attribute(name string) (AttributeSpec, bool) {
	i, ok := d.attrIndex[strings.ToLower(name)]
	if !ok {
		return AttributeSpec{}, false
	}
	return d.attributes[i], true
}

// Property looks up a property by DOM name.
func (d *Descriptor) Property(name string) (PropertySpec, bool) {
	i, ok := d.propIndex[name]
	if !ok {
		return PropertySpec{}, false
	}
	return d.properties[i], true
}

// Event looks up an event by bound name.
func (d *Descriptor) Event(bound string) (EventSpec, bool) {
	i, ok := d.eventIndex[bound]
	if !ok {
		return EventSpec{}, false
	}
	return d.events[i], true
}

// Bound reports whether bound names a state slot.
func (d *Descriptor) Bound(bound string) bool {
	_, ok := d.slotIndex[bound]
	return ok
}

// declaration describes the element for TypeScript declarations.
func (d *Descriptor) declaration(tag string) dts.Element {
	el := dts.Element{Tag: tag, Attributes: d.ObservedAttributes()}
	for _, p := range d.properties {
		el.Properties = append(el.Properties, dts.Property{Name: p.Name, Type: p.Type, Readonly: p.Readonly})
	}
	for _, e := range d.events {
		el.Events = append(el.Events, dts.Event{Name: e.Name, Detail: e.Detail})
	}
	return el
}
