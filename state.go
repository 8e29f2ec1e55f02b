package webcmp

import (
	"github.com/go-logr/logr"

	"github.com/pthm/webcmp/lib/dom"
	"github.com/pthm/webcmp/lib/encoding"
)

// State holds one instance's slot values. It is owned by the instance's
// consumer goroutine: components read and write it only from Render and
// Update.
type State struct {
	desc   *Descriptor
	host   Element
	values []any
	log    logr.Logger
}

func newState(desc *Descriptor, host Element, log logr.Logger) *State {
	s := &State{
		desc:   desc,
		host:   host,
		values: make([]any, len(desc.slots)),
		log:    log,
	}
	for i, sl := range desc.slots {
		s.values[i] = sl.initial()
	}
	return s
}

// Get returns the value of a slot, or nil for an unknown bound name.
func (s *State) Get(bound string) any {
	i, ok := s.desc.slotIndex[bound]
	if !ok {
		return nil
	}
	return s.values[i]
}

// Set stores a slot value and reports whether bound names a slot.
func (s *State) Set(bound string, v any) bool {
	i, ok := s.desc.slotIndex[bound]
	if !ok {
		return false
	}
	s.values[i] = v
	return true
}

// Field returns a slot value as V, or V's zero value when the slot is
// unknown, nil or holds another type.
func Field[V any](s *State, bound string) V {
	v, _ := s.Get(bound).(V)
	return v
}

// OptionalField returns a pointer to a copy of a slot value of type V, or
// nil when the slot is unknown, nil or holds another type. It reads slots
// declared with NewOptionalAttribute or NewOptionalProperty.
func OptionalField[V any](s *State, bound string) *V {
	v, ok := s.Get(bound).(V)
	if !ok {
		return nil
	}
	return &v
}

// EventFunc returns a typed dispatcher for the event declared with bound
// name. See Dispatcher.
func EventFunc[D any](s *State, bound string) func(detail D) bool {
	dispatch := s.Dispatcher(bound)
	return func(detail D) bool {
		return dispatch(detail)
	}
}

// Snapshot copies the slot values keyed by bound name.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for i, sl := range s.desc.slots {
		out[sl.bound] = s.values[i]
	}
	return out
}

// Host returns the host element.
func (s *State) Host() Element {
	return s.host
}

// Emit dispatches the event declared with bound name on the host element
// and reports whether the event was not cancelled. Unknown events are not
// dispatched and report false.
func (s *State) Emit(bound string, detail any) bool {
	return s.Dispatcher(bound)(detail)
}

// Dispatcher returns a function dispatching the event declared with bound
// name. The returned function may be kept and called later from any
// goroutine.
func (s *State) Dispatcher(bound string) func(detail any) bool {
	spec, ok := s.desc.Event(bound)
	if !ok {
		log := s.log
		return func(any) bool {
			log.V(1).Info("unknown event", "event", bound)
			return false
		}
	}
	host := s.host
	return func(detail any) bool {
		return host.DispatchEvent(&dom.Event{
			Type:       spec.Name,
			Detail:     encoding.Export(detail),
			Bubbles:    spec.Bubbles,
			Cancelable: spec.Cancelable,
		})
	}
}
