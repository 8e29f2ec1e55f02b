package webcmp

import (
	"fmt"

	"github.com/pthm/webcmp/lib/encoding"
)

// Value is a property value as the host sees it. The runtime never inspects
// it beyond decoding it into a component type and encoding one back.
//
// The zero Value is undefined.
type Value struct {
	raw     any
	defined bool
}

// Undefined returns the value used whenever a property read cannot be
// served.
func Undefined() Value {
	return Value{}
}

// ValueOf wraps a host value. ValueOf(nil) is a defined null, distinct from
// Undefined.
func ValueOf(v any) Value {
	return Value{raw: v, defined: true}
}

// IsUndefined reports whether v carries no value.
func (v Value) IsUndefined() bool {
	return !v.defined
}

// Interface returns the wrapped host value, or nil when undefined.
func (v Value) Interface() any {
	return v.raw
}

func (v Value) String() string {
	if !v.defined {
		return "undefined"
	}
	return fmt.Sprintf("%v", v.raw)
}

// Decode attempts to convert an external value into V.
func Decode[V any](v Value) (V, error) {
	var out V
	if !v.defined {
		return out, ErrUndefined
	}
	if x, ok := v.raw.(V); ok {
		return x, nil
	}
	if err := encoding.Convert(v.raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return out, nil
}

// Encode converts a component value into an external value. Types
// implementing encoding.Encodable are exported as maps.
func Encode[V any](x V) (Value, error) {
	return ValueOf(encoding.Export(x)), nil
}
