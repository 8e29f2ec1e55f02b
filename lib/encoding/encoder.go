// Package encoding converts values that cross the custom element boundary
// into the typed values components hold, and back.
//
// Host values arrive loosely typed (numbers as float64 or int64, objects as
// map[string]any). Conversion goes through msgpack: the source is packed and
// then unpacked into the destination, which gives lenient, tag-aware
// decoding into structs, slices and maps without reflection code of our own.
package encoding

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidTarget is returned when the conversion destination is not a
// non-nil pointer.
var ErrInvalidTarget = errors.New("encoding: destination must be a non-nil pointer")

// Encodable is implemented by types that can encode themselves efficiently.
// Generated code implements this interface.
type Encodable interface {
	WCEncode() map[string]any
}

// Decodable is implemented by types that can decode themselves efficiently.
// Generated code implements this interface.
type Decodable interface {
	WCDecode(map[string]any) error
}

// Convert stores src into the value pointed to by dst.
//
// Encodable sources are reduced to their map form first; Decodable
// destinations receive map sources directly. Everything else is packed with msgpack and unpacked into dst.
func Convert(src any, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrInvalidTarget
	}

	if enc, ok := src.(Encodable); ok {
		src = enc.WCEncode()
	}

	if dec, ok := dst.(Decodable); ok {
		if m, ok := src.(map[string]any); ok {
			return dec.WCDecode(m)
		}
	}

	packed, err := msgpack.Marshal(src)
	if err != nil {
		return fmt.Errorf("encoding: pack %T: %w", src, err)
	}
	if err := msgpack.Unmarshal(packed, dst); err != nil {
		return fmt.Errorf("encoding: unpack into %T: %w", dst, err)
	}
	return nil
}

// Export converts a component value into a host-friendly representation:
// Encodable values become maps, everything else is returned unchanged.
func Export(v any) any {
	if enc, ok := v.(Encodable); ok {
		return enc.WCEncode()
	}
	return v
}
