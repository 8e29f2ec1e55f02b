package webcmp

import "errors"

// Sentinel errors for descriptor, registry and conversion failures.
//
// Descriptor and registry errors are returned at build/registration time.
// Conversion and channel errors never leave the runtime boundary: they are
// resolved to documented fallbacks and only reported to observers.
var (
	ErrInvalidDescriptor = errors.New("webcmp: invalid descriptor")
	ErrDuplicateName     = errors.New("webcmp: duplicate name")
	ErrMissingHook       = errors.New("webcmp: missing conversion hook")
	ErrInvalidEntry      = errors.New("webcmp: invalid registry entry")
	ErrUndefined         = errors.New("webcmp: value is undefined")
	ErrConversion        = errors.New("webcmp: value conversion failed")
	ErrChannelClosed     = errors.New("webcmp: channel closed")
	ErrUnknownName       = errors.New("webcmp: unknown name")
	ErrReadonly          = errors.New("webcmp: property is read-only")
)

// IsInvalidDescriptor checks if err comes from descriptor validation.
func IsInvalidDescriptor(err error) bool {
	return errors.Is(err, ErrInvalidDescriptor) || errors.Is(err, ErrDuplicateName) || errors.Is(err, ErrMissingHook)
}

// IsConversion checks if err is a value conversion failure, including
// attempts to decode an undefined value.
func IsConversion(err error) bool {
	return errors.Is(err, ErrConversion) || errors.Is(err, ErrUndefined)
}
