package webcmp

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/pthm/webcmp/lib/config"
)

// DefaultGetTimeout bounds property reads when Options.GetTimeout is unset.
const DefaultGetTimeout = config.DefaultGetTimeout

// Options configures a Registry and every instance created from its
// entries.
type Options struct {
	// Logger receives runtime diagnostics. Dropped messages and conversion
	// fallbacks are logged at V(1). Defaults to logr.Discard().
	Logger logr.Logger

	// GetTimeout bounds how long GetProperty waits for the component's
	// reply before resolving to Undefined.
	GetTimeout time.Duration

	// Observers are notified of lifecycle events and message traffic.
	Observers []Observer
}

// OptionsFromConfig maps the runtime section of webcmp.yaml to Options.
func OptionsFromConfig(rt config.Runtime, logger logr.Logger) Options {
	return Options{
		Logger:     logger,
		GetTimeout: rt.GetTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.Logger.GetSink() == nil {
		o.Logger = logr.Discard()
	}
	if o.GetTimeout <= 0 {
		o.GetTimeout = DefaultGetTimeout
	}
	o.Observers = append([]Observer(nil), o.Observers...)
	return o
}
