package webcmp

// Observer is notified of instance lifecycle and message traffic. All
// methods may be called from host goroutines and consumer goroutines
// concurrently.
type Observer interface {
	// Connected is called when an instance of tag connects.
	Connected(tag string)
	// Disconnected is called when an instance of tag disconnects.
	Disconnected(tag string)
	// MessageSent is called after m is enqueued.
	MessageSent(tag string, m Message)
	// MessageDropped is called when m is discarded before reaching the
	// consumer. reason is ErrChannelClosed, ErrUnknownName or ErrReadonly.
	MessageDropped(tag string, m Message, reason error)
	// MessageApplied is called by the consumer after handling m. state is a
	// copy of the instance's slots keyed by bound name.
	MessageApplied(tag string, m Message, state map[string]any)
	// Rendered is called by the consumer after each render attempt. err is
	// nil when the container was updated.
	Rendered(tag string, err error)
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// the methods you need.
type NopObserver struct{}

func (NopObserver) Connected(string)                               {}
func (NopObserver) Disconnected(string)                            {}
func (NopObserver) MessageSent(string, Message)                    {}
func (NopObserver) MessageDropped(string, Message, error)          {}
func (NopObserver) MessageApplied(string, Message, map[string]any) {}
func (NopObserver) Rendered(string, error)                         {}

// observers fans out to a fixed list.
type observers []Observer

func (o observers) connected(tag string) {
	for _, ob := range o {
		ob.Connected(tag)
	}
}

func (o observers) disconnected(tag string) {
	for _, ob := range o {
		ob.Disconnected(tag)
	}
}

func (o observers) sent(tag string, m Message) {
	for _, ob := range o {
		ob.MessageSent(tag, m)
	}
}

func (o observers) dropped(tag string, m Message, reason error) {
	for _, ob := range o {
		ob.MessageDropped(tag, m, reason)
	}
}

func (o observers) applied(tag string, m Message, state func() map[string]any) {
	if len(o) == 0 {
		return
	}
	snap := state()
	for _, ob := range o {
		ob.MessageApplied(tag, m, snap)
	}
}

func (o observers) rendered(tag string, err error) {
	for _, ob := range o {
		ob.Rendered(tag, err)
	}
}
