package webcmp

// Message is a request from the host side of an instance to its consumer
// goroutine. Messages are consumed exactly once, in the order they were
// sent.
//
// The host-facing types are SetAttribute, Get and Set. Sync uses an
// internal marker message.
type Message interface {
	// Kind names the message type for logs and metrics.
	Kind() string
}

// SetAttribute reports an observed attribute's new value. A nil Value means
// the attribute was removed.
type SetAttribute struct {
	Name  string
	Value *string
}

// Get asks for a property's current external value. The consumer sends
// exactly one value on Reply, which must be buffered.
type Get struct {
	Name  string
	Reply chan<- Value
}

// Set writes a property from the host.
type Set struct {
	Name  string
	Value Value
}

// barrier is acknowledged once every message queued before it has been
// handled and rendered.
type barrier struct {
	ack chan struct{}
}

func (SetAttribute) Kind() string { return "set_attribute" }
func (Get) Kind() string          { return "get" }
func (Set) Kind() string          { return "set" }
func (barrier) Kind() string      { return "sync" }
