package webcmp

import (
	"sync"
)

// Handle is the state shared between an instance's bridge and its mounted
// consumer: the host element, the observed attribute names, and the cell
// holding the outbound sender.
//
// The sender cell starts empty, is installed once by the consumer and is
// cleared at disconnect. Once cleared it can never be installed again.
type Handle struct {
	tag      string
	host     Element
	observed []string
	obs      observers

	mu      sync.RWMutex
	sender  *Sender
	cleared bool
	ready   chan struct{}
}

func newHandle(tag string, host Element, observed []string, obs observers) *Handle {
	return &Handle{
		tag:      tag,
		host:     host,
		observed: observed,
		obs:      obs,
		ready:    make(chan struct{}),
	}
}

// Host returns the host element.
func (h *Handle) Host() Element {
	return h.host
}

// ObservedAttributes returns the names replayed at install.
func (h *Handle) ObservedAttributes() []string {
	return append([]string(nil), h.observed...)
}

// Installed reports whether a sender is currently installed.
func (h *Handle) Installed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sender != nil
}

// install stores s and, under the same lock, replays the host's current
// value of every observed attribute it carries. Sends from the host block on
// the lock, so the replay always precedes them. It reports false when a
// sender was already installed or the handle has been cleared.
func (h *Handle) install(s *Sender) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sender != nil || h.cleared {
		return false
	}
	h.sender = s
	defer close(h.ready)

	for _, name := range h.observed {
		v, ok := h.host.GetAttribute(name)
		if !ok {
			continue
		}
		value := v
		msg := SetAttribute{Name: name, Value: &value}
		if err := s.Send(msg); err != nil {
			h.obs.dropped(h.tag, msg, err)
			continue
		}
		h.obs.sent(h.tag, msg)
	}
	return true
}

// Ready is closed once a sender has been installed and the replay sent.
func (h *Handle) Ready() <-chan struct{} {
	return h.ready
}

// clear empties the cell for good and returns the sender that was
// installed, if any.
func (h *Handle) clear() *Sender {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.sender
	h.sender = nil
	h.cleared = true
	return s
}

// send enqueues m through the installed sender. Without a sender the
// message is dropped.
func (h *Handle) send(m Message) bool {
	h.mu.RLock()
	s := h.sender
	var err error
	if s == nil {
		err = ErrChannelClosed
	} else {
		err = s.Send(m)
	}
	h.mu.RUnlock()

	if err != nil {
		h.obs.dropped(h.tag, m, err)
		return false
	}
	h.obs.sent(h.tag, m)
	return true
}
