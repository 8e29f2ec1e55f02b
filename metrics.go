package webcmp

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "webcmp"

// Metrics is an Observer exporting instance and message counters to
// Prometheus.
type Metrics struct {
	connected *prometheus.GaugeVec
	mounts    *prometheus.CounterVec
	sent      *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	applied   *prometheus.CounterVec
	renders   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "connected_instances",
				Help:      "Number of instances currently connected, by tag.",
			},
			[]string{"tag"},
		),
		mounts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "connects_total",
				Help:      "Count of instance connects, by tag.",
			},
			[]string{"tag"},
		),
		sent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "messages_sent_total",
				Help:      "Count of messages enqueued for a component, by tag and kind.",
			},
			[]string{"tag", "kind"},
		),
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "messages_dropped_total",
				Help:      "Count of messages discarded before reaching a component, by tag, kind and reason.",
			},
			[]string{"tag", "kind", "reason"},
		),
		applied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "messages_applied_total",
				Help:      "Count of messages handled by a component, by tag and kind.",
			},
			[]string{"tag", "kind"},
		),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "renders_total",
				Help:      "Count of component renders, by tag and result.",
			},
			[]string{"tag", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Collectors()...)
	}
	return m
}

// Collectors returns the underlying collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.connected, m.mounts, m.sent, m.dropped, m.applied, m.renders}
}

func (m *Metrics) Connected(tag string) {
	m.connected.WithLabelValues(tag).Inc()
	m.mounts.WithLabelValues(tag).Inc()
}

func (m *Metrics) Disconnected(tag string) {
	m.connected.WithLabelValues(tag).Dec()
}

func (m *Metrics) MessageSent(tag string, msg Message) {
	m.sent.WithLabelValues(tag, msg.Kind()).Inc()
}

func (m *Metrics) MessageDropped(tag string, msg Message, reason error) {
	m.dropped.WithLabelValues(tag, msg.Kind(), dropReason(reason)).Inc()
}

func (m *Metrics) MessageApplied(tag string, msg Message, _ map[string]any) {
	m.applied.WithLabelValues(tag, msg.Kind()).Inc()
}

func (m *Metrics) Rendered(tag string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.renders.WithLabelValues(tag, result).Inc()
}

func dropReason(err error) string {
	switch err {
	case ErrChannelClosed:
		return "closed"
	case ErrUnknownName:
		return "unknown"
	case ErrReadonly:
		return "readonly"
	}
	return "other"
}
